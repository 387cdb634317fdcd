package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

type zeroLogger struct {
	cfg    *LoggerConfig
	logger zerolog.Logger
}

var zeroLevelMap = map[string]zerolog.Level{
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
	"fatal": zerolog.FatalLevel,
}

func newZeroLogger(cfg *LoggerConfig) *zeroLogger {
	l := &zeroLogger{cfg: cfg}
	l.Init()
	return l
}

func (l *zeroLogger) getLevel() zerolog.Level {
	level, ok := zeroLevelMap[l.cfg.Level]
	if !ok {
		return zerolog.InfoLevel
	}
	return level
}

func (l *zeroLogger) Init() {
	var sink io.Writer = os.Stdout
	if l.cfg.FilePath != "" {
		sink = &lumberjack.Logger{
			Filename:   l.cfg.FilePath,
			MaxSize:    20,
			MaxAge:     7,
			MaxBackups: 5,
			Compress:   true,
		}
	}
	if l.cfg.Encoding == "console" {
		sink = zerolog.ConsoleWriter{Out: sink, TimeFormat: zerolog.TimeFieldFormat}
	}

	l.logger = zerolog.New(sink).
		Level(l.getLevel()).
		With().
		Timestamp().
		Str(string(AppName), "retrochat").
		Str(string(LoggerName), "zerolog").
		Logger()
}

func (l *zeroLogger) log(ev *zerolog.Event, cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	ev.Fields(logParamsToZeroParams(extra)).
		Str("Category", string(cat)).
		Str("SubCategory", string(sub)).
		Msg(msg)
}

func (l *zeroLogger) Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.log(l.logger.Debug(), cat, sub, msg, extra)
}

func (l *zeroLogger) Debugf(template string, args ...any) {
	l.logger.Debug().Msgf(template, args...)
}

func (l *zeroLogger) Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.log(l.logger.Info(), cat, sub, msg, extra)
}

func (l *zeroLogger) Infof(template string, args ...any) {
	l.logger.Info().Msgf(template, args...)
}

func (l *zeroLogger) Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.log(l.logger.Warn(), cat, sub, msg, extra)
}

func (l *zeroLogger) Warnf(template string, args ...any) {
	l.logger.Warn().Msgf(template, args...)
}

func (l *zeroLogger) Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.log(l.logger.Error(), cat, sub, msg, extra)
}

func (l *zeroLogger) Errorf(template string, args ...any) {
	l.logger.Error().Msgf(template, args...)
}

func (l *zeroLogger) Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.log(l.logger.Fatal(), cat, sub, msg, extra)
}

func (l *zeroLogger) Fatalf(template string, args ...any) {
	l.logger.Fatal().Msgf(template, args...)
}
