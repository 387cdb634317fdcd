package configs

import (
	"flag"
	"os"

	"github.com/hilthontt/retrochat/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file from the --config flag,
// the RETROCHAT_CONFIG env var, or a set of conventional locations.
// An empty return means no file: defaults and env overrides apply.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("RETROCHAT_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/retrochat/config.yaml",
			"/app/config.yaml",
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
