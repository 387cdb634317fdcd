// Package profanity masks banned words in message bodies before they
// hit the log. Masking instead of rejecting keeps conversation flowing
// and avoids teaching clients which words trip the filter.
package profanity

import (
	"embed"
	"encoding/json"
	"log"
	"regexp"
	"strings"
	"sync"
)

var (
	defaultFilter *Filter
	once          sync.Once
)

//go:embed words.json
var jsonData embed.FS

func loadBannedWords() []string {
	data, err := jsonData.ReadFile("words.json")
	if err != nil {
		log.Fatalf("Failed to read embedded file: %s", err)
	}

	var bannedWords []string
	if err := json.Unmarshal(data, &bannedWords); err != nil {
		log.Fatalf("Failed to unmarshal JSON: %s", err)
	}
	return bannedWords
}

type Filter struct {
	regex *regexp.Regexp
}

func NewFilter() *Filter {
	once.Do(func() {
		defaultFilter = &Filter{
			regex: buildRegex(loadBannedWords()),
		}
	})

	return defaultFilter
}

// Mask replaces each banned word with asterisks of the same length,
// preserving surrounding text.
func (f *Filter) Mask(text string) string {
	if text == "" {
		return text
	}

	return f.regex.ReplaceAllStringFunc(text, func(match string) string {
		return strings.Repeat("*", len(match))
	})
}

func (f *Filter) Contains(text string) bool {
	return text != "" && f.regex.MatchString(text)
}

func buildRegex(words []string) *regexp.Regexp {
	// Leetspeak variants per letter, so "sh1t" matches "shit".
	subs := map[rune]string{
		'a': "[a@4]",
		'e': "[e3]",
		'i': "[i1!|]",
		'o': "[o0]",
		's': "[s$5z]",
		't': "[t7+]",
		'g': "[g9]",
		'b': "[b8]",
	}

	patterns := make([]string, 0, len(words))
	for _, word := range words {
		var sb strings.Builder
		for _, r := range strings.ToLower(word) {
			if class, ok := subs[r]; ok {
				sb.WriteString(class)
			} else {
				sb.WriteString(regexp.QuoteMeta(string(r)))
			}
			// Tolerate doubled letters: "fuuck".
			sb.WriteString("+")
		}
		patterns = append(patterns, sb.String())
	}

	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(patterns, "|") + `)\b`)
}
