package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator checks a single string value and returns an error if invalid.
type Validator func(value string) error

// Compose chains validators; the first error wins.
func Compose(validators ...Validator) Validator {
	return func(value string) error {
		for _, v := range validators {
			if err := v(value); err != nil {
				return err
			}
		}
		return nil
	}
}

// Field prefixes errors with a field name for better messages.
func Field(name string, validators ...Validator) Validator {
	inner := Compose(validators...)
	return func(value string) error {
		if err := inner(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}

// Required rejects empty or whitespace-only values.
func Required() Validator {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("this field is required")
		}
		return nil
	}
}

func MinLength(min int) Validator {
	return func(v string) error {
		if len(v) < min {
			return fmt.Errorf("must be at least %d characters", min)
		}
		return nil
	}
}

func MaxLength(max int) Validator {
	return func(v string) error {
		if len(v) > max {
			return fmt.Errorf("must be no more than %d characters", max)
		}
		return nil
	}
}

func Length(exact int) Validator {
	return func(v string) error {
		if len(v) != exact {
			return fmt.Errorf("must be exactly %d characters", exact)
		}
		return nil
	}
}

// Matches checks the value against a regex with a custom message.
func Matches(pattern, message string) Validator {
	re := regexp.MustCompile(pattern)
	return func(v string) error {
		if !re.MatchString(v) {
			if message != "" {
				return fmt.Errorf("%s", message)
			}
			return fmt.Errorf("invalid format")
		}
		return nil
	}
}

// OneOf checks membership in an allowed set.
func OneOf(allowed ...string) Validator {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	return func(v string) error {
		if !set[v] {
			return fmt.Errorf("must be one of: %s", strings.Join(allowed, ", "))
		}
		return nil
	}
}

// Alphanumeric allows only letters and digits.
func Alphanumeric() Validator {
	return Matches(`^[a-zA-Z0-9]+$`, "must contain only letters and numbers")
}

// Trim is the canonical whitespace normalization used before storing
// validated input.
func Trim(v string) string {
	return strings.TrimSpace(v)
}
