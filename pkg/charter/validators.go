package charter

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// RequireDigit accepts answers containing at least one digit, e.g.
// dimensions like "20x15x10 cm". Vague answers ("medium size") are rejected
// with the corrective message.
func RequireDigit(msg string) func(string) error {
	return func(answer string) error {
		for _, r := range answer {
			if unicode.IsDigit(r) {
				return nil
			}
		}
		return errors.New(msg)
	}
}

// RequirePositiveInt accepts a whole number greater than zero.
func RequirePositiveInt(msg string) func(string) error {
	return func(answer string) error {
		n, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil || n <= 0 {
			return errors.New(msg)
		}
		return nil
	}
}

// RequireOption accepts answers matching one of the listed options
// (case-insensitive). With multiple selection, comma-separated answers are
// checked item by item.
func RequireOption(options []string, multiple bool, msg string) func(string) error {
	lookup := make(map[string]struct{}, len(options))
	for _, o := range options {
		lookup[strings.ToLower(strings.TrimSpace(o))] = struct{}{}
	}
	return func(answer string) error {
		parts := []string{answer}
		if multiple {
			parts = strings.Split(answer, ",")
		}
		for _, p := range parts {
			if _, ok := lookup[strings.ToLower(strings.TrimSpace(p))]; !ok {
				return errors.New(msg)
			}
		}
		return nil
	}
}

// RequirePhone accepts answers that look like a dialable number: at least
// eight digits, ignoring spaces, dashes and a leading plus sign.
func RequirePhone(msg string) func(string) error {
	return func(answer string) error {
		digits := 0
		for _, r := range answer {
			switch {
			case unicode.IsDigit(r):
				digits++
			case r == ' ' || r == '-' || r == '+' || r == '(' || r == ')':
			default:
				return errors.New(msg)
			}
		}
		if digits < 8 {
			return errors.New(msg)
		}
		return nil
	}
}
