package util

import (
	"regexp"
	"strings"
)

var nonPhone = regexp.MustCompile(`[^\d\+]+`)

// NormalizePhone tries to normalize user input into E.164-like format.
// National numbers default to Uzbekistan (+998).
func NormalizePhone(raw string) string {
	s := nonPhone.ReplaceAllString(strings.TrimSpace(raw), "")

	switch {
	case strings.HasPrefix(s, "+"):
	case strings.HasPrefix(s, "00"):
		s = "+" + s[2:]
	case strings.HasPrefix(s, "998") && len(s) == 12:
		s = "+" + s
	case strings.HasPrefix(s, "8") && len(s) == 10:
		s = "+998" + s[1:]
	case len(s) == 9:
		s = "+998" + s
	}

	return s
}
