package prodex

import (
	"strconv"
	"strings"
)

// ParsePrice reads the first number in s, accepting both "1,299.00" and
// "1.299,00" grouping. Returns false for missing or non-positive prices.
func ParsePrice(s string) (float64, bool) {
	var num []rune
scan:
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			num = append(num, r)
		case len(num) > 0 && (r == ' ' || r == '\u00a0' || r == '\''):
		case len(num) > 0:
			break scan
		}
	}

	n := strings.Trim(string(num), ".,")
	if n == "" {
		return 0, false
	}
	lastDot, lastComma := strings.LastIndex(n, "."), strings.LastIndex(n, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			n = strings.ReplaceAll(n, ".", "")
			n = strings.Replace(n, ",", ".", 1)
		} else {
			n = strings.ReplaceAll(n, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(n, ",") == 1 && len(n)-lastComma-1 <= 2 {
			n = strings.Replace(n, ",", ".", 1)
		} else {
			n = strings.ReplaceAll(n, ",", "")
		}
	case strings.Count(n, ".") > 1:
		n = strings.ReplaceAll(n, ".", "")
	}

	v, err := strconv.ParseFloat(n, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// ParseCurrency returns s as an ISO 4217 code, or empty string.
func ParseCurrency(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return ""
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return s
}
