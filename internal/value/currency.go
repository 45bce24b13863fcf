package value

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/currency"
)

var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"¥": "JPY",
	"₽": "RUB",
	"₹": "INR",
	"₩": "KRW",
	"₴": "UAH",
	"₸": "KZT",
}

// ParseCurrency recognizes "$12.50", "12.50 EUR", "USD 12.50" and "1 200,50 ₽".
// Codes must be valid ISO 4217 units.
func ParseCurrency(s string) (*Currency, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil, false
	}

	body := raw
	neg := false
	if strings.HasPrefix(body, "-") {
		neg = true
		body = strings.TrimSpace(body[1:])
	}

	code, amount, ok := splitCurrency(body)
	if !ok {
		return nil, false
	}
	n, ok := parseAmount(amount)
	if !ok {
		return nil, false
	}
	if neg {
		n = -n
	}
	return &Currency{Raw: raw, Amount: n, Code: code}, true
}

func splitCurrency(body string) (code, amount string, ok bool) {
	for sym, iso := range currencySymbols {
		if strings.HasPrefix(body, sym) {
			return iso, strings.TrimSpace(strings.TrimPrefix(body, sym)), true
		}
		if strings.HasSuffix(body, sym) {
			return iso, strings.TrimSpace(strings.TrimSuffix(body, sym)), true
		}
	}

	fields := strings.Fields(body)
	if len(fields) < 2 {
		return "", "", false
	}
	first, last := fields[0], fields[len(fields)-1]
	if unit, err := currency.ParseISO(last); err == nil && isLetters(last) {
		return unit.String(), strings.Join(fields[:len(fields)-1], ""), true
	}
	if unit, err := currency.ParseISO(first); err == nil && isLetters(first) {
		return unit.String(), strings.Join(fields[1:], ""), true
	}
	return "", "", false
}

func isLetters(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return 0, false
	}
	// a single comma with no dot is a decimal separator
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		parts := strings.SplitN(s, ",", 2)
		if len(parts[1]) != 3 {
			s = parts[0] + "." + parts[1]
		}
	}
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
