package menu

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Money is an amount in cents. Prices and totals are summed exactly as
// integers and only rendered as decimals at the edges (JSON, YAML, logs).
type Money int64

// Cents builds a Money value from an integer number of cents.
func Cents(c int64) Money { return Money(c) }

// ParseMoney parses a decimal dollar amount such as "3.49", "3.5" or "14".
// At most two fraction digits are accepted.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("menu: empty amount")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, fmt.Errorf("menu: invalid amount %q", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("menu: invalid amount %q", s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("menu: invalid amount %q", s)
	}

	m := Money(w*100 + f)
	if neg {
		m = -m
	}
	return m, nil
}

// Times multiplies the amount by a quantity.
func (m Money) Times(qty int) Money { return m * Money(qty) }

// Float64 returns the amount in dollars. Use for display only.
func (m Money) Float64() float64 { return float64(m) / 100 }

// String renders the amount as dollars with two decimals, e.g. "6.68".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if raw == "null" || raw == "" {
		*m = 0
		return nil
	}
	v, err := ParseMoney(raw)
	if err == nil {
		*m = v
		return nil
	}
	// Exponent or long-fraction forms from other encoders.
	f, ferr := strconv.ParseFloat(raw, 64)
	if ferr != nil {
		return err
	}
	*m = Money(math.Round(f * 100))
	return nil
}

// UnmarshalYAML parses the literal scalar so no float rounding happens.
func (m *Money) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseMoney(node.Value)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
