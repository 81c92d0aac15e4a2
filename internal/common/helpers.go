package common

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/model"
)

const (
	DefaultPIN      = "123456"
	CardValidityTTL = 365 * 24 * time.Hour
)

var (
	typeSeparators = regexp.MustCompile(`[\s-]+`)
	nonDigits      = regexp.MustCompile(`\D`)
	nonNumeric     = regexp.MustCompile(`[^0-9.,-]`)
)

// CanonicalType uppercases a credential type and turns spaces/hyphens into underscores.
// Example: CanonicalType(" pid-basis ") = "PID_BASIS"
func CanonicalType(t string) string {
	s := strings.ToUpper(strings.TrimSpace(t))
	return typeSeparators.ReplaceAllString(s, "_")
}

// NormalizePIN keeps the digits of a configured PIN, falling back to DefaultPIN
func NormalizePIN(pin string) string {
	digits := nonDigits.ReplaceAllString(pin, "")
	if digits == "" {
		return DefaultPIN
	}
	return digits
}

// FormatDate formats a timestamp as dd-mm-yyyy in local time
func FormatDate(ts model.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Time().Format("02-01-2006")
}

// FormatDateTime formats a timestamp as dd-mm-yyyy HH:MM in local time
func FormatDateTime(ts model.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Time().Format("02-01-2006 15:04")
}

// FormatRelativeTime describes how long ago ts was, relative to now
func FormatRelativeTime(ts model.Timestamp, now time.Time) string {
	if ts.IsZero() {
		return ""
	}
	diff := now.Sub(ts.Time())
	switch {
	case diff < 45*time.Second:
		return "just now"
	case diff < 90*time.Second:
		return "1 min ago"
	case diff < time.Hour:
		return fmt.Sprintf("%d min ago", int(math.Round(diff.Minutes())))
	case diff < 2*time.Hour:
		return "1 hour ago"
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(math.Round(diff.Hours())))
	}
	return FormatDateTime(ts)
}

// FormatCurrencyEUR formats a number or numeric string as whole euros.
// Example: FormatCurrencyEUR("45000,50") = "€ 45.001"
func FormatCurrencyEUR(v any) string {
	var n float64
	switch val := v.(type) {
	case float64:
		n = val
	case int:
		n = float64(val)
	case int64:
		n = float64(val)
	case string:
		s := nonNumeric.ReplaceAllString(val, "")
		s = strings.Replace(s, ",", ".", 1)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return ""
		}
		n = f
	default:
		return ""
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return ""
	}
	rounded := int64(math.Round(n))
	sign := ""
	if rounded < 0 {
		sign = "-"
		rounded = -rounded
	}
	return "€ " + sign + groupThousands(uint64(rounded))
}

// groupThousands inserts a dot every three digits from the right
// Example: groupThousands(1234567) = "1.234.567"
func groupThousands(value uint64) string {
	s := strconv.FormatUint(value, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// HumanList joins items as "a, b and c", skipping blanks
func HumanList(items []string) string {
	list := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			list = append(list, s)
		}
	}
	switch len(list) {
	case 0:
		return ""
	case 1:
		return list[0]
	case 2:
		return list[0] + " and " + list[1]
	}
	return strings.Join(list[:len(list)-1], ", ") + " and " + list[len(list)-1]
}

// NormalizeID trims a session or card identifier
func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}
