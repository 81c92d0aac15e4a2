package common

import (
	"testing"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalType(t *testing.T) {
	tests := map[string]string{
		"pid":              "PID",
		" pid-basis ":      "PID_BASIS",
		"nvm lidmaatschap": "NVM_LIDMAATSCHAP",
		"a -  b":           "A_B",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CanonicalType(in), "input %q", in)
	}
}

func TestNormalizePIN(t *testing.T) {
	assert.Equal(t, "123456", NormalizePIN(""))
	assert.Equal(t, "123456", NormalizePIN("abc"))
	assert.Equal(t, "2468", NormalizePIN(" 24-68 "))
}

func TestFormatCurrencyEUR(t *testing.T) {
	assert.Equal(t, "€ 45.000", FormatCurrencyEUR(45000.0))
	assert.Equal(t, "€ 1.234.568", FormatCurrencyEUR("1234567,6"))
	assert.Equal(t, "€ 999", FormatCurrencyEUR(999))
	assert.Equal(t, "€ -1.500", FormatCurrencyEUR(int64(-1500)))
	assert.Equal(t, "", FormatCurrencyEUR("n/a"))
	assert.Equal(t, "", FormatCurrencyEUR(true))
}

func TestHumanList(t *testing.T) {
	assert.Equal(t, "", HumanList(nil))
	assert.Equal(t, "name", HumanList([]string{"name", " "}))
	assert.Equal(t, "name and bsn", HumanList([]string{"name", "bsn"}))
	assert.Equal(t, "a, b and c", HumanList([]string{"a", "b", "c"}))
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	ago := func(d time.Duration) model.Timestamp { return model.NewTimestamp(now.Add(-d)) }

	assert.Equal(t, "", FormatRelativeTime(0, now))
	assert.Equal(t, "just now", FormatRelativeTime(ago(10*time.Second), now))
	assert.Equal(t, "1 min ago", FormatRelativeTime(ago(60*time.Second), now))
	assert.Equal(t, "12 min ago", FormatRelativeTime(ago(12*time.Minute), now))
	assert.Equal(t, "1 hour ago", FormatRelativeTime(ago(90*time.Minute), now))
	assert.Equal(t, "5 hours ago", FormatRelativeTime(ago(5*time.Hour), now))
	assert.Equal(t, "27-02-2026 12:00", FormatRelativeTime(ago(48*time.Hour), now))
}

func TestFormatDate(t *testing.T) {
	ts := model.NewTimestamp(time.Date(2024, 7, 9, 8, 5, 0, 0, time.Local))
	assert.Equal(t, "09-07-2024", FormatDate(ts))
	assert.Equal(t, "09-07-2024 08:05", FormatDateTime(ts))
	assert.Equal(t, "", FormatDate(0))
}
