package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the only accepted execute_by format.
const DateLayout = "2006-01-02"

// Supported currency codes
var supportedCurrencies = map[string]bool{
	"NGN": true,
	"USD": true,
	"GBP": true,
	"GHS": true,
}

// ValidateAmount parses an amount token. Only unsigned digit strings with a
// value above zero are accepted.
func ValidateAmount(token string) (decimal.Decimal, error) {
	if token == "" || !isDigits(token) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, token)
	}

	amount, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, token)
	}

	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, token)
	}

	return amount, nil
}

// ValidateCurrency returns the uppercased currency code if it is supported.
func ValidateCurrency(token string) (string, error) {
	currency := strings.ToUpper(token)

	if !supportedCurrencies[currency] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}

	return currency, nil
}

// ValidateAccountID checks that id is non-empty and made of ASCII letters,
// digits, '-', '.' or '@'.
func ValidateAccountID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAccountID)
	}

	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c == '-', c == '.', c == '@':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidAccountID, id)
		}
	}

	return nil
}

// ValidateDate parses a YYYY-MM-DD calendar date.
func ValidateDate(s string) (time.Time, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}

	for _, p := range parts {
		if !isDigits(p) {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
		}
	}

	year, month, day := atoi(parts[0]), atoi(parts[1]), atoi(parts[2])
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDateFormat, month)
	}

	if day < 1 || day > daysInMonth(year, month) {
		return time.Time{}, fmt.Errorf("%w: day %d out of range", ErrInvalidDateFormat, day)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// CompareDate orders two calendar dates by year, then month, then day,
// ignoring time of day and location. It returns -1, 0 or 1.
func CompareDate(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	switch {
	case ay != by:
		return sign(ay - by)
	case am != bm:
		return sign(int(am) - int(bm))
	default:
		return sign(ad - bd)
	}
}

func isLeapYear(y int) bool {
	if y%400 == 0 {
		return true
	}
	if y%100 == 0 {
		return false
	}
	return y%4 == 0
}

func daysInMonth(year, month int) int {
	switch month {
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// atoi converts a short string already checked by isDigits.
func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
