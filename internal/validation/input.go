package validation

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/antonkudinov/linkmarket-backend/internal/pkg/apperror"
)

// Константы валидации
const (
	MinAnchorTextLength         = 1
	MaxAnchorTextLength         = 200
	MaxListingReferenceLength   = 200
	MinDisputeDescriptionLength = 10
	MaxDisputeDescriptionLength = 5000
	MaxMessageLength            = 5000
	MaxURLLength                = 2000
	MinDurationDays             = 1
	MaxDurationDays             = 3650
	MaxMoneyFractionDigits      = 2
)

// MaxAmount — верхняя граница любой денежной суммы (100 миллионов).
var MaxAmount = decimal.NewFromInt(100_000_000)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return apperror.New(apperror.ErrCodeValidation, fieldName+" слишком короткий")
	}
	if max > 0 && length > max {
		return apperror.New(apperror.ErrCodeValidation, fieldName+" слишком длинный")
	}
	return nil
}

// ValidateAbsoluteURL проверяет, что строка — корректный абсолютный
// http(s) URL с хостом.
func ValidateAbsoluteURL(fieldName, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return apperror.New(apperror.ErrCodeValidation, fieldName+" обязателен")
	}
	if utf8.RuneCountInString(raw) > MaxURLLength {
		return apperror.New(apperror.ErrCodeValidation, fieldName+" слишком длинный")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, fieldName+" не является корректным URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return apperror.New(apperror.ErrCodeValidation, fieldName+" должен начинаться с http:// или https://")
	}
	if parsed.Host == "" {
		return apperror.New(apperror.ErrCodeValidation, fieldName+" должен быть абсолютным URL")
	}
	return nil
}

// ValidateAmount проверяет денежную сумму: строго положительная,
// не больше MaxAmount, не более двух знаков после запятой.
func ValidateAmount(fieldName string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return apperror.New(apperror.ErrCodeValidation, fieldName+" должна быть положительной")
	}
	if amount.GreaterThan(MaxAmount) {
		return apperror.New(apperror.ErrCodeValidation, fieldName+" превышает допустимый максимум")
	}
	if amount.Exponent() < -MaxMoneyFractionDigits {
		return apperror.New(apperror.ErrCodeValidation, fieldName+" не может содержать более двух знаков после запятой")
	}
	return nil
}

// ValidateDuration проверяет срок размещения в днях.
func ValidateDuration(days int) error {
	if days < MinDurationDays || days > MaxDurationDays {
		return apperror.New(apperror.ErrCodeValidation, "срок размещения должен быть от 1 до 3650 дней")
	}
	return nil
}
