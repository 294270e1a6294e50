package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FieldValidator is a pure predicate over a field's current value. A nil
// return means valid; the error text becomes the field's validity message.
// Every validator treats the empty string as valid — required-ness is the
// form's concern, not the field's.
type FieldValidator func(value string) error

const (
	maxMoneyAmount = 999999.99
	maxPriority    = 999
	dateLayout     = "2006-01-02"
)

var couponFormat = regexp.MustCompile(`^[A-Z0-9]*$`)

// NormalizeCoupon uppercases a coupon code and strips all whitespace. The
// code field applies it on every keystroke before validation runs.
func NormalizeCoupon(code string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, strings.ToUpper(code))
}

// ValidJSON accepts any parseable JSON document. Used by the address and
// configuration snapshot textareas.
func ValidJSON(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if !json.Valid([]byte(value)) {
		return errors.New("must be valid JSON")
	}
	return nil
}

// ValidMoney bounds a monetary field to [0, 999999.99].
func ValidMoney(value string) error {
	if value == "" {
		return nil
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return errors.New("must be a number")
	}
	return validation.Validate(amount,
		validation.Min(0.0).Error("cannot be negative"),
		validation.Max(maxMoneyAmount).Error("amount is too large"),
	)
}

// ValidPercentage bounds a percentage field to [0, 100]. Promotion value
// fields switch between this and ValidMoney by promotion type.
func ValidPercentage(value string) error {
	if value == "" {
		return nil
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return errors.New("must be a number")
	}
	return validation.Validate(amount,
		validation.Min(0.0).Error("cannot be negative"),
		validation.Max(100.0).Error("cannot exceed 100"),
	)
}

// PromotionValueValidator picks the value-field validator for a promotion
// type: percentage types cap the value at 100, fixed types only bound the
// magnitude.
func PromotionValueValidator(promotionType string) FieldValidator {
	if strings.Contains(promotionType, "PERCENTAGE") {
		return ValidPercentage
	}
	return ValidMoney
}

// ValidPriority bounds a priority field to [0, 999].
func ValidPriority(value string) error {
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return errors.New("must be an integer")
	}
	return validation.Validate(n,
		validation.Min(0).Error("cannot be negative"),
		validation.Max(maxPriority).Error(fmt.Sprintf("cannot exceed %d", maxPriority)),
	)
}

// ValidCoupon checks a normalized coupon code: uppercase letters and digits
// only. Callers run NormalizeCoupon first.
func ValidCoupon(code string) error {
	if code == "" {
		return nil
	}
	return validation.Validate(code,
		validation.Match(couponFormat).Error("code may only contain letters and numbers"),
	)
}

// ValidDatePair checks chronological ordering of a start/end date pair. The
// error belongs to the end field; either side empty is valid.
func ValidDatePair(start, end string) error {
	if start == "" || end == "" {
		return nil
	}
	startAt, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil
	}
	endAt, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil
	}
	if !endAt.After(startAt) {
		return errors.New("end date must be after the start date")
	}
	return nil
}

// ValidUsageLimit checks the total usage limit field: a non-negative integer.
func ValidUsageLimit(value string) error {
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return errors.New("must be an integer")
	}
	return validation.Validate(n, validation.Min(0).Error("cannot be negative"))
}

// ValidLimitPerUser checks the per-user limit against the total limit: both
// non-negative, and per-user never above total when both are set.
func ValidLimitPerUser(perUser, total string) error {
	if perUser == "" {
		return nil
	}
	n, err := strconv.Atoi(perUser)
	if err != nil {
		return errors.New("must be an integer")
	}
	if err := validation.Validate(n, validation.Min(0).Error("cannot be negative")); err != nil {
		return err
	}
	if total == "" {
		return nil
	}
	totalLimit, err := strconv.Atoi(total)
	if err != nil {
		return nil
	}
	if n > totalLimit {
		return errors.New("per-user limit cannot exceed the total limit")
	}
	return nil
}
