package validation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Custom validator tags registered on the shared instance.
const (
	TagPhone              = "br_phone"
	TagLetters            = "letters"
	TagPasswordComplexity = "password_complexity"
	TagPositiveAmount     = "positive_amount"
)

// DateTimeLayout is the layout of an HTML datetime-local input.
const DateTimeLayout = "2006-01-02T15:04"

var (
	phonePattern   = regexp.MustCompile(`^\(\d{2}\)\s?\d{4,5}-?\d{4}$`)
	lettersPattern = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s]+$`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	digitPattern   = regexp.MustCompile(`\d`)
	symbolPattern  = regexp.MustCompile(`[^a-zA-Z\d]`)
)

// validate is safe for concurrent use once the custom tags are registered.
var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	mustRegister(v, TagPhone, matches(phonePattern))
	mustRegister(v, TagLetters, matches(lettersPattern))
	mustRegister(v, TagPasswordComplexity, func(fl validator.FieldLevel) bool {
		return hasPasswordComplexity(fl.Field().String())
	})
	mustRegister(v, TagPositiveAmount, func(fl validator.FieldLevel) bool {
		amount, ok := ParseAmount(fl.Field().String())
		return ok && amount > 0
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("validation: register " + tag + ": " + err.Error())
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func hasPasswordComplexity(s string) bool {
	return lowerPattern.MatchString(s) && upperPattern.MatchString(s) && digitPattern.MatchString(s)
}

// ParseAmount parses a money amount typed as "150.00" or "150,00".
func ParseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

// Tag builds a rule from a go-playground/validator tag expression.
func Tag(tag, message string) Rule {
	return Rule{
		Message: message,
		check: func(value string) bool {
			return validate.Var(value, tag) == nil
		},
	}
}

// Required fails when the value is empty after trimming whitespace.
func Required(message string) Rule {
	return Rule{
		Message: message,
		check: func(value string) bool {
			return strings.TrimSpace(value) != ""
		},
	}
}

// Min fails when the value has fewer than n characters.
func Min(n int, message string) Rule {
	return Tag("min="+strconv.Itoa(n), message)
}

// Max fails when the value has more than n characters.
func Max(n int, message string) Rule {
	return Tag("max="+strconv.Itoa(n), message)
}

// Len fails unless the value has exactly n characters.
func Len(n int, message string) Rule {
	return Tag("len="+strconv.Itoa(n), message)
}

// Email fails unless the value is an email address.
func Email(message string) Rule {
	return Tag("email", message)
}

// Pattern fails unless re matches the value.
func Pattern(re *regexp.Regexp, message string) Rule {
	return Rule{
		Message: message,
		check:   re.MatchString,
	}
}

// EqualTo requires field to hold the same value as other. The message is
// reported on field.
func EqualTo(field, other, message string) CrossRule {
	return CrossRule{
		Field:   field,
		Other:   other,
		Message: message,
		check: func(value, otherValue string) bool {
			return validate.VarWithValue(value, otherValue, "eqfield") == nil
		},
	}
}
