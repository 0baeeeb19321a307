package validators

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Cognito's default password policy accepts these as special characters.
var specialRegex = regexp.MustCompile(`[\\^$*.\[\]{}()?"!@#%&/\\,><':;|_~` + "`" + `=+\-]`)

// Register installs the custom tags used by the request contracts.
func Register(validate *validator.Validate) {
	_ = validate.RegisterValidation("hasupper", HasUpper)
	_ = validate.RegisterValidation("haslower", HasLower)
	_ = validate.RegisterValidation("hasdigit", HasDigit)
	_ = validate.RegisterValidation("hasspecial", HasSpecial)
}

// New returns a validator with all custom tags registered.
func New() *validator.Validate {
	validate := validator.New()
	Register(validate)
	return validate
}

func HasUpper(fl validator.FieldLevel) bool {
	return anyRune(fl, unicode.IsUpper)
}

func HasLower(fl validator.FieldLevel) bool {
	return anyRune(fl, unicode.IsLower)
}

func HasDigit(fl validator.FieldLevel) bool {
	return anyRune(fl, unicode.IsDigit)
}

func HasSpecial(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return specialRegex.MatchString(val)
}

func anyRune(fl validator.FieldLevel, pred func(rune) bool) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	for _, ch := range val {
		if pred(ch) {
			return true
		}
	}
	return false
}
