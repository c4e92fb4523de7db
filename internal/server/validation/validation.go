// Package validation holds the shared validator instance and its English
// translations. Field errors are keyed by the json tag of the field.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags
	notBlankTag        = "notblank"
	institutionCodeTag = "institution_code"
	// maxBytesTag bounds the UTF-8 length, e.g. maxbytes=72 for bcrypt input.
	maxBytesTag = "maxbytes"

	institutionCodeRegex = regexp.MustCompile(`^[a-z0-9]{8}$`)
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = Validate.RegisterValidation(institutionCodeTag, institutionCodeValidation)
	_ = Validate.RegisterValidation(maxBytesTag, maxBytesValidation)

	registerCustomValidationsTranslations(notBlankTag, institutionCodeTag, maxBytesTag)
}

// registerCustomValidationsTranslations registers messages for the custom
// tags. The register func is a noop because the default translations are
// already in place.
func registerCustomValidationsTranslations(tags ...string) {
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range tags {
		_ = Validate.RegisterTranslation(tag, Translator, registerFn, translateCustomValidationErrs)
	}
}

func translateCustomValidationErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return "this field cannot be blank"
	case institutionCodeTag:
		return "institution code must be 8 lowercase letters or digits"
	case maxBytesTag:
		return "this field must be at most " + fe.Param() + " bytes long"
	default:
		return ""
	}
}

// IsInstitutionCode reports whether code has the shape of an institution
// code. It says nothing about whether such an institution exists.
func IsInstitutionCode(code string) bool {
	return institutionCodeRegex.MatchString(code)
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func institutionCodeValidation(fl validator.FieldLevel) bool {
	return IsInstitutionCode(fl.Field().String())
}

func maxBytesValidation(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// FieldErrors translates validator errors into field -> message. It returns
// nil when err is not a validator.ValidationErrors.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Translate(Translator)
	}
	return out
}
