// Package validate checks engine options against their struct tags before
// any request is made.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var ErrInvalidParameter = errors.New("invalid parameter")

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("validate: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	// report fields by their option name
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("opt")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

// FieldError is a single rejected option.
type FieldError struct {
	Field string
	Err   string
}

// FieldErrors is returned by Struct. It matches ErrInvalidParameter with
// errors.Is.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return fmt.Sprintf("%s: %s", ErrInvalidParameter, strings.Join(parts, "; "))
}

func (fe FieldErrors) Is(target error) bool {
	return target == ErrInvalidParameter
}

// Struct validates val against its `validate` tags.
func Struct(val any) error {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}
	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) {
		return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	fields := make(FieldErrors, 0, len(verrors))
	for _, verror := range verrors {
		fields = append(fields, FieldError{
			Field: verror.Field(),
			Err:   verror.Translate(translator),
		})
	}
	return fields
}
