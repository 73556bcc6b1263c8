package web

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/adamwoolhether/crpt/web/errs"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("web: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	// Report fields by their json or yaml name so messages match what the
	// caller actually sent.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "yaml"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			switch name {
			case "-":
				return ""
			case "":
				continue
			default:
				return name
			}
		}
		return fld.Name
	})
}

// Validate checks val against its validate tags. Failures are returned
// as [errs.FieldErrors] keyed by the field's json or yaml name.
func Validate(val any) error {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}

	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) {
		return err
	}

	fields := make(errs.FieldErrors, 0, len(verrors))
	for _, verror := range verrors {
		fields = append(fields, errs.FieldError{
			Field: fieldPath(verror),
			Err:   customErrForTag(verror.Tag(), verror),
		})
	}

	return fields
}

// fieldPath drops the root struct name from the namespace, leaving a
// dotted path such as "throttle.capacity".
func fieldPath(verror validator.FieldError) string {
	_, rest, ok := strings.Cut(verror.Namespace(), ".")
	if !ok {
		return verror.Field()
	}
	return rest
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required":
		return "This field is required"
	default:
		return verror.Translate(translator)
	}
}
