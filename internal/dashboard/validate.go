package dashboard

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ManualTaskForm is the manual task creation form
type ManualTaskForm struct {
	Subject     string `form:"mtask_subject" validate:"required,max=100"`
	Description string `form:"mtask_description" validate:"max=10000"`
}

// PriorityForm carries a requested task priority
type PriorityForm struct {
	Priority int `form:"priority" validate:"min=-2,max=1"`
}

type formValidator struct {
	v     *validator.Validate
	trans ut.Translator
}

func newFormValidator() *formValidator {
	enLoc := en.New()
	trans, _ := ut.New(enLoc, enLoc).GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())

	// form field names in messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	return &formValidator{v: v, trans: trans}
}

// check validates a form and maps failures to ErrInvalid with the first
// translated field message
func (f *formValidator) check(form any) error {
	err := f.v.Struct(form)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, verrs[0].Translate(f.trans))
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}
