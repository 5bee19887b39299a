package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		return entity.TaskStatus(fl.Field().String()).Valid()
	})
	return v
}

var validationMessages = map[string]string{
	"required":   "The field '%s' is required.",
	"min":        "The field '%s' must be at least %s characters long.",
	"max":        "The field '%s' must be no longer than %s characters.",
	"taskstatus": "The field '%s' must be one of 'To Do', 'In Progress', 'Done'.",
}

// validateRequest checks the validate tags of a request DTO and folds every failure into
// one ErrInvalidInput.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		messages = append(messages, fieldMessage(e))
	}
	sort.Strings(messages)

	return fmt.Errorf("%w: %s", entity.ErrInvalidInput, strings.Join(messages, " "))
}

func fieldMessage(e validator.FieldError) string {
	msg, ok := validationMessages[e.Tag()]
	if !ok {
		return fmt.Sprintf("Field '%s' is invalid: %s.", e.Field(), e.Tag())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, e.Field(), e.Param())
	}
	return fmt.Sprintf(msg, e.Field())
}
