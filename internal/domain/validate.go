package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *govalidator.Validate {
	v := govalidator.New()
	// Report fields by their data-file names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateQuestions checks every question of a set and rejects an empty set.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return ErrEmptyQuestionSet
	}
	for i, q := range questions {
		if err := validate.Struct(q); err != nil {
			return fmt.Errorf("%w: question %d: %s", ErrInvalidQuestion, i+1, describe(err))
		}
		if q.CorrectAnswer >= len(q.Options) {
			return fmt.Errorf("%w: question %d: correctAnswer %d outside %d options",
				ErrInvalidQuestion, i+1, q.CorrectAnswer, len(q.Options))
		}
	}
	return nil
}

func describe(err error) string {
	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
