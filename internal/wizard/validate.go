package wizard

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// JobInput picks an existing job by ID, or describes a new one.
type JobInput struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"omitempty,min=3"`
	Description string `json:"description" validate:"omitempty,min=10"`
}

type InterviewInput struct {
	Interviewers    []string  `json:"interviewer" validate:"required,min=1,dive,required"`
	BusinessArea    string    `json:"business_area"`
	Job             string    `json:"job"`
	DateTime        time.Time `json:"date_time" validate:"required"`
	DurationMinutes int       `json:"duration" validate:"gte=0"`
	Location        string    `json:"location"`
	Notes           string    `json:"notes"`
}

// IntervieweeInput picks an existing interviewee by ID, or describes a new
// one.
type IntervieweeInput struct {
	ID       string `json:"interviewee_id"`
	Name     string `json:"interviewee_name"`
	Email    string `json:"interviewee_email" validate:"omitempty,email"`
	Comments string `json:"comments"`
}

// ValidationError maps field names to a human message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "wizard: invalid input: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() func(any) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(JobInput)
		if in.ID != "" {
			return
		}
		if in.Title == "" {
			sl.ReportError(in.Title, "title", "Title", "required_without_id", "")
		}
		if in.Description == "" {
			sl.ReportError(in.Description, "description", "Description", "required_without_id", "")
		}
	}, JobInput{})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(IntervieweeInput)
		if in.ID != "" {
			return
		}
		if in.Name == "" {
			sl.ReportError(in.Name, "interviewee_name", "Name", "required_without_id", "")
		}
		if in.Email == "" {
			sl.ReportError(in.Email, "interviewee_email", "Email", "required_without_id", "")
		}
	}, IntervieweeInput{})

	return func(in any) error {
		err := v.Struct(in)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		out := &ValidationError{Fields: make(map[string]string, len(verrs))}
		for _, fe := range verrs {
			out.Fields[fe.Field()] = message(fe)
		}
		return out
	}
}

func message(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Interviewers":
		return "at least one interviewer is required"
	case "DateTime":
		return "date and time are required"
	}
	switch fe.Tag() {
	case "required_without_id":
		return "required unless an existing record is picked"
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "email":
		return "must be a valid email"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	}
	return "invalid (" + fe.Tag() + ")"
}
