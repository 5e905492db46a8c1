package domain

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

// BookingRequest is the payload of a booking submission.
type BookingRequest struct {
	ExpertID string `json:"expertId" validate:"required"`
	UserName string `json:"userName" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,phone"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot string `json:"timeSlot" validate:"required"`
	Notes    string `json:"notes" validate:"max=500"`
}

var phonePattern = regexp.MustCompile(`^\+?[\d\s\-().]{7,17}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidationError carries one message per offending field, keyed by the
// field's JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Normalize trims user input and converts DD-MM-YYYY dates to ISO form.
func (r BookingRequest) Normalize() BookingRequest {
	r.UserName = strings.TrimSpace(r.UserName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Date = ToISODate(strings.TrimSpace(r.Date))
	r.TimeSlot = strings.TrimSpace(r.TimeSlot)
	return r
}

// Validate checks the request against today's date in the caller's clock.
func (r BookingRequest) Validate(now time.Time) error {
	r = r.Normalize()
	fields := map[string]string{}

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			name := jsonFieldName(fe.StructField())
			if _, seen := fields[name]; !seen {
				fields[name] = fieldMessage(fe)
			}
		}
	}

	if _, bad := fields["date"]; !bad && r.Date < now.Format(DateLayout) {
		fields["date"] = "Date must be today or in the future"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

var isoDDMMYYYY = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)

func ToISODate(value string) string {
	if m := isoDDMMYYYY.FindStringSubmatch(value); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	return value
}

func jsonFieldName(structField string) string {
	switch structField {
	case "ExpertID":
		return "expertId"
	case "UserName":
		return "userName"
	case "TimeSlot":
		return "timeSlot"
	default:
		return strings.ToLower(structField)
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.StructField() {
	case "ExpertID":
		return "Expert is required"
	case "UserName":
		if fe.Tag() == "required" {
			return "Full name is required"
		}
		return "Name must be at least 2 characters"
	case "Email":
		if fe.Tag() == "required" {
			return "Email is required"
		}
		return "Enter a valid email address"
	case "Phone":
		if fe.Tag() == "required" {
			return "Phone number is required"
		}
		return "Enter a valid phone number (e.g. +91 98765 43210)"
	case "Date":
		if fe.Tag() == "required" {
			return "Date is required"
		}
		return "Date must use the YYYY-MM-DD format"
	case "TimeSlot":
		return "Please select a time slot"
	case "Notes":
		return "Notes must be under 500 characters"
	}
	return fe.Error()
}

// ValidEmail reports whether value is an acceptable booking lookup address.
func ValidEmail(value string) bool {
	return validate.Var(strings.TrimSpace(value), "required,email") == nil
}
