package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

var (
	instance *validator.Validate
	once     sync.Once

	keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)
)

// Get returns the shared validator with the engine's custom tags registered
func Get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("key", validateKey)
		instance = v
	})
	return instance
}

// ValidateStruct validates a struct by its tags. Failures wrap domain.ErrInvalidInput.
func ValidateStruct(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	fields := FormatValidationError(err)
	parts := make([]string, 0, len(fields))
	for field, msg := range fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(parts, "; "))
}

// FormatValidationError formats validation errors into a user-friendly map
// keyed by the lower-cased field namespace
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = "Invalid request format"
		return errs
	}

	for _, e := range validationErrors {
		field := fieldName(e)
		switch e.Tag() {
		case "required", "required_if":
			errs[field] = "This field is required"
		case "max":
			errs[field] = fmt.Sprintf("Must be at most %s", e.Param())
		case "min":
			errs[field] = fmt.Sprintf("Must be at least %s", e.Param())
		case "oneof":
			errs[field] = fmt.Sprintf("Must be one of: %s", e.Param())
		case "key":
			errs[field] = "Must be lowercase letters, digits, '_', '-' or '.'"
		default:
			errs[field] = "Invalid value"
		}
	}

	return errs
}

// jsonFieldName reports fields by their JSON name so messages match request bodies
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// fieldName drops the top-level struct name from the namespace,
// e.g. "Quest.requirements[0].target" -> "requirements[0].target"
func fieldName(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

// validateKey accepts lowercase identifiers used for codes and item keys.
// Empty values pass so optional fields can use the tag.
func validateKey(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || keyPattern.MatchString(s)
}
