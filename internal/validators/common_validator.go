package validators

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"shuttle/internal/models"
	"shuttle/internal/utils"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9\s\-]{6,19}$`)

// Register installs the booking tags on v.
func Register(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"location":     validateLocation,
		"vehicletype":  validateVehicleType,
		"isodate":      validateISODate,
		"phone_number": validatePhoneNumber,
	}
	v.RegisterTagNameFunc(fieldName)
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

// fieldName reports errors under the json or form name clients send.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return ""
}

// RegisterWithGin installs the booking tags on gin's binding engine so
// ShouldBindJSON enforces them.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return Register(v)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Details flattens the errors into the field -> message map the API
// envelope carries.
func (v ValidationErrors) Details() map[string]string {
	details := make(map[string]string, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

// FromBindingError converts a binding failure into field errors. It returns
// nil when err is not a validation failure, e.g. malformed JSON.
func FromBindingError(err error) ValidationErrors {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return nil
	}

	validationErrors := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: getErrorMessage(fe),
		})
	}
	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", err.Field(), err.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", err.Field(), err.Param())
	case "location":
		return "Location is not served"
	case "vehicletype":
		return "Unknown vehicle type"
	case "isodate":
		return "Date must be in yyyy-mm-dd format"
	case "phone_number":
		return "Invalid phone number format"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

func validateLocation(fl validator.FieldLevel) bool {
	return models.IsServedLocation(fl.Field().String())
}

func validateVehicleType(fl validator.FieldLevel) bool {
	_, ok := models.LookupVehicleType(fl.Field().String())
	return ok
}

func validateISODate(fl validator.FieldLevel) bool {
	return utils.IsValidDate(fl.Field().String())
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return true
	}
	return phoneRegex.MatchString(phone)
}

// SanitizeInput strips markup and surrounding whitespace from free text.
func SanitizeInput(input string) string {
	htmlRegex := regexp.MustCompile(`<[^>]*>`)
	cleaned := htmlRegex.ReplaceAllString(input, "")
	return strings.TrimSpace(cleaned)
}
