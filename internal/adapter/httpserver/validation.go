package httpserver

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	structV       *validator.Validate
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		structV = validator.New(validator.WithRequiredStructEnabled())
		// Report wire field names, not Go struct names.
		structV.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return structV
}

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult represents the result of validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

var (
	validSessionID   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	sessionIDStripRe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// ValidateSessionID validates a chat conversation id.
func ValidateSessionID(id string) ValidationResult {
	if id == "" {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "conversation_id", Code: "REQUIRED", Message: "Conversation ID is required"},
			},
		}
	}
	if len(id) > 100 {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "conversation_id", Code: "TOO_LONG", Message: "Conversation ID is too long (max 100 characters)"},
			},
		}
	}
	if !validSessionID.MatchString(id) {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "conversation_id", Code: "INVALID_FORMAT", Message: "Conversation ID contains invalid characters"},
			},
		}
	}
	return ValidationResult{Valid: true}
}

// SanitizeString trims, strips control bytes, and bounds a free-form input.
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)
	if len(input) > 1000 {
		input = input[:1000]
	}
	if !utf8.ValidString(input) {
		input = strings.ToValidUTF8(input, "")
	}
	return input
}

// SanitizeSessionID strips anything outside the session id alphabet.
func SanitizeSessionID(id string) string {
	id = sessionIDStripRe.ReplaceAllString(id, "")
	if len(id) > 100 {
		id = id[:100]
	}
	return id
}
