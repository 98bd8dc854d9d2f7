package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/service"
)

// Error details returned to clients.
const (
	detailInternal      = "Internal error"
	detailIncorrectData = "Incorrect data"
	detailBodyTooLarge  = "Request body too large"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	// Manager errors are checked first: a stored row with a bad status is a
	// data fault, not a client error.
	switch {
	case errors.Is(err, service.ErrData):
		return http.StatusNotFound

	case errors.Is(err, service.ErrManager):
		return http.StatusInternalServerError

	case isBodyTooLarge(err):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidTaskStatus),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	switch MapErrorToStatusCode(err) {
	case http.StatusUnprocessableEntity:
		return SanitizeValidationError(err)
	case http.StatusNotFound:
		return detailIncorrectData
	case http.StatusRequestEntityTooLarge:
		return detailBodyTooLarge
	default:
		return detailInternal
	}
}

// SanitizeValidationError turns a request decoding or validation failure into
// a message that names the offending field without echoing internals.
func SanitizeValidationError(err error) string {
	var (
		validationErrs validator.ValidationErrors
		syntaxErr      *json.SyntaxError
		typeErr        *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &validationErrs) && len(validationErrs) > 0:
		fe := validationErrs[0]
		return fmt.Sprintf("Invalid %s: %s", jsonFieldName(fe.Field()), getValidationTagMessage(fe.Tag()))

	case errors.Is(err, domain.ErrInvalidTaskStatus):
		return "Invalid status: must be one of " + joinStatuses()

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid task_id: must be an integer"

	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"

	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return fmt.Sprintf("Invalid %s: expected %s", typeErr.Field, typeErr.Type.Kind())
		}
		return "Invalid JSON body"

	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return "Invalid JSON body"
	}

	// Fall back to a generic validation error message
	return "Validation error"
}

// HandleAPIError writes the error response matching err and logs the
// underlying error.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

// invalidRequest marks a decoding or validation failure.
func invalidRequest(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrValidation, err)
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

func jsonFieldName(field string) string {
	return strings.ToLower(field)
}

func joinStatuses() string {
	names := make([]string, len(domain.TaskStatuses))
	for i, s := range domain.TaskStatuses {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}
