package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse abstracts all API error responses to the user.
//
// This interface does not implement `error`, since its only purpose
// is to be used for API responses and not for logging circumstances.
//
// In general, the whole ErrorResponse can be sent for serialization.
type ErrorResponse interface {
	// Code is the HTTP status code to be returned.
	Code() int
}

type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (a *APIError) Code() int {
	return a.Status
}

type StructuredError struct {
	Errors map[string][]string `json:"errors"`
	Status int                 `json:"-"`
}

func (s *StructuredError) Code() int {
	return s.Status
}

func (s *StructuredError) Add(field, problem string) {
	s.Errors[field] = append(s.Errors[field], problem)
}

// First returns the first problem reported for field, or "".
func (s *StructuredError) First(field string) string {
	if problems := s.Errors[field]; len(problems) > 0 {
		return problems[0]
	}
	return ""
}

var (
	MalformedBodyError    = NewSimple(400, "Malformed request body")
	InternalServerError   = NewSimple(500, "Internal server error")
	NotFoundError         = NewSimple(404, "Resource not found")
	InvalidMediaTypeError = NewSimple(415, "Unsupported media type, expected JSON or multipart form")

	UnauthorizedError     = NewSimple(401, "Unauthorized")
	InvalidAuthTokenError = NewSimple(401, "Invalid or expired authorization token")
	MissingAccessError    = NewSimple(403, "Missing access")

	MissingFileNameError     = NewSimple(400, "Attached file has no name")
	NoteImageNotFoundError   = NewSimple(404, "Note has no image attached")
	MissingConnectionIDError = NewSimple(400, "Missing connection ID")

	/*
	 * Used for authentications
	 */
	UserAlreadyConfirmedError   = NewSimple(400, "User is already confirmed")
	UserAlreadyExistsError      = NewSimple(409, "User already exists")
	IDPInvalidPasswordError     = NewSimple(400, "Provided password does not meet requirements")
	IDPExistingEmailError       = NewSimple(400, "Email already exists")
	IDPUserNotFoundError        = NewSimple(404, "User not found")
	IDPUserNotConfirmedError    = NewSimple(400, "User is not confirmed yet")
	IDPCredentialsMismatchError = NewSimple(400, "Credentials mismatch")
	IDPConfirmCodeMismatchError = NewSimple(400, "Confirmation code mismatch")
	IDPConfirmCodeExpiredError  = NewSimple(400, "Confirmation code has expired")
	IDPInvalidParameterError    = NewSimple(400, "Invalid parameters provided, the user is likely already verified")
	IDPTooManyRequestsError     = NewSimple(429, "Too many attempts, try again later")
)

func FromValidationError(err error) *StructuredError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		malformed := NewStructured(http.StatusBadRequest)
		malformed.Add("request", "Invalid value provided")
		return malformed
	}

	problems := map[string][]string{}
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			problems[field] = append(problems[field], "This field is required")
		case "min":
			problems[field] = append(problems[field], "Value is too short, min: "+fe.Param())
		case "max":
			problems[field] = append(problems[field], "Value is too long, max: "+fe.Param())
		case "hasupper":
			problems[field] = append(problems[field], "Value must have at least one uppercase character")
		case "haslower":
			problems[field] = append(problems[field], "Value must have at least one lowercase character")
		case "hasdigit":
			problems[field] = append(problems[field], "Value must have at least one number")
		case "hasspecial":
			problems[field] = append(problems[field], "Value must have at least one special character")
		case "email":
			problems[field] = append(problems[field], "Value must be a valid email address")

		default:
			problems[field] = append(problems[field], "Invalid value provided")
		}
	}

	return &StructuredError{
		Errors: problems,
		Status: http.StatusBadRequest,
	}
}

func NewSimple(status int, msg string, args ...any) *APIError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &APIError{Status: status, Message: msg}
}

func NewStructured(code int) *StructuredError {
	return &StructuredError{
		Errors: make(map[string][]string),
		Status: code,
	}
}

func NewNoteContentTooLargeError(maxBytes int) *APIError {
	return NewSimple(http.StatusRequestEntityTooLarge, "File is too large, max: %d MiB", maxBytes/1024/1024)
}

func NewMissingParamError(name string) *APIError {
	return NewSimple(http.StatusBadRequest, "Missing required parameter '%s'", name)
}

// Message extracts a human readable text from any ErrorResponse.
func Message(err ErrorResponse) string {
	switch e := err.(type) {
	case *APIError:
		return e.Message
	case *StructuredError:
		for field, problems := range e.Errors {
			if len(problems) > 0 {
				return field + ": " + problems[0]
			}
		}
	}
	return http.StatusText(err.Code())
}
