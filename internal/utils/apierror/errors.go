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

var (
	MalformedBodyError  = NewSimple(400, "Malformed request body")
	InternalServerError = NewSimple(500, "Internal server error")

	NotFoundError         = NewSimple(404, "Resource not found")
	UnauthorizedError     = NewSimple(401, "Missing authentication")
	InvalidAuthTokenError = NewSimple(401, "Invalid or expired token")

	InvalidMediaTypeError = NewSimple(415, "Unsupported media type")
	FormJSONRequiredError = NewSimple(400, "Multipart requests must carry a 'json_payload' form field")

	/*
	 * Used for authentications
	 */
	UserAlreadyExistsError    = NewSimple(409, "Email already registered")
	CredentialsMismatchError  = NewSimple(401, "Credentials mismatch")
	AccountSuspendedError     = NewSimple(403, "Account is suspended")
	InvalidRefreshTokenError  = NewSimple(401, "Refresh token is invalid or was revoked")
	WrongProviderError        = NewSimple(400, "Account was created with an external provider, use its sign-in flow")
	ExternalTokenInvalidError = NewSimple(401, "External identity token could not be verified")

	/*
	 * Friend request lifecycle
	 */
	SelfFriendTargetError   = NewSimple(400, "Cannot send a friend request to yourself")
	AlreadyFriendsError     = NewSimple(409, "Users are already friends")
	RequestAlreadySentError = NewSimple(409, "Friend request already sent")
	CounterRequestError     = NewSimple(409, "This user has already sent you a request, accept it instead")
	RequestNotFoundError    = NewSimple(404, "No such friend request")
	NotFriendsError         = NewSimple(404, "Users are not friends")

	/*
	 * Note lifecycle
	 */
	NoteTrashedError    = NewSimple(409, "Note is in the trash, restore it first")
	NoteNotTrashedError = NewSimple(409, "Note is not in the trash")
	ImageNotFoundError  = NewSimple(404, "Note has no such image")

	MissingFileNameError  = NewSimple(400, "Uploaded file has no name")
	MissingImageFileError = NewSimple(400, "Multipart request carries no image file")
)

func FromValidationError(err error) *StructuredError {
	var ve validator.ValidationErrors
	ok := errors.As(err, &ve)
	if !ok {
		return nil
	}

	resp := NewStructured(http.StatusBadRequest)
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			resp.Add(field, "This field is required")
		case "min":
			resp.Add(field, "Value is too short, min: "+fe.Param())
		case "max":
			resp.Add(field, "Value is too long, max: "+fe.Param())
		case "hasupper":
			resp.Add(field, "Value must have at least one uppercase character")
		case "haslower":
			resp.Add(field, "Value must have at least one lowercase character")
		case "hasdigit":
			resp.Add(field, "Value must have at least one number")
		case "hasspecial":
			resp.Add(field, "Value must have at least one special character")
		case "email":
			resp.Add(field, "Value must be a valid email address")
		case "hexcolor":
			resp.Add(field, "Value must be a hex color like #AABBCC")

		default:
			resp.Add(field, "Invalid value provided")
		}
	}
	return resp
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

func NewMissingParamError(name string) *APIError {
	return NewSimple(http.StatusBadRequest, "Missing required parameter: %s", name)
}

func NewInvalidParamTypeError(name, dataType string) *APIError {
	return NewSimple(http.StatusBadRequest, "Parameter '%s' has invalid type, expected: %s", name, dataType)
}

func NewFileTooLargeError(maxBytes int64) *APIError {
	return NewSimple(http.StatusRequestEntityTooLarge, "File exceeds the maximum size of %d bytes", maxBytes)
}

func NewInvalidFileExtError(ext string) *APIError {
	return NewSimple(http.StatusBadRequest, "Unsupported file extension: %s", ext)
}

func NewTooManyImagesError(max int) *APIError {
	return NewSimple(http.StatusBadRequest, "Notes cannot have more than %d images", max)
}
