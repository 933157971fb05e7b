package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEventNotFound indicates the event does not exist or is not published.
	ErrEventNotFound = errors.New("event not found")
	// ErrRegistrationClosed indicates the registration deadline has passed.
	ErrRegistrationClosed = errors.New("registration deadline has passed")
	// ErrAlreadyRegistered indicates the user already holds a seat.
	ErrAlreadyRegistered = errors.New("already registered for this event")
	// ErrEventFull indicates the event reached its attendee limit.
	ErrEventFull = errors.New("event is full")

	// ErrSurveyNotFound indicates the survey does not exist.
	ErrSurveyNotFound = errors.New("survey not found")
	// ErrSurveyNotActive indicates the survey does not accept answers.
	ErrSurveyNotActive = errors.New("survey is not active")
	// ErrAlreadySubmitted indicates the user already answered the survey.
	ErrAlreadySubmitted = errors.New("survey already submitted")

	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountExists indicates the username or email is taken.
	ErrAccountExists = errors.New("username or email already exists")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountBanned indicates a banned account tried to log in.
	ErrAccountBanned = errors.New("account is banned")
	// ErrPasswordMismatch indicates the current password did not match.
	ErrPasswordMismatch = errors.New("current password is incorrect")

	// ErrArticleNotFound indicates the article does not exist or is hidden.
	ErrArticleNotFound = errors.New("article not found")
	// ErrNotArticleAuthor indicates an editor touched another author's article.
	ErrNotArticleAuthor = errors.New("editors can only manage their own articles")

	// ErrComplaintNotFound indicates the complaint does not exist.
	ErrComplaintNotFound = errors.New("complaint not found")

	// ErrFileNotFound indicates the downloadable file does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrStorageUnavailable indicates no upload backend is configured.
	ErrStorageUnavailable = errors.New("file storage is not configured")
)

// FieldError names one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports rejected input detected before any transaction opens.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field.Field, field.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...interface{}) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	v := &ValidationError{}
	v.add(field, format, args...)
	return v
}
