// Package apierror provides the error taxonomy shared by services and handlers,
// and the JSON envelopes used for every 4xx/5xx response. Internal details
// (DB errors, stack traces) never reach the client through this package.
package apierror

import (
	"errors"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// ── Taxonomy ──────────────────────────────────────────────────────────────────

// Kind classifies a business failure and decides its HTTP status.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindForbidden
	KindConflict
	KindEditWindowExpired
	KindUnauthorized
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFoundError"
	case KindForbidden:
		return "ForbiddenError"
	case KindConflict:
		return "ConflictError"
	case KindEditWindowExpired:
		return "EditWindowExpiredError"
	case KindUnauthorized:
		return "UnauthorizedError"
	default:
		return "UnexpectedError"
	}
}

// Specific failure codes carried inside an Error.
const (
	CodeDuplicateName       = "DuplicateNameError"
	CodeDuplicateAlias      = "DuplicateAliasError"
	CodeDuplicateHouseNo    = "DuplicateHouseNumberError"
	CodeInvalidDimension    = "InvalidDimensionError"
	CodeInvalidColor        = "InvalidColorError"
	CodeInvalidDecoration   = "InvalidDecorationError"
	CodeTooManyExtras       = "TooManyExtrasError"
	CodeTooManyAddresses    = "TooManyAddressesError"
	CodeUnknownProduct      = "UnknownProductError"
	CodeUnknownReference    = "UnknownReferenceError"
	CodeMissingAddress      = "MissingAddressError"
	CodeInvalidState        = "InvalidStateError"
	CodeEditWindowExpired   = "EditWindowExpiredError"
	CodeInvalidCredentials  = "InvalidCredentialsError"
	CodeAccountNotConfirmed = "AccountNotConfirmedError"
)

// Error is a business-rule failure returned by the service layer.
type Error struct {
	Kind Kind
	Code string
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newErr(k Kind, code, msg string) *Error {
	if code == "" {
		code = k.String()
	}
	return &Error{Kind: k, Code: code, Msg: msg}
}

func Validation(code, msg string) *Error   { return newErr(KindValidation, code, msg) }
func NotFound(code, msg string) *Error     { return newErr(KindNotFound, code, msg) }
func Forbidden(code, msg string) *Error    { return newErr(KindForbidden, code, msg) }
func Conflict(code, msg string) *Error     { return newErr(KindConflict, code, msg) }
func Unauthorized(code, msg string) *Error { return newErr(KindUnauthorized, code, msg) }

func EditWindowExpired(msg string) *Error {
	return newErr(KindEditWindowExpired, CodeEditWindowExpired, msg)
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the failure code of err, or "" if err is not a business error.
func CodeOf(err error) string {
	if e, ok := As(err); ok {
		return e.Code
	}
	return ""
}

// HTTPStatus maps err to the status code the API reports for it.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden, KindEditWindowExpired:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
