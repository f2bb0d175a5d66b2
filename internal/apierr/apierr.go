// Package apierr defines dropit's error taxonomy: every error a pipeline can
// return carries a stable machine-readable code, an HTTP status, and a
// human-readable message, matching the taxonomy of the original dropit
// implementation's error enum.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Code identifies one taxonomy entry.
type Code string

const (
	CodeFilenameHeader          Code = "filename_header"
	CodeTooLarge                Code = "too_large"
	CodeSizeMismatch            Code = "size_mismatch"
	CodeInvalidAlias            Code = "invalid_alias"
	CodeInvalidDownloadsCount   Code = "invalid_downloads_count"
	CodeExpirationTooHigh       Code = "expiration_too_high"
	CodeOriginUnresolved        Code = "origin_unresolved"
	CodeTargetUnresolved        Code = "target_unresolved"
	CodeMissingAuthorization    Code = "missing_authorization"
	CodeInvalidAuthorizationHdr Code = "invalid_authorization_header"
	CodeAccessForbidden         Code = "access_forbidden"
	CodeInvalidAdminToken       Code = "invalid_admin_token"
	CodeFileNotFound            Code = "file_not_found"
	CodeAssetNotFound           Code = "asset_not_found"
	CodeQuotaExceeded           Code = "quota_exceeded"

	CodeDatabase                   Code = "database"
	CodeCreateFile                 Code = "create_file"
	CodeCopyFile                   Code = "copy_file"
	CodeRemoveFile                 Code = "remove_file"
	CodePartialRemove              Code = "partial_remove"
	CodeAliasGenerationFailed      Code = "alias_generation_failed"
	CodeTimeCalculation            Code = "time_calculation"
	CodeUnexpectedFileModification Code = "unexpected_file_modification"
	CodeGeneric                    Code = "generic"
)

var statusByCode = map[Code]int{
	CodeFilenameHeader:          http.StatusBadRequest,
	CodeTooLarge:                http.StatusBadRequest,
	CodeSizeMismatch:            http.StatusBadRequest,
	CodeInvalidAlias:            http.StatusBadRequest,
	CodeInvalidDownloadsCount:   http.StatusBadRequest,
	CodeExpirationTooHigh:       http.StatusBadRequest,
	CodeOriginUnresolved:        http.StatusBadRequest,
	CodeTargetUnresolved:        http.StatusBadRequest,
	CodeMissingAuthorization:    http.StatusUnauthorized,
	CodeInvalidAuthorizationHdr: http.StatusUnauthorized,
	CodeAccessForbidden:         http.StatusForbidden,
	CodeInvalidAdminToken:       http.StatusForbidden,
	CodeFileNotFound:            http.StatusNotFound,
	CodeAssetNotFound:           http.StatusNotFound,
	CodeQuotaExceeded:           http.StatusTooManyRequests,

	CodeDatabase:                   http.StatusInternalServerError,
	CodeCreateFile:                 http.StatusInternalServerError,
	CodeCopyFile:                   http.StatusInternalServerError,
	CodeRemoveFile:                 http.StatusInternalServerError,
	CodePartialRemove:              http.StatusInternalServerError,
	CodeAliasGenerationFailed:      http.StatusInternalServerError,
	CodeTimeCalculation:            http.StatusInternalServerError,
	CodeUnexpectedFileModification: http.StatusInternalServerError,
	CodeGeneric:                    http.StatusInternalServerError,
}

var defaultMessage = map[Code]string{
	CodeFilenameHeader:          "invalid filename header",
	CodeTooLarge:                "file too large",
	CodeSizeMismatch:            "uploaded size does not match declared content length",
	CodeInvalidAlias:            "invalid alias format",
	CodeInvalidDownloadsCount:   "invalid downloads count",
	CodeExpirationTooHigh:       "requested expiration exceeds the allowed maximum",
	CodeOriginUnresolved:        "cannot determine origin",
	CodeTargetUnresolved:        "cannot determine upload target",
	CodeMissingAuthorization:    "missing authorization",
	CodeInvalidAuthorizationHdr: "missing or invalid authorization header",
	CodeAccessForbidden:         "access forbidden",
	CodeInvalidAdminToken:       "mismatching admin token",
	CodeFileNotFound:            "file not found",
	CodeAssetNotFound:           "asset not found",
	CodeQuotaExceeded:           "quota exceeded",

	CodeDatabase:                   "database error",
	CodeCreateFile:                 "cannot create file",
	CodeCopyFile:                   "cannot copy file",
	CodeRemoveFile:                 "cannot remove file",
	CodePartialRemove:              "file was partially removed",
	CodeAliasGenerationFailed:      "cannot generate alias",
	CodeTimeCalculation:            "cannot calculate expiration",
	CodeUnexpectedFileModification: "an unexpected error happened while updating file metadata",
	CodeGeneric:                    "internal error",
}

// Error is dropit's error type: a taxonomy code plus optional wrapped cause.
type Error struct {
	Code    Code
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for code with the taxonomy's default message.
func New(code Code) *Error {
	return &Error{Code: code, Status: statusByCode[code], Message: defaultMessage[code]}
}

// Newf builds an *Error for code with a custom message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Status: statusByCode[code], Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error for code, wrapping cause for errors.Is/As and log detail.
func Wrap(code Code, cause error) *Error {
	return &Error{Code: code, Status: statusByCode[code], Message: defaultMessage[code], Err: cause}
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// StatusCode implements response.StatusCoder.
func (e *Error) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// SingleLine implements response.SingleLiner.
func (e *Error) SingleLine() string {
	return e.Error()
}

// Success implements response.StatusCoder's success flag.
func (e *Error) Success() bool { return false }

// WWWAuthenticate implements response's optional header hook: a
// missing_authorization error additionally emits WWW-Authenticate: Basic.
func (e *Error) WWWAuthenticate() string {
	if e.Code == CodeMissingAuthorization {
		return "Basic"
	}
	return ""
}

// MarshalJSON renders the error as {"error": "<message>"} so it flattens
// into the {success, ...} envelope alongside success=false.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error string `json:"error"`
	}{Error: e.Error()})
}
