package ada

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	BadRequest        ErrorCode = "bad-request"
	NotFound          ErrorCode = "not-found"
	AlreadyExists     ErrorCode = "already-exists"
	DBConflict        ErrorCode = "db-conflict"
	InsufficientFunds ErrorCode = "insufficient-funds"
	NodeError         ErrorCode = "node-error"         // the cardano node tool failed or is unreachable
	KeyDecryption     ErrorCode = "key-decryption"     // wrong password or corrupt key material
	MalformedResponse ErrorCode = "malformed-response" // node tool output did not match the expected pattern
	UnknownError      ErrorCode = "unknown-error"
)

type ErrorInfo struct {
	Code    ErrorCode // machine-readable ErrorCode enumeration
	Message string    // human-readable debug message (in production, logged on the server only)
}

func (e *ErrorInfo) Error() string {
	return e.Message
}

func NewErr(code ErrorCode, format string, args ...any) error {
	return &ErrorInfo{Code: code, Message: fmt.Sprintf(format, args...)}
}

func IsNotFoundError(err error) bool {
	return IsError(err, NotFound)
}

func IsAlreadyExistsError(err error) bool {
	return IsError(err, AlreadyExists)
}

func IsInsufficientFundsError(err error) bool {
	return IsError(err, InsufficientFunds)
}

func IsKeyDecryptionError(err error) bool {
	return IsError(err, KeyDecryption)
}

func IsError(err error, ofType ErrorCode) bool {
	var e *ErrorInfo
	if errors.As(err, &e) {
		return e.Code == ofType
	}
	return false
}
