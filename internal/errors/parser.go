package errors

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrorInfo carries a parsed error code and message.
type ErrorInfo struct {
	Code    string
	Message string
}

// IsUniqueViolation reports whether err is a unique constraint
// violation. Postgres errors are matched by SQLSTATE 23505 via the
// typed pq error; the string fallback covers sqlite in tests.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "unique constraint") ||
		strings.Contains(errStr, "unique failed")
}

// IsForeignKeyViolation reports whether err is a foreign key
// constraint violation (SQLSTATE 23503 on Postgres).
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "foreign key constraint")
}

// ParseError converts a low-level error into a code and a message safe
// to return to clients. Sensitive detail stays in the logs.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "internal server error",
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: notFoundMessage(context),
		}
	}

	if IsUniqueViolation(err) {
		return parseUniqueViolation(err.Error())
	}

	if IsForeignKeyViolation(err) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: "referenced resource does not exist",
		}
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "a downstream service is unavailable, please try again later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: "internal server error, please try again later",
	}
}

func parseUniqueViolation(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "email") {
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "email already in use"}
	}
	if strings.Contains(errLower, "nickname") {
		return ErrorInfo{Code: AuthNicknameExists, Message: "nickname already in use"}
	}
	if strings.Contains(errLower, "cart_items") {
		return ErrorInfo{Code: ResourceConflict, Message: "product is already in the cart"}
	}
	if strings.Contains(errLower, "carts") {
		return ErrorInfo{Code: ResourceConflict, Message: "cart already exists for this user"}
	}
	if strings.Contains(errLower, "categories") {
		return ErrorInfo{Code: CategoryAlreadyExists, Message: "category already exists"}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "resource already exists",
	}
}

func notFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "product"):
		return "product not found"
	case strings.Contains(contextLower, "user"):
		return "user not found"
	case strings.Contains(contextLower, "cart"):
		return "cart not found"
	case strings.Contains(contextLower, "category"):
		return "category not found"
	case strings.Contains(contextLower, "favorite"):
		return "favorite not found"
	}

	return "requested resource not found"
}
