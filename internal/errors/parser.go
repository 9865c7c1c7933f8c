package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrorInfo pairs an error code with a user facing message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts a raw database or network error into a user
// friendly code and message. Sensitive detail stays out of the result
// while keeping enough information for the user to act on.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// 1. GORM errors
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 2. PostgreSQL errors

	// 2-1. Unique constraint violation (23505)
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStr)
	}

	// 2-2. Foreign key constraint violation (23503)
	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStr, context)
	}

	// 2-3. Not null constraint violation (23502)
	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return parseNotNullError(errStr)
	}

	// 2-4. Check constraint violation (23514)
	if strings.Contains(errStrLower, "check constraint") {
		return parseCheckConstraintError(errStr)
	}

	// 3. Network/connection errors
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "Failed to reach an external service. Please try again later",
		}
	}

	// 4. Default internal server error
	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

// parseDuplicateKeyError handles unique constraint violations
func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "email") || strings.Contains(errLower, "idx_users_email") {
		return ErrorInfo{
			Code:    AuthEmailAlreadyExists,
			Message: "This email is already registered",
		}
	}

	if strings.Contains(errLower, "categories") || strings.Contains(errLower, "idx_categories_name") {
		return ErrorInfo{
			Code:    CategoryAlreadyExists,
			Message: "A category with this name already exists",
		}
	}

	if strings.Contains(errLower, "idx_review_user_product_order") {
		return ErrorInfo{
			Code:    ReviewAlreadyExists,
			Message: "You have already reviewed this product for this order",
		}
	}

	if strings.Contains(errLower, "carts") && strings.Contains(errLower, "user_id") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "A cart already exists for this account",
		}
	}

	if strings.Contains(errLower, "pkey") || strings.Contains(errLower, "primary key") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "This record already exists. Please try again",
		}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "This record already exists",
	}
}

// parseForeignKeyError handles foreign key constraint violations
func parseForeignKeyError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	// deleting a row that is still referenced
	if strings.Contains(errLower, "still referenced") || strings.Contains(errLower, "is still referenced by") {
		if strings.Contains(context, "product") {
			return ErrorInfo{
				Code:    ResourceConflict,
				Message: "This product has related orders or reviews and cannot be deleted",
			}
		}
		if strings.Contains(context, "category") {
			return ErrorInfo{
				Code:    ResourceConflict,
				Message: "This category still has products and cannot be deleted",
			}
		}
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "This record is referenced by other data and cannot be deleted",
		}
	}

	// inserting a reference to a missing row
	if strings.Contains(errLower, "user_id") || strings.Contains(errLower, "fk_users") {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: "The referenced user does not exist",
		}
	}
	if strings.Contains(errLower, "product_id") || strings.Contains(errLower, "fk_products") {
		return ErrorInfo{
			Code:    ProductNotFound,
			Message: "The referenced product does not exist",
		}
	}
	if strings.Contains(errLower, "category_id") || strings.Contains(errLower, "fk_categories") {
		return ErrorInfo{
			Code:    CategoryNotFound,
			Message: "The referenced category does not exist",
		}
	}
	if strings.Contains(errLower, "order_id") || strings.Contains(errLower, "fk_orders") {
		return ErrorInfo{
			Code:    OrderNotFound,
			Message: "The referenced order does not exist",
		}
	}

	return ErrorInfo{
		Code:    ResourceNotFound,
		Message: "The referenced record could not be found",
	}
}

// parseNotNullError handles not-null constraint violations
func parseNotNullError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "email") {
		return ErrorInfo{Code: ValidationRequired, Message: "Email is required"}
	}
	if strings.Contains(errLower, "password") {
		return ErrorInfo{Code: ValidationRequired, Message: "Password is required"}
	}
	if strings.Contains(errLower, "name") {
		return ErrorInfo{Code: ValidationRequired, Message: "Name is required"}
	}
	if strings.Contains(errLower, "price") {
		return ErrorInfo{Code: ValidationRequired, Message: "Price is required"}
	}

	return ErrorInfo{
		Code:    ValidationRequired,
		Message: "A required field is missing",
	}
}

// parseCheckConstraintError handles check constraint violations
func parseCheckConstraintError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "rating") {
		return ErrorInfo{
			Code:    ReviewInvalidRating,
			Message: "Rating must be between 1 and 5",
		}
	}

	if strings.Contains(errLower, "stock") || strings.Contains(errLower, "quantity") {
		return ErrorInfo{
			Code:    ValidationInvalidRange,
			Message: "Quantity is out of range",
		}
	}

	return ErrorInfo{
		Code:    ValidationInvalidInput,
		Message: "Invalid input",
	}
}

// getNotFoundMessage maps a context label to a not-found message
func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "product") {
		return "Product not found"
	}
	if strings.Contains(contextLower, "category") {
		return "Category not found"
	}
	if strings.Contains(contextLower, "cart") {
		return "Cart not found"
	}
	if strings.Contains(contextLower, "order") {
		return "Order not found"
	}
	if strings.Contains(contextLower, "review") {
		return "Review not found"
	}
	if strings.Contains(contextLower, "user") {
		return "User not found"
	}

	return "The requested record could not be found"
}

// getDefaultErrorMessage maps a context label to a generic failure message
func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") {
		return "Failed to create the record. Please try again later"
	}
	if strings.Contains(contextLower, "update") {
		return "Failed to update the record. Please try again later"
	}
	if strings.Contains(contextLower, "delete") {
		return "Failed to delete the record. Please try again later"
	}

	return "Something went wrong. Please try again later"
}

// statusForCode picks the HTTP status that matches a parsed error code
func statusForCode(code string) int {
	switch code {
	case ResourceNotFound, ProductNotFound, CategoryNotFound, OrderNotFound,
		CartNotFound, CartItemNotFound, ReviewNotFound:
		return http.StatusNotFound
	case ResourceAlreadyExists, ResourceConflict, AuthEmailAlreadyExists,
		CategoryAlreadyExists, ReviewAlreadyExists:
		return http.StatusConflict
	case ValidationInvalidInput, ValidationInvalidID, ValidationInvalidRange,
		ValidationRequired, ReviewInvalidRating:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ParseAndRespond parses the error and writes the response in one call
func ParseAndRespond(c *gin.Context, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusForCode(errorInfo.Code), ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
