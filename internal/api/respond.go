package api

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kickwager/kickwager-api/internal/errors"
)

// statusFor maps an error code to an HTTP status
func statusFor(code string) int {
	switch code {
	case errors.ErrCodeValidationError:
		return http.StatusBadRequest
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error", "code"}. Server errors are attached
// to the context for the logging middleware and hidden from the client.
func respondError(c *gin.Context, err error) {
	code := errors.CodeOf(err)
	status := statusFor(code)

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error", "code": code})
		return
	}

	message := err.Error()
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		message = appErr.Message
	}
	c.JSON(status, gin.H{"error": message, "code": code})
}

// bindJSON decodes the request body and answers 400 on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format: " + err.Error(),
			"code":  errors.ErrCodeValidationError,
		})
		return false
	}
	return true
}

// uuidParam parses a path parameter and answers 400 when it is not a uuid
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
			"code":  errors.ErrCodeValidationError,
		})
		return uuid.Nil, false
	}
	return id, true
}
