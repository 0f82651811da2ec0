package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sourceplane/designbridge/internal/diagnostic"
)

// Response is the envelope of every API reply
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Errors    []ErrorItem `json:"errors,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// ErrorItem is one entry of a validation failure
type ErrorItem struct {
	Field   string `json:"field,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Success writes a 200 envelope
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      http.StatusOK,
		Message:   "success",
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Error writes an error envelope
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// ValidationError writes a 400 envelope listing every failure
func ValidationError(c *gin.Context, errors []ErrorItem) {
	c.JSON(http.StatusBadRequest, Response{
		Code:      http.StatusBadRequest,
		Message:   "validation failed",
		Errors:    errors,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// errorItems converts diagnostics errors into envelope entries
func errorItems(diags []diagnostic.Diagnostic) []ErrorItem {
	items := make([]ErrorItem, 0, len(diags))
	for _, d := range diags {
		items = append(items, ErrorItem{Field: d.Path, Code: d.Code, Message: d.Message})
	}
	return items
}
