package utils

import (
	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func SuccessResponse(c *gin.Context, status int, message string, data any) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, Response{
		Error:   false,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, status int, message string) {
	ErrorResponseWithData(c, status, message, nil)
}

func ErrorResponseWithData(c *gin.Context, status int, message string, data any) {
	if data == nil {
		data = gin.H{}
	}
	c.AbortWithStatusJSON(status, Response{
		Error:   true,
		Message: message,
		Data:    data,
	})
}
