package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/antonkudinov/linkmarket-backend/internal/logger"
	"github.com/antonkudinov/linkmarket-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно. AppError несёт свой
// HTTP статус и безопасное сообщение; всё прочее маскируется как
// внутренняя ошибка, деталь уходит только в лог.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		statusCode := http.StatusInternalServerError
		message := "внутренняя ошибка сервера"
		code := apperror.ErrCodeInternal

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			statusCode = appErr.HTTPStatus
			message = appErr.Message
			code = appErr.Code
		}

		if logger.Log != nil {
			entry := logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"code":   code,
			})
			if statusCode >= http.StatusInternalServerError {
				entry.Error("request error")
			} else {
				entry.Debug("request error")
			}
		}

		c.JSON(statusCode, gin.H{"error": message, "code": code})
	}
}
