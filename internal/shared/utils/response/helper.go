package response

import (
	"errors"

	"travelhub/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

func RespondSuccess(c *gin.Context, code int, message string, data interface{}) {
	RespondJSON(c, "success", code, message, data, nil)
}

// RespondError renders err through the shared taxonomy. Validation errors also list the offending field.
func RespondError(c *gin.Context, err error) {
	code := apperrors.HTTPStatus(err)

	var details interface{}
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		details = map[string]string{ve.Field: ve.Msg}
	}

	_ = c.Error(err)
	RespondJSON(c, "error", code, apperrors.PublicMessage(err), nil, details)
}

// AbortWithError is RespondError for middleware.
func AbortWithError(c *gin.Context, err error) {
	RespondError(c, err)
	c.Abort()
}
