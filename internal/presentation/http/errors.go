package httppresentation

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Zhima-Mochi/marketplace/internal/application"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/auth"
	"github.com/gin-gonic/gin"
)

const msgInternal = "internal server error"

var errUnauthorized = errors.New("please login to continue")

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnauthorized),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrInvalidTransition),
		errors.Is(err, application.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts with the failure envelope. Server-side failures are
// logged by the access log and never echoed to the client.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = msgInternal
	}
	c.AbortWithStatusJSON(status, errorBody{Message: msg})
}

func badRequest(c *gin.Context, msg string) {
	writeError(c, fmt.Errorf("%w: %s", application.ErrValidation, msg))
}
