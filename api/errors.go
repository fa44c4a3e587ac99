package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/indigoair/indigo/internal/auth"
	"github.com/indigoair/indigo/internal/domain"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch domain.Kind(err) {
	case domain.ErrValidation, domain.ErrTransitionRejected:
		return http.StatusBadRequest
	case domain.ErrUnauthenticated:
		return http.StatusUnauthorized
	case domain.ErrForbidden:
		return http.StatusForbidden
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": message}. Unexpected errors are
// attached to the context for the access log and hidden behind a generic
// message.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// principal returns the caller; routes using it sit behind auth.Authenticate.
func principal(c *gin.Context) domain.Principal {
	p, _ := auth.PrincipalFrom(c)
	return p
}

var errInvalidDate = errors.New("dates must be RFC 3339 or YYYY-MM-DD")
