package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"salon-booking-backend/internal/reservation"
	"salon-booking-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine        *reservation.Engine
	store         store.Store
	sessionHeader string
}

// NewHandler creates a new API handler. sessionHeader names the request
// header that may carry the booking session when the body omits it.
func NewHandler(e *reservation.Engine, s store.Store, sessionHeader string) *Handler {
	return &Handler{
		engine:        e,
		store:         s,
		sessionHeader: sessionHeader,
	}
}

// writeError maps engine errors onto HTTP statuses. notFound is the status
// used for ErrNotFound, which differs between endpoints.
func writeError(c *gin.Context, err error, notFound int) {
	var se *reservation.StoreError
	switch {
	case errors.Is(err, reservation.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": reservation.ErrConflict.Error()})
	case errors.Is(err, reservation.ErrNotFound):
		c.AbortWithStatusJSON(notFound, gin.H{"error": reservation.ErrNotFound.Error()})
	case errors.Is(err, reservation.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &se):
		log.Printf("Error in %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		log.Printf("Unexpected error in %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
