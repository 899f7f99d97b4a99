package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"salon-booking-backend/internal/reservation"
)

type createBookingRequest struct {
	customerRequest
	StaffID               string    `json:"staff_id" binding:"required"`
	ServiceID             string    `json:"service_id" binding:"required"`
	SlotStart             time.Time `json:"slot_start" binding:"required"`
	SessionID             string    `json:"session_id"`
	SkipAvailabilityCheck bool      `json:"skip_availability_check"`
}

// CreateBooking handles POST /api/bookings, the direct path that does not
// require a hold.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SessionID == "" {
		req.SessionID = c.GetHeader(h.sessionHeader)
	}

	breq := reservation.BookingRequest{
		StaffID:               req.StaffID,
		ServiceID:             req.ServiceID,
		SlotStart:             req.SlotStart,
		Customer:              req.details(),
		SessionID:             req.SessionID,
		SkipAvailabilityCheck: req.SkipAvailabilityCheck,
	}
	booking, err := h.engine.CreateBooking(c.Request.Context(), breq)
	if err != nil {
		log.Printf("Rejected %s: %v", breq, err)
		writeError(c, err, http.StatusNotFound)
		return
	}
	c.JSON(http.StatusCreated, booking)
}
