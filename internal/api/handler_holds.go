package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"salon-booking-backend/internal/model"
)

type createHoldRequest struct {
	SessionID string    `json:"session_id"`
	StaffID   string    `json:"staff_id" binding:"required"`
	ServiceID string    `json:"service_id" binding:"required"`
	SlotStart time.Time `json:"slot_start" binding:"required"`
}

type customerRequest struct {
	CustomerName  string  `json:"customer_name" binding:"required"`
	CustomerPhone string  `json:"customer_phone" binding:"required"`
	CustomerEmail *string `json:"customer_email"`
	CustomerID    *string `json:"customer_id"`
	Notes         *string `json:"notes"`
}

func (r customerRequest) details() model.CustomerDetails {
	return model.CustomerDetails{
		Name:       r.CustomerName,
		Phone:      r.CustomerPhone,
		Email:      r.CustomerEmail,
		CustomerID: r.CustomerID,
		Notes:      r.Notes,
	}
}

// CreateHold handles POST /api/holds.
func (h *Handler) CreateHold(c *gin.Context) {
	var req createHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SessionID == "" {
		req.SessionID = c.GetHeader(h.sessionHeader)
	}
	if req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	hold, err := h.engine.CreateHold(c.Request.Context(), req.SessionID, req.StaffID, req.ServiceID, req.SlotStart)
	if err != nil {
		writeError(c, err, http.StatusNotFound)
		return
	}
	c.JSON(http.StatusCreated, hold)
}

// ReleaseHold handles DELETE /api/holds/:id.
func (h *Handler) ReleaseHold(c *gin.Context) {
	if err := h.engine.ReleaseHold(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, http.StatusNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// ConvertHold handles POST /api/holds/:id/convert. An expired hold answers
// 410 Gone.
func (h *Handler) ConvertHold(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.engine.ConvertHoldToBooking(c.Request.Context(), c.Param("id"), req.details())
	if err != nil {
		writeError(c, err, http.StatusGone)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// CleanupHolds handles POST /api/admin/holds/cleanup.
func (h *Handler) CleanupHolds(c *gin.Context) {
	n, err := h.engine.CleanupExpiredHolds(c.Request.Context())
	if err != nil {
		writeError(c, err, http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleaned": n})
}
