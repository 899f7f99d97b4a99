package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"salon-booking-backend/internal/parse"
)

// ServiceResponse represents one entry of the service menu.
type ServiceResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
	PriceCents      int64  `json:"priceCents"`
}

// StaffResponse represents one bookable staff member.
type StaffResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	WorkStart string `json:"workStart"`
	WorkEnd   string `json:"workEnd"`
	WorkDays  string `json:"workDays"`
}

// GetServices handles the GET /api/services request.
func (h *Handler) GetServices(c *gin.Context) {
	services, err := h.store.ListServices(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve services"})
		return
	}
	responses := make([]ServiceResponse, 0, len(services))
	for _, s := range services {
		responses = append(responses, ServiceResponse{
			ID: s.ID, Name: s.Name,
			DurationMinutes: s.DurationMinutes, PriceCents: s.PriceCents,
		})
	}
	c.JSON(http.StatusOK, responses)
}

// GetStaff handles the GET /api/staff request.
func (h *Handler) GetStaff(c *gin.Context) {
	staff, err := h.store.ListStaff(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve staff"})
		return
	}
	responses := make([]StaffResponse, 0, len(staff))
	for _, s := range staff {
		resp := StaffResponse{ID: s.ID, Name: s.Name, WorkStart: s.WorkStart, WorkEnd: s.WorkEnd, WorkDays: s.WorkDays}
		// normalise "9h00" style values for clients
		if m, err := parse.ParseClock(s.WorkStart); err == nil {
			resp.WorkStart = parse.FormatClock(m)
		}
		if m, err := parse.ParseClock(s.WorkEnd); err == nil {
			resp.WorkEnd = parse.FormatClock(m)
		}
		responses = append(responses, resp)
	}
	c.JSON(http.StatusOK, responses)
}

// GetAvailability handles GET /api/availability?staff_id=&service_id=&slot_start=.
// duration_minutes may override the service duration.
func (h *Handler) GetAvailability(c *gin.Context) {
	staffID := c.Query("staff_id")
	serviceID := c.Query("service_id")
	slotStart, err := time.Parse(time.RFC3339, c.Query("slot_start"))
	if staffID == "" || serviceID == "" || err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "staff_id, service_id and an RFC 3339 slot_start are required"})
		return
	}
	duration := 0
	if raw := c.Query("duration_minutes"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil || duration <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid duration_minutes"})
			return
		}
	}

	free, err := h.engine.IsSlotFree(c.Request.Context(), staffID, serviceID, slotStart, duration)
	if err != nil {
		writeError(c, err, http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"free": free})
}
