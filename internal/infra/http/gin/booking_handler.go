package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staybook/internal/app/commands"
	BookingApp "staybook/internal/app/handlers/booking"
	"staybook/internal/app/queries"
	domainbooking "staybook/internal/domain/booking"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type requestedLineRequest struct {
	UnitID string `json:"unit_id"`
	Nights int    `json:"nights"`
}

type createBookingRequest struct {
	GuestID    string                 `json:"guest_id"`
	PropertyID string                 `json:"property_id"`
	CheckIn    time.Time              `json:"check_in"`
	CheckOut   time.Time              `json:"check_out"`
	Guests     int                    `json:"guests"`
	Notes      string                 `json:"notes"`
	Lines      []requestedLineRequest `json:"lines"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lines := make([]BookingApp.RequestedLine, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = BookingApp.RequestedLine{UnitID: line.UnitID, Nights: line.Nights}
	}
	cmd := BookingApp.RequestBookingCommand{
		CommandID:       generateCommandID(),
		GuestID:         req.GuestID,
		PropertyID:      req.PropertyID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Guests:          req.Guests,
		Notes:           req.Notes,
		Lines:           lines,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.RequestBookingCommand, *BookingApp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type transitionBookingRequest struct {
	Status   string            `json:"status"`
	ActorID  string            `json:"actor_id"`
	Reason   string            `json:"reason"`
	Metadata map[string]string `json:"metadata"`
}

func (h BookingHandler) Transition(c *gin.Context) {
	var req transitionBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := domainbooking.ParseStatus(req.Status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := BookingApp.TransitionBookingCommand{
		BookingID:       c.Param("id"),
		NewStatus:       req.Status,
		ActorID:         req.ActorID,
		Reason:          req.Reason,
		Metadata:        req.Metadata,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.TransitionBookingCommand, *BookingApp.TransitionBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	q := BookingApp.GetBookingQuery{BookingID: c.Param("id")}
	b, err := queries.Ask[BookingApp.GetBookingQuery, *domainbooking.Booking](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingToResponse(b))
}

func (h BookingHandler) Remove(c *gin.Context) {
	cmd := BookingApp.RemoveBookingCommand{BookingID: c.Param("id")}
	if _, err := commands.Dispatch[BookingApp.RemoveBookingCommand, *BookingApp.RemoveBookingResult](c.Request.Context(), h.Commands, cmd); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h BookingHandler) ListByGuest(c *gin.Context) {
	q := BookingApp.ListGuestBookingsQuery{GuestID: c.Param("guestID")}
	list, err := queries.Ask[BookingApp.ListGuestBookingsQuery, []*domainbooking.Booking](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]bookingResponse, len(list))
	for i, b := range list {
		out[i] = bookingToResponse(b)
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

type lineItemResponse struct {
	UnitID             string `json:"unit_id"`
	Nights             int    `json:"nights"`
	PricePerNightCents int64  `json:"price_per_night_cents"`
	LineTotalCents     int64  `json:"line_total_cents"`
}

type bookingResponse struct {
	ID         string             `json:"id"`
	GuestID    string             `json:"guest_id"`
	PropertyID string             `json:"property_id"`
	CheckIn    time.Time          `json:"check_in"`
	CheckOut   time.Time          `json:"check_out"`
	Guests     int                `json:"guests"`
	Notes      string             `json:"notes,omitempty"`
	Lines      []lineItemResponse `json:"lines"`
	TotalCents int64              `json:"total_cents"`
	Currency   string             `json:"currency"`
	Status     string             `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func bookingToResponse(b *domainbooking.Booking) bookingResponse {
	lines := make([]lineItemResponse, len(b.Lines))
	for i, line := range b.Lines {
		lines[i] = lineItemResponse{
			UnitID:             string(line.UnitID),
			Nights:             line.Nights,
			PricePerNightCents: line.PricePerNight.Amount,
			LineTotalCents:     line.LineTotal.Amount,
		}
	}
	return bookingResponse{
		ID:         string(b.ID),
		GuestID:    b.GuestID,
		PropertyID: string(b.PropertyID),
		CheckIn:    b.Range.CheckIn,
		CheckOut:   b.Range.CheckOut,
		Guests:     b.Guests,
		Notes:      b.Notes,
		Lines:      lines,
		TotalCents: b.Total.Amount,
		Currency:   b.Total.Currency,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
