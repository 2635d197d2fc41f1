package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainpricing "staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/dates"
	domainunit "staybook/internal/domain/unit"
)

// writeError maps domain errors onto HTTP statuses. Conflicts carry enough
// structure for a client to tell which units or transitions failed without
// parsing the message.
func writeError(c *gin.Context, err error) {
	var conflict *domainavailability.ConflictError
	if errors.As(err, &conflict) {
		units := make([]gin.H, len(conflict.Blocked))
		for i, b := range conflict.Blocked {
			units[i] = gin.H{"unit_id": string(b.UnitID), "message": b.Message}
		}
		c.JSON(http.StatusConflict, gin.H{"error": "units unavailable", "conflicts": units})
		return
	}
	var transition *domainbooking.InvalidTransitionError
	if errors.As(err, &transition) {
		legal := make([]string, len(transition.Legal))
		for i, s := range transition.Legal {
			legal[i] = string(s)
		}
		c.JSON(http.StatusConflict, gin.H{
			"error":              err.Error(),
			"from":               string(transition.From),
			"to":                 string(transition.To),
			"legal_destinations": legal,
		})
		return
	}
	var resolution *domainpricing.ResolutionError
	if errors.As(err, &resolution) {
		missing := make([]string, len(resolution.Missing))
		for i, id := range resolution.Missing {
			missing[i] = string(id)
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "missing_units": missing})
		return
	}
	switch {
	case errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainbooking.ErrBookingRemoved),
		errors.Is(err, domainunit.ErrUnitNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, dates.ErrInvalidRange),
		errors.Is(err, domainbooking.ErrInvalidGuests),
		errors.Is(err, domainbooking.ErrGuestRequired),
		errors.Is(err, domainbooking.ErrNoLineItems),
		errors.Is(err, domainbooking.ErrInvalidNights),
		errors.Is(err, domainbooking.ErrNegativeRate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrCancelledByRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
