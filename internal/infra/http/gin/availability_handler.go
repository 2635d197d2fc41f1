package ginserver

import (
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	AvailabilityApp "staybook/internal/app/handlers/availability"
	"staybook/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
}

// Check answers GET /availability?unit_ids=a,b&check_in=...&check_out=...
// It is a hint only; the booking transaction re-checks under lock.
func (h AvailabilityHandler) Check(c *gin.Context) {
	unitIDs := splitCSV(c.Query("unit_ids"))
	if len(unitIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unit_ids required"})
		return
	}
	checkIn, err := time.Parse(time.RFC3339, c.Query("check_in"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in must be RFC3339"})
		return
	}
	checkOut, err := time.Parse(time.RFC3339, c.Query("check_out"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_out must be RFC3339"})
		return
	}
	q := AvailabilityApp.CheckAvailabilityQuery{
		UnitIDs:          unitIDs,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		ExcludeBookingID: c.Query("exclude_booking_id"),
	}
	result, err := queries.Ask[AvailabilityApp.CheckAvailabilityQuery, *AvailabilityApp.CheckAvailabilityResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"unavailable_unit_ids": result.Unavailable,
		"available":            len(result.Unavailable) == 0,
	})
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var _ AvailabilityHTTP = AvailabilityHandler{}
