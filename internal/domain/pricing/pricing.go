package pricing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"staybook/internal/domain/shared/dates"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/unit"
)

// RequestedLine is what the client asks for. Any price the client submits is
// ignored; the server resolves rates itself.
type RequestedLine struct {
	UnitID unit.ID
	Nights int
}

// ResolvedLine carries the authoritative per-line pricing derived from the
// unit's live rate at computation time.
type ResolvedLine struct {
	UnitID        unit.ID
	Nights        int
	PricePerNight money.Money
	LineTotal     money.Money
}

// ResolutionError reports requested units that had no resolvable rate. The
// caller's transaction must roll back; a silently shrunken total is worse
// than a failed booking.
type ResolutionError struct {
	Missing []unit.ID
}

func (e *ResolutionError) Error() string {
	ids := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		ids[i] = string(id)
	}
	return fmt.Sprintf("pricing: no current rate for units: %s", strings.Join(ids, ", "))
}

var errNoLines = fmt.Errorf("pricing: at least one requested line required")

// ComputeTotal prices the requested lines from the live rates and sums them.
// It is pure: identical inputs always produce identical output.
func ComputeTotal(requested []RequestedLine, rates map[unit.ID]money.Money) (money.Money, []ResolvedLine, error) {
	if len(requested) == 0 {
		return money.Money{}, nil, errNoLines
	}
	var missing []unit.ID
	resolved := make([]ResolvedLine, 0, len(requested))
	var total money.Money
	for _, line := range requested {
		rate, ok := rates[line.UnitID]
		if !ok {
			missing = append(missing, line.UnitID)
			continue
		}
		lineTotal := rate.Multiply(int64(line.Nights))
		resolved = append(resolved, ResolvedLine{
			UnitID:        line.UnitID,
			Nights:        line.Nights,
			PricePerNight: rate,
			LineTotal:     lineTotal,
		})
		if total.Currency == "" {
			total = lineTotal
			continue
		}
		sum, err := total.Add(lineTotal)
		if err != nil {
			return money.Money{}, nil, err
		}
		total = sum
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return money.Money{}, nil, &ResolutionError{Missing: missing}
	}
	return total, resolved, nil
}

// NightsBetween counts stay nights the same way the availability checker
// counts overlap days, so the two can never disagree about stay length.
func NightsBetween(checkIn, checkOut time.Time) int {
	return dates.NightsBetween(checkIn, checkOut)
}
