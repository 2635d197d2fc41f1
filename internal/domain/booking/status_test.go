package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("checked_in")
	assert.NoError(t, err)
	assert.Equal(t, StatusCheckedIn, s)

	_, err = ParseStatus("CONFIRMED")
	assert.Error(t, err, "status tokens are lower_snake_case only")

	_, err = ParseStatus("on_hold")
	assert.Error(t, err)
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCheckedIn, false},
		{StatusConfirmed, StatusCheckedIn, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusRejected, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCheckedIn, StatusCheckedOut, true},
		{StatusCheckedIn, StatusCancelled, false},
		{StatusCheckedOut, StatusCompleted, true},
		{StatusCheckedOut, StatusCheckedIn, false},
		{StatusRejected, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCheckedOut, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestTerminalStatusesHaveNoEgress(t *testing.T) {
	for _, s := range []Status{StatusRejected, StatusCancelled, StatusCompleted} {
		assert.True(t, IsTerminal(s), string(s))
		assert.Empty(t, LegalDestinations(s), string(s))
	}
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut} {
		assert.False(t, IsTerminal(s), string(s))
	}
}

func TestBlockingStatuses(t *testing.T) {
	assert.ElementsMatch(t, []Status{StatusPending, StatusConfirmed, StatusCheckedIn}, BlockingStatuses())
	assert.False(t, IsBlocking(StatusCheckedOut), "guest already left, calendar is free")
	assert.False(t, IsBlocking(StatusRejected))
	assert.False(t, IsBlocking(StatusCancelled))
	assert.False(t, IsBlocking(StatusCompleted))
}

func TestLegalDestinationsReturnsCopy(t *testing.T) {
	row := LegalDestinations(StatusPending)
	row[0] = StatusCompleted
	assert.NotContains(t, LegalDestinations(StatusPending), StatusCompleted)
}
