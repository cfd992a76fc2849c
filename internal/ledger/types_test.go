package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateParsingLeniency(t *testing.T) {
	want := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, parseDate("2026-08-28"))

	// Absent and malformed values both decode as unset.
	assert.True(t, parseDate("").IsZero())
	assert.True(t, parseDate("28/08/2026").IsZero())

	assert.Equal(t, time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC),
		parseTime("2026-08-28T09:30:00Z").UTC())
	assert.True(t, parseTime("").IsZero())
	assert.True(t, parseTime("yesterday").IsZero())
}
