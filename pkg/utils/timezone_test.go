package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	defer SetLocation(DefaultLocation)

	SetLocation("UTC")
	ts := time.Date(2024, 8, 16, 19, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-08-16 19:00:00", FormatTime(ts))
	assert.Equal(t, "", FormatTime(time.Time{}))
	assert.Equal(t, ts.Unix(), UnixToLocal(ts.Unix()).Unix())
}

func TestSetLocationFallsBackToUTC(t *testing.T) {
	defer SetLocation(DefaultLocation)

	SetLocation("Not/AZone")
	assert.Equal(t, time.UTC, Location())

	SetLocation("")
	assert.Equal(t, time.UTC, Location())
}
