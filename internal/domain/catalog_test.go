package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Solar Fund", "solar-fund"},
		{"punctuation collapses", "Green Bonds 2.0!", "green-bonds-2-0"},
		{"leading and trailing junk", "  --Acme-- ", "acme"},
		{"already a slug", "wind-coop", "wind-coop"},
		{"only junk", "!!!", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.in))
		})
	}
}

func TestNewSessionIDDerivedFromClock(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "session-1709287200000", NewSessionID(at))
	assert.Equal(t, "idea-1709287200000", NewIdeaID(at))
}

func TestTimestampIsUTCRFC3339(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, loc)

	assert.Equal(t, "2024-03-01T10:00:00Z", Timestamp(at))
}
