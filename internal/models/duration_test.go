package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationToken(t *testing.T) {
	tests := []struct {
		token   string
		seconds int
	}{
		{"10m", 600},
		{"1h", 3600},
		{"12h", 43200},
		{"1d", 86400},
		{"7d", 604800},
		{" 30M ", 1800},
	}

	for _, tt := range tests {
		seconds, err := ParseDurationToken(tt.token)
		require.NoError(t, err, "token %q", tt.token)
		assert.Equal(t, tt.seconds, seconds, "token %q", tt.token)
	}
}

func TestParseDurationTokenRejectsInvalid(t *testing.T) {
	for _, token := range []string{"", "10", "m", "10x", "-5m", "1.5h", "0m", "10m5", "d7"} {
		_, err := ParseDurationToken(token)
		assert.Error(t, err, "token %q", token)
	}
}

func TestFormatDurationToken(t *testing.T) {
	assert.Equal(t, "1d", FormatDurationToken(86400))
	assert.Equal(t, "12h", FormatDurationToken(43200))
	assert.Equal(t, "30m", FormatDurationToken(1800))
	assert.Equal(t, "90s", FormatDurationToken(90))
	assert.Equal(t, "2d", FormatDurationToken(172800))
}
