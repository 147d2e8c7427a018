package download

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		name     string
		attempt  int
		expected time.Duration
	}{
		{name: "first attempt", attempt: 1, expected: 7 * time.Second},
		{name: "second attempt", attempt: 2, expected: 9 * time.Second},
		{name: "third attempt", attempt: 3, expected: 13 * time.Second},
		{name: "zero clamps to first", attempt: 0, expected: 7 * time.Second},
		{name: "negative clamps to first", attempt: -5, expected: 7 * time.Second},
		{name: "exponent capped", attempt: 50, expected: 1024*time.Second + 5*time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Backoff(tt.attempt))
		})
	}
}

func TestBackoff_Deterministic(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		assert.Equal(t, Backoff(attempt), Backoff(attempt))
	}
}
