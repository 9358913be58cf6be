package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHealth(t *testing.T) {
	cuts := DefaultHealthCuts()

	tests := []struct {
		name     string
		peak     float64
		duration int
		expected string
	}{
		{"strong long season", 0.80, 180, HealthExcellent},
		{"strong but short season", 0.80, 100, HealthGood},
		{"high peak at duration boundary", 0.70, 150, HealthExcellent},
		{"good peak", 0.60, 90, HealthGood},
		{"good boundary", 0.55, 10, HealthGood},
		{"moderate peak", 0.45, 200, HealthModerate},
		{"moderate boundary", 0.40, 0, HealthModerate},
		{"weak season", 0.30, 120, HealthPoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyHealth(tt.peak, tt.duration, cuts))
		})
	}

	t.Run("empty cut table falls back to poor", func(t *testing.T) {
		assert.Equal(t, HealthPoor, ClassifyHealth(0.9, 300, nil))
	})
}
