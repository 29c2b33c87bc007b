// Package suspension maps a playback position onto the market status configured
// for that part of the video.
package suspension

import (
	"errors"
	"fmt"
	"math"

	"finnduel-overlay-backend/models"
)

var (
	// ErrInvalidWindow is returned for windows that could never match
	ErrInvalidWindow = errors.New("invalid time window")
	// ErrUnknownStatus is returned for windows tagged with an unrecognised status
	ErrUnknownStatus = errors.New("unknown market status")
)

// Evaluate returns the status of the first window containing position, or
// StatusOpen when none does. Windows are half-open: start is included, end is not.
// Overlapping windows are resolved by list order, not by specificity.
func Evaluate(position float64, windows []models.TimeWindow) models.MarketStatus {
	for _, w := range windows {
		if position >= w.Start && position < w.End {
			return w.Status
		}
	}
	return models.StatusOpen
}

// Schedule is a validated, immutable list of time windows
type Schedule struct {
	windows []models.TimeWindow
}

// NewSchedule validates windows and returns a schedule holding its own copy of them
func NewSchedule(windows []models.TimeWindow) (*Schedule, error) {
	for i, w := range windows {
		if err := ValidateWindow(w); err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
	}

	copied := make([]models.TimeWindow, len(windows))
	copy(copied, windows)
	return &Schedule{windows: copied}, nil
}

// ValidateWindow checks a single window
func ValidateWindow(w models.TimeWindow) error {
	if math.IsNaN(w.Start) || math.IsNaN(w.End) || math.IsInf(w.Start, 0) {
		return fmt.Errorf("%w: bounds must be numbers", ErrInvalidWindow)
	}
	if w.Start < 0 {
		return fmt.Errorf("%w: start %.3f is negative", ErrInvalidWindow, w.Start)
	}
	if w.End <= w.Start {
		return fmt.Errorf("%w: end %.3f must be after start %.3f", ErrInvalidWindow, w.End, w.Start)
	}
	if !w.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, w.Status)
	}
	return nil
}

// Evaluate returns the status for position
func (s *Schedule) Evaluate(position float64) models.MarketStatus {
	return Evaluate(position, s.windows)
}

// Windows returns a copy of the configured windows in evaluation order
func (s *Schedule) Windows() []models.TimeWindow {
	out := make([]models.TimeWindow, len(s.windows))
	copy(out, s.windows)
	return out
}

// Len returns the number of windows
func (s *Schedule) Len() int {
	return len(s.windows)
}
