package suspension

import (
	"errors"
	"math"
	"testing"

	"finnduel-overlay-backend/models"
)

func suspended(start, end float64) models.TimeWindow {
	return models.TimeWindow{Start: start, End: end, Status: models.StatusSuspended}
}

func TestEvaluate(t *testing.T) {
	single := []models.TimeWindow{suspended(10, 20)}

	tests := []struct {
		name     string
		position float64
		windows  []models.TimeWindow
		want     models.MarketStatus
	}{
		{"before window", 5, single, models.StatusOpen},
		{"inclusive start", 10, single, models.StatusSuspended},
		{"inside window", 15.5, single, models.StatusSuspended},
		{"just before end", 19.999, single, models.StatusSuspended},
		{"exclusive end", 20, single, models.StatusOpen},
		{"after window", 42, single, models.StatusOpen},
		{"empty list", 15, nil, models.StatusOpen},
		{"negative position", -3, single, models.StatusOpen},
		{"positive infinity", math.Inf(1), single, models.StatusOpen},
		{"negative infinity", math.Inf(-1), single, models.StatusOpen},
		{"nan", math.NaN(), single, models.StatusOpen},
		{
			name:     "first match wins over more specific window",
			position: 15,
			windows: []models.TimeWindow{
				suspended(0, 30),
				{Start: 10, End: 20, Status: models.StatusOpen},
			},
			want: models.StatusSuspended,
		},
		{
			name:     "later window used when earlier does not match",
			position: 45,
			windows:  []models.TimeWindow{suspended(10, 20), suspended(40, 50)},
			want:     models.StatusSuspended,
		},
		{
			name:     "inverted window never matches",
			position: 15,
			windows:  []models.TimeWindow{suspended(20, 10)},
			want:     models.StatusOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.position, tt.windows); got != tt.want {
				t.Errorf("Evaluate(%v) = %q, want %q", tt.position, got, tt.want)
			}
		})
	}
}

func TestEvaluate_WindowOutsideRangeDoesNotDecide(t *testing.T) {
	// The first window never contains these positions, so the second must decide.
	windows := []models.TimeWindow{
		{Start: 10, End: 20, Status: models.StatusOpen},
		suspended(0, 100),
	}
	for _, pos := range []float64{0, 9.99, 20, 20.01, 99} {
		if got := Evaluate(pos, windows); got != models.StatusSuspended {
			t.Errorf("Evaluate(%v) = %q, want %q", pos, got, models.StatusSuspended)
		}
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	windows := []models.TimeWindow{suspended(10, 20)}
	before := windows[0]

	first := Evaluate(12, windows)
	for i := 0; i < 100; i++ {
		if got := Evaluate(12, windows); got != first {
			t.Fatalf("call %d returned %q, want %q", i, got, first)
		}
	}
	if windows[0] != before {
		t.Errorf("windows mutated: %+v", windows[0])
	}
}

func TestNewSchedule(t *testing.T) {
	tests := []struct {
		name    string
		windows []models.TimeWindow
		wantErr error
	}{
		{"empty", nil, nil},
		{"valid", []models.TimeWindow{suspended(10, 20)}, nil},
		{"end equals start", []models.TimeWindow{suspended(10, 10)}, ErrInvalidWindow},
		{"end before start", []models.TimeWindow{suspended(20, 10)}, ErrInvalidWindow},
		{"negative start", []models.TimeWindow{suspended(-1, 10)}, ErrInvalidWindow},
		{"nan bound", []models.TimeWindow{suspended(math.NaN(), 10)}, ErrInvalidWindow},
		{"unknown status", []models.TimeWindow{{Start: 0, End: 1, Status: "closed"}}, ErrUnknownStatus},
		{"unbounded end", []models.TimeWindow{suspended(0, math.Inf(1))}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchedule(tt.windows)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("NewSchedule() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewSchedule() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchedule_CopiesInput(t *testing.T) {
	windows := []models.TimeWindow{suspended(10, 20)}
	s, err := NewSchedule(windows)
	if err != nil {
		t.Fatalf("NewSchedule failed: %v", err)
	}

	windows[0].Status = models.StatusOpen
	if got := s.Evaluate(15); got != models.StatusSuspended {
		t.Errorf("Evaluate(15) = %q after caller mutation, want %q", got, models.StatusSuspended)
	}

	out := s.Windows()
	out[0].End = 1000
	if got := s.Evaluate(500); got != models.StatusOpen {
		t.Errorf("Evaluate(500) = %q after Windows() mutation, want %q", got, models.StatusOpen)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
