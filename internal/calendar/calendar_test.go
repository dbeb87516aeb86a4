package calendar

import (
	"testing"
	"time"
)

func TestIsClosed(t *testing.T) {
	tests := []struct {
		name   string
		when   time.Time
		closed bool
	}{
		{"saturday midnight", time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), true},
		{"saturday noon", time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC), true},
		{"saturday last hour", time.Date(2024, 3, 16, 23, 59, 0, 0, time.UTC), true},
		{"sunday 21:00", time.Date(2024, 3, 17, 21, 0, 0, 0, time.UTC), true},
		{"sunday 22:00 reopen", time.Date(2024, 3, 17, 22, 0, 0, 0, time.UTC), false},
		{"friday 21:59", time.Date(2024, 3, 15, 21, 59, 0, 0, time.UTC), false},
		{"friday 22:00 close", time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC), true},
		{"wednesday", time.Date(2024, 3, 13, 3, 0, 0, 0, time.UTC), false},
		{"monday open", time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsClosed(tt.when); got != tt.closed {
				t.Errorf("IsClosed(%s) = %v, want %v", tt.when, got, tt.closed)
			}
		})
	}
}

func TestIsClosedNonUTCInput(t *testing.T) {
	// Friday 22:30 UTC expressed in a +02:00 zone is still inside the close.
	loc := time.FixedZone("EET", 2*3600)
	if !IsClosed(time.Date(2024, 3, 16, 0, 30, 0, 0, loc)) {
		t.Error("expected closed for Friday 22:30 UTC given in EET")
	}
}
