package reminder

import (
	"testing"
	"time"
)

func TestMinutesUntil(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		in   time.Duration
		want int
	}{
		{15 * time.Minute, 15},
		{14*time.Minute + 29*time.Second, 14},
		{14*time.Minute + 30*time.Second, 15},
		{5*time.Minute + time.Second, 5},
		{24*time.Minute + 59*time.Second, 25},
	}
	for _, tt := range tests {
		if got := MinutesUntil(now.Add(tt.in), now); got != tt.want {
			t.Errorf("MinutesUntil(+%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBuildNotification_Defaults(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	n := BuildNotification(MessageConfig{BaseURL: "https://app.studiofisyo.it/"}, Appointment{
		StartsAt:    now.Add(8 * time.Minute),
		PatientName: "Luca Bianchi",
		ServiceName: "Osteopathy",
	}, now)

	if n.Title != DefaultTitle {
		t.Errorf("Expected default title, got %q", n.Title)
	}
	if n.Body != "In 8 min: Luca Bianchi - Osteopathy" {
		t.Errorf("Unexpected body %q", n.Body)
	}
	if n.URL != "https://app.studiofisyo.it/operator/appointments" {
		t.Errorf("Unexpected url %q", n.URL)
	}
}

func TestWindow_Contains(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	w := NewWindow(now)
	tests := []struct {
		name string
		in   time.Duration
		want bool
	}{
		{"4m59s", 4*time.Minute + 59*time.Second, false},
		{"exactly 5m", 5 * time.Minute, false},
		{"15m", 15 * time.Minute, true},
		{"exactly 25m", 25 * time.Minute, false},
		{"25m01s", 25*time.Minute + time.Second, false},
		{"past", -time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(now.Add(tt.in)); got != tt.want {
				t.Errorf("Contains(+%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
