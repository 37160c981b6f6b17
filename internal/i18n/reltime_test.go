package i18n

import (
	"testing"
	"time"
)

func TestAge(t *testing.T) {
	Init("en")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, ""},
		{now.Add(-3 * time.Hour), "today"},
		{now.Add(-36 * time.Hour), "1d ago"},
		{now.Add(-5 * 24 * time.Hour), "5d ago"},
		{now.Add(-60 * 24 * time.Hour), "2mo ago"},
		{now.Add(-400 * 24 * time.Hour), "1y ago"},
	}
	for _, tt := range tests {
		if got := Age(tt.at, now); got != tt.want {
			t.Errorf("Age(%v before) = %q, want %q", now.Sub(tt.at), got, tt.want)
		}
	}
}

func TestAge_German(t *testing.T) {
	Init("de")
	defer Init("en")
	now := time.Now()
	if got := Age(now.Add(-5*24*time.Hour), now); got != "vor 5 T." {
		t.Errorf("Age = %q", got)
	}
}
