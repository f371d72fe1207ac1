package expense

import (
	"testing"
	"time"
)

func TestMonthTab(t *testing.T) {
	date := time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	if got := MonthTab(date); got != "August 2026" {
		t.Errorf("MonthTab = %q, want %q", got, "August 2026")
	}
}

func TestParseMonthTab(t *testing.T) {
	tests := []struct {
		title string
		ok    bool
	}{
		{"August 2026", true},
		{"January 2006", true},
		{"Sheet1", false},
		{"Budget", false},
		{"august 2026", false},
		{"August", false},
		{"", false},
	}

	for _, tt := range tests {
		if _, ok := ParseMonthTab(tt.title); ok != tt.ok {
			t.Errorf("ParseMonthTab(%q) ok = %v, want %v", tt.title, ok, tt.ok)
		}
	}

	month, ok := ParseMonthTab("July 2026")
	if !ok {
		t.Fatal("expected July 2026 to parse")
	}
	if month.Month() != time.July || month.Year() != 2026 {
		t.Errorf("unexpected month %v", month)
	}
}
