package timeutil

import (
	"testing"
	"time"
)

func TestPalletDatePrefix(t *testing.T) {
	ts := time.Date(2025, time.May, 25, 10, 30, 0, 0, Local)
	if got := PalletDatePrefix(ts); got != "250525" {
		t.Errorf("Expected 250525, got %s", got)
	}
}

func TestYesterday(t *testing.T) {
	now := time.Date(2025, time.March, 1, 9, 0, 0, 0, Local)
	start, end := Yesterday(now)

	if start.Day() != 28 || start.Month() != time.February {
		t.Errorf("Expected start on 28 Feb, got %v", start)
	}
	if start.Hour() != 0 || start.Minute() != 0 {
		t.Errorf("Expected start at midnight, got %v", start)
	}
	if end.Day() != 28 || end.Hour() != 23 {
		t.Errorf("Expected end late on 28 Feb, got %v", end)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-01")
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	if d.Location() != Local {
		t.Errorf("Expected business location, got %v", d.Location())
	}
	if _, err := ParseDate("01/06/2025"); err == nil {
		t.Error("Expected error for non ISO date")
	}
}
