package timeutil

import (
	"fmt"
	"time"
)

// Local is the warehouse's business time zone. Pallet numbers and
// "today"/"yesterday" windows are computed in it.
var Local *time.Location

func init() {
	var err error
	Local, err = time.LoadLocation("Europe/London")
	if err != nil {
		Local = time.UTC
	}
}

// SetLocation switches the business zone, e.g. from config.
func SetLocation(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("load location %q: %w", name, err)
	}
	Local = loc
	return nil
}

// Now returns the current time in the business zone.
func Now() time.Time {
	return time.Now().In(Local)
}

// StartOfDay returns 00:00:00 of t's day in the business zone.
func StartOfDay(t time.Time) time.Time {
	l := t.In(Local)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, Local)
}

// EndOfDay returns the last instant of t's day in the business zone.
func EndOfDay(t time.Time) time.Time {
	l := t.In(Local)
	return time.Date(l.Year(), l.Month(), l.Day(), 23, 59, 59, 999999999, Local)
}

// Yesterday returns the [start, end] range of the previous business day.
func Yesterday(now time.Time) (time.Time, time.Time) {
	y := StartOfDay(now).AddDate(0, 0, -1)
	return y, EndOfDay(y)
}

// PalletDatePrefix formats t as DDMMYY, the prefix of pallet numbers
// and series codes.
func PalletDatePrefix(t time.Time) string {
	return t.In(Local).Format("020106")
}

// ISO formats t the way remarks record it.
func ISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseDate parses a YYYY-MM-DD filter value in the business zone.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, Local)
}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006, 15:04"
)
