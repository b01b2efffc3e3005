package booking

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DateLayout is the wire format for calendar dates throughout the booking
// flow, matching the upstream blocked-dates endpoint.
const DateLayout = "2006-01-02"

var (
	// ErrDatesRequired blocks the details step when a travel booking is
	// missing either date.
	ErrDatesRequired = errors.New("check-in and check-out dates are required")
	// ErrDateOrder blocks the details step unless check-out is strictly
	// after check-in.
	ErrDateOrder = errors.New("check-out date must be after check-in date")
)

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return t, nil
}

// ValidateDates checks a check-in/check-out pair against the property's
// blocked-date set. The stay occupies [checkIn, checkOut): check-out day
// itself may be someone else's check-in, so it is not required to be free.
func ValidateDates(checkIn, checkOut string, blocked []string) error {
	if checkIn == "" || checkOut == "" {
		return ErrDatesRequired
	}
	in, err := ParseDate(checkIn)
	if err != nil {
		return err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return err
	}
	if !out.After(in) {
		return ErrDateOrder
	}

	blockedSet := make(map[string]bool, len(blocked))
	for _, d := range blocked {
		blockedSet[d] = true
	}
	for d := in; d.Before(out); d = d.AddDate(0, 0, 1) {
		if blockedSet[d.Format(DateLayout)] {
			return fmt.Errorf("date %s is unavailable for this property", d.Format(DateLayout))
		}
	}
	return nil
}

// Nights returns the whole number of nights between two parsed dates,
// rounding partial days up.
func Nights(checkIn, checkOut time.Time) int {
	return int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
}

// Total computes the amount charged for a stay: the daily rate times the
// night count, with a one-night minimum.
func Total(dailyRate float64, checkIn, checkOut string) (float64, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return 0, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return 0, err
	}
	nights := Nights(in, out)
	if nights < 1 {
		nights = 1
	}
	return dailyRate * float64(nights), nil
}
