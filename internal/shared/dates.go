package shared

import (
	"errors"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDateWindow parses from/to query values. Missing values default to
// the current month of the reference clock. To may not precede from.
func ParseDateWindow(fromRaw, toRaw string, now time.Time) (time.Time, time.Time, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := monthStart
	to := monthStart.AddDate(0, 1, -1)
	var err error
	if fromRaw != "" {
		if from, err = time.Parse(dateLayout, fromRaw); err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be YYYY-MM-DD")
		}
	}
	if toRaw != "" {
		if to, err = time.Parse(dateLayout, toRaw); err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be YYYY-MM-DD")
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to must not precede from")
	}
	return from, to, nil
}
