package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"gamedash/internal/models"
)

// Clock supplies the reference instant for reports
type Clock func() time.Time

// parseDate reads an optional date query parameter. Plain dates are taken in
// loc; with endOfDay set they cover the whole day.
func parseDate(q url.Values, key string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	value := q.Get(key)
	if value == "" {
		return nil, nil
	}

	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("invalid %s: want YYYY-MM-DD or RFC 3339", key)
}

// parseInt reads an optional integer query parameter
func parseInt(q url.Values, key string, defaultValue int) (int, error) {
	value := q.Get(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: want an integer", key)
	}
	return n, nil
}

func gameTypeParam(q url.Values) models.GameType {
	return models.GameType(q.Get("gameType"))
}
