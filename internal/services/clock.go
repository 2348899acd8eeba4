package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time. Services store UTC at microsecond
// precision so values survive a round trip through Postgres unchanged.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func newID() string { return uuid.NewString() }

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// validDate accepts calendar dates in YYYY-MM-DD form.
func validDate(s *string) bool {
	if s == nil {
		return true
	}
	_, err := time.Parse("2006-01-02", *s)
	return err == nil
}
