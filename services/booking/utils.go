package booking

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dateLayout = "2006-01-02"

var (
	hexIDPattern      = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	timeWindowPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]-([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// isValidID reports whether s looks like a 24-character hex identifier.
func isValidID(s string) bool {
	return hexIDPattern.MatchString(s)
}

// isValidDate reports whether s is a "YYYY-MM-DD" calendar date.
func isValidDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// isValidTimeWindow reports whether s looks like "10:00-11:00".
func isValidTimeWindow(s string) bool {
	return timeWindowPattern.MatchString(s)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// newID mints a 24-character hex identifier.
func newID() string {
	return primitive.NewObjectID().Hex()
}
