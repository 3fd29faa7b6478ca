package leads

import (
	"strconv"
	"time"
)

// Lead is one normalized profile destined for the sheet. It is immutable once
// built by Normalize; a Lead has no identity beyond its position as a row.
type Lead struct {
	Timestamp   time.Time
	Topic       string
	Name        string
	Username    string
	Handle      string
	Description string
	Followers   int64
}

// Columns is the fixed output column order for every sink.
var Columns = []string{
	"Timestamp",
	"Topic",
	"Name",
	"Username",
	"Handle",
	"Description",
	"Followers",
}

// timeLayout matches the sheet's timestamp convention: UTC, second precision.
const timeLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t the way it appears in the Timestamp column.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timeLayout) + " UTC"
}

// Row renders the Lead as the seven sheet columns. A zero follower count
// renders as an empty cell rather than "0".
func (l Lead) Row() []string {
	followers := ""
	if l.Followers != 0 {
		followers = strconv.FormatInt(l.Followers, 10)
	}
	return []string{
		FormatTimestamp(l.Timestamp),
		l.Topic,
		l.Name,
		l.Username,
		l.Handle,
		l.Description,
		followers,
	}
}
