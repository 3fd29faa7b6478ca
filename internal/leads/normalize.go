package leads

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/adamind/xleads/internal/provider"
)

// Normalize maps raw provider records onto fixed-shape Leads. It is pure and
// total: every record yields exactly one Lead, with empty strings (or a zero
// follower count) standing in for anything the provider did not supply. A
// record that cannot be meaningfully mapped produces a mostly-empty Lead
// rather than an error.
func Normalize(records []provider.Record, topic string, now time.Time) []Lead {
	out := make([]Lead, 0, len(records))
	for _, rec := range records {
		out = append(out, normalizeOne(rec, topic, now))
	}
	return out
}

func normalizeOne(rec provider.Record, topic string, now time.Time) Lead {
	handle := stringField(rec, "url", "link", "handle")
	username := stringField(rec, "username")
	if username == "" {
		username = UsernameFromURL(handle)
	}

	return Lead{
		Timestamp:   now,
		Topic:       topic,
		Name:        cleanText(stringField(rec, "title", "name")),
		Username:    username,
		Handle:      handle,
		Description: FlattenText(stringField(rec, "description", "snippet", "bio")),
		Followers:   followersField(rec, "followersAmount", "followers"),
	}
}

// stringField returns the first non-empty string value among the given keys.
func stringField(rec provider.Record, keys ...string) string {
	for _, k := range keys {
		if s, ok := rec[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// followersField resolves a follower count from the given keys. JSON numbers
// arrive as float64; anything textual goes through ParseFollowers.
func followersField(rec provider.Record, keys ...string) int64 {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case float64:
			return int64(math.Round(v))
		case int:
			return int64(v)
		case int64:
			return v
		case string:
			if v != "" {
				return ParseFollowers(v)
			}
		}
	}
	return 0
}

var (
	followerRe = regexp.MustCompile(`([\d,.]+)\s*([KkMm])?`)
	nonDigitRe = regexp.MustCompile(`\D`)
	usernameRe = regexp.MustCompile(`(?i)x\.com/([^/?#]+)`)
)

// ParseFollowers converts follower strings like "12.3K", "1.2M" or "1,234"
// into an integer count. Unparseable input yields 0.
func ParseFollowers(text string) int64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	m := followerRe.FindStringSubmatch(text)
	if m == nil {
		digits := nonDigitRe.ReplaceAllString(text, "")
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}

	num, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}

	switch strings.ToLower(m[2]) {
	case "k":
		num *= 1_000
	case "m":
		num *= 1_000_000
	}
	return int64(math.Round(num))
}

// UsernameFromURL extracts the account name from an x.com profile URL.
// Non-profile input (including bare "@handle" strings) yields "".
func UsernameFromURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	m := usernameRe.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// FlattenText strips any markup from a snippet and collapses whitespace.
// Search providers occasionally return bio text with embedded HTML.
func FlattenText(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return cleanText(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return cleanText(s)
	}
	return cleanText(doc.Text())
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}
