package leads

import (
	"reflect"
	"testing"
	"time"

	"github.com/adamind/xleads/internal/provider"
)

var testTime = time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)

func TestNormalize_OneLeadPerRecord(t *testing.T) {
	records := []provider.Record{
		{"title": "Jane Doe", "url": "https://x.com/janedoe", "description": "Cardano dev"},
		{}, // empty record still yields a lead
		{"unknownKey": "whatever"},
	}

	out := Normalize(records, "cardano devs", testTime)
	if len(out) != len(records) {
		t.Fatalf("expected %d leads, got %d", len(records), len(out))
	}

	for i, l := range out {
		if l.Topic != "cardano devs" {
			t.Errorf("lead %d: expected topic to carry through, got %q", i, l.Topic)
		}
		if !l.Timestamp.Equal(testTime) {
			t.Errorf("lead %d: expected shared batch timestamp", i)
		}
		if got := len(l.Row()); got != 7 {
			t.Errorf("lead %d: expected 7 columns, got %d", i, got)
		}
	}

	if out[1].Name != "" || out[1].Followers != 0 {
		t.Errorf("empty record should produce an empty lead, got %+v", out[1])
	}
}

func TestNormalize_RoundTrip(t *testing.T) {
	rec := provider.Record{
		"name":      "Jane Doe",
		"username":  "janedoe",
		"handle":    "@janedoe",
		"bio":       "Cardano dev",
		"followers": float64(1200),
	}

	l := Normalize([]provider.Record{rec}, "t", testTime)[0]

	if l.Name != "Jane Doe" {
		t.Errorf("Name: got %q", l.Name)
	}
	if l.Username != "janedoe" {
		t.Errorf("Username: got %q", l.Username)
	}
	if l.Handle != "@janedoe" {
		t.Errorf("Handle: got %q", l.Handle)
	}
	if l.Description != "Cardano dev" {
		t.Errorf("Description: got %q", l.Description)
	}
	if l.Followers != 1200 {
		t.Errorf("Followers: got %d", l.Followers)
	}
}

func TestNormalize_MissingDescription(t *testing.T) {
	rec := provider.Record{
		"title": "Jane Doe",
		"url":   "https://x.com/janedoe",
	}

	l := Normalize([]provider.Record{rec}, "t", testTime)[0]
	if l.Description != "" {
		t.Errorf("expected empty description, got %q", l.Description)
	}
	if l.Name != "Jane Doe" || l.Username != "janedoe" {
		t.Errorf("other fields should be intact, got %+v", l)
	}
}

func TestNormalize_ProviderKeys(t *testing.T) {
	rec := provider.Record{
		"title":           "Jane Doe (@janedoe) on X",
		"url":             "https://x.com/janedoe?ref=srp",
		"snippet":         "Building on <b>Cardano</b>.",
		"followersAmount": "12.3K",
	}

	l := Normalize([]provider.Record{rec}, "t", testTime)[0]
	if l.Username != "janedoe" {
		t.Errorf("expected username extracted from URL, got %q", l.Username)
	}
	if l.Description != "Building on Cardano." {
		t.Errorf("expected markup stripped from snippet, got %q", l.Description)
	}
	if l.Followers != 12300 {
		t.Errorf("expected 12300 followers, got %d", l.Followers)
	}
}

func TestScenarioRow(t *testing.T) {
	rec := provider.Record{
		"name":      "Jane Doe",
		"handle":    "@janedoe",
		"bio":       "Cardano dev",
		"followers": float64(1200),
	}

	l := Normalize([]provider.Record{rec}, "hiring a cardano dev", testTime)[0]
	want := []string{
		FormatTimestamp(testTime),
		"hiring a cardano dev",
		"Jane Doe",
		"",
		"@janedoe",
		"Cardano dev",
		"1200",
	}
	if got := l.Row(); !reflect.DeepEqual(got, want) {
		t.Errorf("row mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestRow_ZeroFollowersRendersEmpty(t *testing.T) {
	row := Lead{Timestamp: testTime}.Row()
	if row[6] != "" {
		t.Errorf("expected empty followers cell, got %q", row[6])
	}
}

func TestFormatTimestamp(t *testing.T) {
	got := FormatTimestamp(testTime)
	if got != "2025-06-01 12:30:45 UTC" {
		t.Errorf("unexpected timestamp format: %q", got)
	}
}

func TestParseFollowers(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1234", 1234},
		{"1,234", 1234},
		{"12.3K", 12300},
		{"12.3k", 12300},
		{"1.2M", 1200000},
		{"1.2m Followers", 1200000},
		{"  980 ", 980},
		{"", 0},
		{"no digits here", 0},
	}

	for _, tc := range cases {
		if got := ParseFollowers(tc.in); got != tc.want {
			t.Errorf("ParseFollowers(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestUsernameFromURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://x.com/janedoe", "janedoe"},
		{"https://x.com/janedoe?ref=abc", "janedoe"},
		{"https://x.com/janedoe/status/123", "janedoe"},
		{"https://X.COM/JaneDoe", "JaneDoe"},
		{"@janedoe", ""},
		{"https://example.com/janedoe", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := UsernameFromURL(tc.in); got != tc.want {
			t.Errorf("UsernameFromURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFlattenText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain  text", "plain text"},
		{"nbsp here", "nbsp here"},
		{"<b>Cardano</b> builder", "Cardano builder"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := FlattenText(tc.in); got != tc.want {
			t.Errorf("FlattenText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
