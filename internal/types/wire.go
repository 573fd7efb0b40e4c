package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WireTime decodes a remote timestamp sent either as epoch seconds or as an
// RFC 3339 string. Strings without a zone are read as UTC.
type WireTime float64

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (w *WireTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("timestamp is missing")
	}
	if data[0] != '"' {
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid numeric timestamp %s: %w", data, err)
		}
		*w = WireTime(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := ParseWireTimestamp(s)
	if err != nil {
		return err
	}
	*w = WireTime(TimeToEpoch(t))
	return nil
}

func (w WireTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(w), 'f', -1, 64)), nil
}

// ParseWireTimestamp parses an RFC 3339 or zone-less ISO 8601 timestamp
func ParseWireTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// RemoteRecord is a record as stored by the remote service
type RemoteRecord struct {
	ID          int64    `json:"id"`
	Timestamp   WireTime `json:"timestamp"`
	Category    string   `json:"category"`
	Duration    int64    `json:"duration"`
	WindowTitle string   `json:"window_title"`
	Source      *string  `json:"source"`
}

// ToActivity converts a remote record into a local one. local_date is left for
// the caller since it depends on the configured timezone.
func (r RemoteRecord) ToActivity() ActivityRecord {
	source := ""
	if r.Source != nil {
		source = *r.Source
	}
	return ActivityRecord{
		Timestamp:   float64(r.Timestamp),
		Duration:    r.Duration,
		Category:    r.Category,
		WindowTitle: r.WindowTitle,
		Source:      NormalizeSource(source),
	}
}

// LogSubmission is the body of POST /log
type LogSubmission struct {
	Timestamp   float64 `json:"timestamp"`
	Category    string  `json:"category"`
	Duration    int64   `json:"duration"`
	WindowTitle string  `json:"window_title"`
	Source      string  `json:"source,omitempty"`
}

// SubmissionFor builds the POST /log body for a local record
func SubmissionFor(r ActivityRecord) LogSubmission {
	return LogSubmission{
		Timestamp:   r.Timestamp,
		Category:    r.Category,
		Duration:    r.Duration,
		WindowTitle: r.WindowTitle,
		Source:      NormalizeSource(r.Source),
	}
}
