package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// EventFileName is the metadata document stored next to a clip's segments.
const EventFileName = "event.json"

// ThumbnailFileName is the preview image stored next to a clip's segments.
const ThumbnailFileName = "thumb.png"

// EventTimeLayout is the timestamp format written into event.json.
const EventTimeLayout = "2006-01-02T15:04:05"

var eventTimeLayouts = []string{
	EventTimeLayout,
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// EventMetadata is the optional event.json recorded with a saved or sentry
// clip. Optional fields keep their zero value when missing.
type EventMetadata struct {
	// Timestamp is when the event occurred. Always set.
	Timestamp time.Time `json:"timestamp"`

	// City is the nearest city reported by the vehicle.
	City string `json:"city,omitempty"`

	// EstLat is the estimated latitude.
	EstLat float64 `json:"est_lat,omitempty"`

	// EstLon is the estimated longitude.
	EstLon float64 `json:"est_lon,omitempty"`

	// Reason names what triggered the recording.
	Reason string `json:"reason,omitempty"`

	// Camera is the index of the camera the event is tied to.
	Camera int `json:"camera,omitempty"`
}

type eventDocument struct {
	Timestamp *string   `json:"timestamp"`
	City      string    `json:"city"`
	EstLat    flexFloat `json:"est_lat"`
	EstLon    flexFloat `json:"est_lon"`
	Reason    string    `json:"reason"`
	Camera    flexInt   `json:"camera"`
}

// ParseEvent decodes an event.json document. It returns false when the
// document is not valid JSON, when any field has the wrong shape, or when
// the timestamp is missing or unparseable. A bad document is treated the same
// as a missing one.
func ParseEvent(data []byte) (*EventMetadata, bool) {
	var doc eventDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	if doc.Timestamp == nil {
		return nil, false
	}
	ts, ok := parseEventTime(*doc.Timestamp)
	if !ok {
		return nil, false
	}
	return &EventMetadata{
		Timestamp: ts,
		City:      doc.City,
		EstLat:    float64(doc.EstLat),
		EstLon:    float64(doc.EstLon),
		Reason:    doc.Reason,
		Camera:    int(doc.Camera),
	}, true
}

func parseEventTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range eventTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

var errNotNumeric = errors.New("value is not numeric")

// flexFloat accepts a JSON number or a string holding one.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	raw, err := numericLiteral(b)
	if err != nil || raw == "" {
		return err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return errNotNumeric
	}
	*f = flexFloat(v)
	return nil
}

// flexInt accepts a JSON integer or a string holding one.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	raw, err := numericLiteral(b)
	if err != nil || raw == "" {
		return err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return errNotNumeric
	}
	*n = flexInt(v)
	return nil
}

// numericLiteral unwraps a quoted number. It returns "" for JSON null.
func numericLiteral(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return "", errNotNumeric
		}
		return s, nil
	}
	return string(b), nil
}
