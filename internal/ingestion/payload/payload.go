// Package payload implements tolerant field extraction from raw CRM webhook
// bodies. The CRM does not guarantee a payload schema: the same logical field
// can arrive at several nested locations, under different casing conventions,
// or as a different primitive type, depending on the integration version that
// produced the event. Each logical field therefore carries an ordered list of
// candidate paths, and one generic resolver walks them in priority order.
//
// Absence is an ordinary outcome here, never an error. Callers decide what a
// missing field means for their event type.
package payload

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Document is a raw, untyped webhook payload (a decoded JSON object).
type Document map[string]interface{}

// FromAny converts a decoded JSON value into a Document. Returns false when
// the body is not an object.
func FromAny(v interface{}) (Document, bool) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return Document(obj), true
}

// lookup walks a dotted path into nested objects. Returns false when any
// segment is missing or a non-object is traversed.
func (d Document) lookup(path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(d)
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// stringAt returns the trimmed string at path. Empty-after-trim counts as
// absent, matching how the CRM represents cleared workflow fields.
func (d Document) stringAt(path string) (string, bool) {
	v, ok := d.lookup(path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// String resolves a logical field to a non-empty trimmed string, walking the
// field's candidate paths in priority order.
func (d Document) String(field Field) (string, bool) {
	for _, path := range pathsFor(field) {
		if s, ok := d.stringAt(path); ok {
			return s, true
		}
	}
	return "", false
}

// StringOr resolves a string field with a fallback.
func (d Document) StringOr(field Field, fallback string) string {
	if s, ok := d.String(field); ok {
		return s
	}
	return fallback
}

// crmIDRe matches the shape of CRM record identifiers. Values that fail the
// check (free text pasted into an id field, literal "null", oversized blobs)
// are treated as absent so they never reach a foreign-key column.
var crmIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ExternalID resolves a logical field to a CRM identifier. The priority
// search is the same as String, with an additional shape check per path;
// a malformed value is skipped, not fatal.
func (d Document) ExternalID(field Field) (string, bool) {
	for _, path := range pathsFor(field) {
		s, ok := d.stringAt(path)
		if !ok {
			continue
		}
		if lower := strings.ToLower(s); lower == "null" || lower == "undefined" {
			continue
		}
		if crmIDRe.MatchString(s) {
			return s, true
		}
	}
	return "", false
}

// Timestamp resolves a logical field to a point in time. At each path it
// accepts epoch milliseconds (number or numeric string) or an ISO-8601
// string; an unparseable value is skipped and the search continues.
func (d Document) Timestamp(field Field) (time.Time, bool) {
	for _, path := range pathsFor(field) {
		v, ok := d.lookup(path)
		if !ok {
			continue
		}
		if t, ok := parseTimestamp(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// TimestampOr resolves a timestamp field with a fallback (typically the
// arrival time).
func (d Document) TimestampOr(field Field, fallback time.Time) time.Time {
	if t, ok := d.Timestamp(field); ok {
		return t
	}
	return fallback
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(v interface{}) (time.Time, bool) {
	switch typed := v.(type) {
	case float64:
		return fromEpochMillis(int64(typed))
	case string:
		s := strings.TrimSpace(typed)
		if s == "" {
			return time.Time{}, false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromEpochMillis(n)
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// fromEpochMillis accepts only values that are plausibly epoch milliseconds
// (12+ digits). Shorter numbers are more likely row counts or epoch seconds
// from a misconfigured workflow and are skipped.
func fromEpochMillis(n int64) (time.Time, bool) {
	if n < 100_000_000_000 {
		return time.Time{}, false
	}
	return time.UnixMilli(n).UTC(), true
}
