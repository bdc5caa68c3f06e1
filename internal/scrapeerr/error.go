package scrapeerr

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

type Type string

const (
	Navigation    Type = "NAVIGATION_ERROR"
	TableNotFound Type = "TABLE_NOT_FOUND"
	DataStructure Type = "DATA_STRUCTURE_ERROR"
	Extraction    Type = "EXTRACTION_ERROR"
	Network       Type = "NETWORK_ERROR"
	Unknown       Type = "UNKNOWN_ERROR"
)

// Known reports whether t is one of the wire error types.
func (t Type) Known() bool {
	switch t {
	case Navigation, TableNotFound, DataStructure, Extraction, Network, Unknown:
		return true
	}
	return false
}

// Sentinel prefixes a structured error line on the renderer's stderr.
const Sentinel = "ERROR_JSON: "

// Error is the envelope the renderer reports failures with.
type Error struct {
	Type      Type           `json:"errorType"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

func New(t Type, msg string, details map[string]any) *Error {
	return &Error{Type: t, Message: msg, Timestamp: time.Now().UTC(), Details: details}
}

func Newf(t Type, format string, args ...any) *Error {
	return New(t, fmt.Sprintf(format, args...), nil)
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// With returns e with one more detail attached.
func (e *Error) With(key string, v any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = v
	return e
}

// Emit writes e as a single sentinel line.
func Emit(w io.Writer, e *Error) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	bw.WriteString(Sentinel)
	bw.Write(b)
	bw.WriteByte('\n')
	return bw.Flush()
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

// UnmarshalJSON tolerates any timestamp form: RFC 3339 and a few common
// layouts, or epoch milliseconds. Anything else decodes as the zero time so
// the type and details still come through.
func (e *Error) UnmarshalJSON(b []byte) error {
	type envelope Error
	var raw struct {
		envelope
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = Error(raw.envelope)
	e.Timestamp = parseTimestamp(raw.Timestamp)
	return nil
}

func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseLine inspects one diagnostic line. ok is false for ordinary log
// output; err is set when the sentinel is present but the payload is not a
// valid envelope.
func ParseLine(line string) (e *Error, ok bool, err error) {
	line = strings.TrimRight(line, "\r\n")
	rest, found := strings.CutPrefix(line, Sentinel)
	if !found {
		return nil, false, nil
	}
	var out Error
	if err := json.Unmarshal([]byte(rest), &out); err != nil {
		return nil, true, fmt.Errorf("decode %s payload: %w", strings.TrimSpace(Sentinel), err)
	}
	if !out.Type.Known() {
		out.Type = Unknown
	}
	return &out, true, nil
}
