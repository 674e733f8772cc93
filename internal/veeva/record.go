package veeva

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Record is one upstream object row. Field names drift across Veeva tenants
// and versions, so lookups take an ordered list of candidate keys and the
// whole record is retained as the raw payload.
type Record map[string]any

// String returns the first non-empty string value among the candidate keys.
func (r Record) String(keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if strings.TrimSpace(s) != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(s)
		}
	}
	return ""
}

// Int returns the first numeric value among the candidate keys.
func (r Record) Int(keys ...string) (int, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n), true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i), true
			}
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}

// Time returns the first parseable timestamp among the candidate keys.
// Veeva emits both bare dates and full RFC 3339 timestamps.
func (r Record) Time(keys ...string) *time.Time {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
	}
	return nil
}

// decodeRecords parses an object listing response body. Tenants wrap the rows
// differently: `{"data": [...]}`, `{"records": [...]}`, or a bare array.
func decodeRecords(body io.Reader) ([]Record, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data    []Record `json:"data"`
		Records []Record `json:"records"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Data != nil {
			return envelope.Data, nil
		}
		if envelope.Records != nil {
			return envelope.Records, nil
		}
	}

	var list []Record
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	return nil, fmt.Errorf("unrecognized object listing shape")
}
