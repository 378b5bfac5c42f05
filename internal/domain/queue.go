package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// QueueItem is one unit of work fetched from the producer API. It is consumed
// once per poll cycle and never mutated.
//
// The producer is lenient about types: ids arrive as strings or numbers,
// timestamps in a handful of formats, and a malformed action field must not
// abort decoding of the whole batch. UnmarshalJSON therefore absorbs type
// surprises instead of failing: a non-string action decodes to "" (rejected
// later as invalid_action) and an unparseable timestamp decodes to the zero
// time.
type QueueItem struct {
	ID        string
	Action    Action
	Payload   json.RawMessage
	CreatedAt time.Time
}

func (it *QueueItem) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"id"`
		Action    json.RawMessage `json:"action"`
		Payload   json.RawMessage `json:"payload"`
		CreatedAt json.RawMessage `json:"created_at"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	it.ID = flexString(raw.ID)
	var action string
	if len(raw.Action) > 0 && json.Unmarshal(raw.Action, &action) == nil {
		it.Action = Action(action)
	}
	it.Payload = raw.Payload
	it.CreatedAt = flexTime(raw.CreatedAt)
	return nil
}

// DecodePayload unmarshals the action-specific payload into v.
// An absent payload leaves v at its zero value so the handler's
// required-field validation reports the precise missing_* reason.
func (it QueueItem) DecodePayload(v any) error {
	if len(it.Payload) == 0 || string(it.Payload) == "null" {
		return nil
	}
	return json.Unmarshal(it.Payload, v)
}

// flexString accepts a JSON string or number and renders it as a string.
// Anything else yields "".
func flexString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// timeFormats are tried in order: RFC 3339 (with and without fractional
// seconds) and the bare datetime form MySQL-backed producers emit.
var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// flexTime accepts a JSON string in any known format or a unix-seconds
// number. Anything else yields the zero time.
func flexTime(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range timeFormats {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		return time.Time{}
	}
	var unix float64
	if err := json.Unmarshal(raw, &unix); err == nil && unix > 0 {
		sec := int64(unix)
		nsec := int64((unix - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC()
	}
	return time.Time{}
}

// ParseTimestamp applies the same lenient format handling to payload fields
// carried as plain strings (e.g. left_at, last_active).
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil && unix > 0 {
		return time.Unix(unix, 0).UTC()
	}
	return time.Time{}
}
