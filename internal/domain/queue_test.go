package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Yosodog/Nexus-AMS-Discord/internal/domain"
)

func TestQueueItem_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     string
		wantAction domain.Action
	}{
		{
			"string id and action",
			`{"id":"42","action":"war_alert","payload":{"channel_id":"1"},"created_at":"2026-01-10T12:00:00Z"}`,
			"42", domain.ActionWarAlert,
		},
		{
			"numeric id",
			`{"id":42,"action":"beige_alert"}`,
			"42", domain.ActionBeigeAlert,
		},
		{
			"missing id",
			`{"action":"war_alert"}`,
			"", domain.ActionWarAlert,
		},
		{
			"non-string action decodes to empty",
			`{"id":"7","action":{"oops":true}}`,
			"7", domain.Action(""),
		},
		{
			"numeric action decodes to empty",
			`{"id":"7","action":12}`,
			"7", domain.Action(""),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var it domain.QueueItem
			if err := json.Unmarshal([]byte(tc.json), &it); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if it.ID != tc.wantID {
				t.Errorf("ID = %q, want %q", it.ID, tc.wantID)
			}
			if it.Action != tc.wantAction {
				t.Errorf("Action = %q, want %q", it.Action, tc.wantAction)
			}
		})
	}
}

func TestQueueItem_CreatedAtFormats(t *testing.T) {
	tests := []struct {
		name string
		json string
		want time.Time
	}{
		{
			"rfc3339",
			`{"id":"1","created_at":"2026-01-10T12:00:00Z"}`,
			time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
		},
		{
			"mysql datetime",
			`{"id":"1","created_at":"2026-01-10 12:00:00"}`,
			time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
		},
		{
			"unix seconds",
			`{"id":"1","created_at":1767960000}`,
			time.Unix(1767960000, 0).UTC(),
		},
		{
			"garbage yields zero time",
			`{"id":"1","created_at":"not a date"}`,
			time.Time{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var it domain.QueueItem
			if err := json.Unmarshal([]byte(tc.json), &it); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !it.CreatedAt.Equal(tc.want) {
				t.Errorf("CreatedAt = %v, want %v", it.CreatedAt, tc.want)
			}
		})
	}
}

func TestQueueItem_DecodePayload(t *testing.T) {
	var it domain.QueueItem
	raw := `{"id":"1","action":"war_alert","payload":{"channel_id":"99","war_id":5}}`
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		t.Fatal(err)
	}

	var p domain.WarAlertPayload
	if err := it.DecodePayload(&p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ChannelID != "99" || p.WarID != 5 {
		t.Errorf("payload = %+v", p)
	}
}

func TestQueueItem_DecodePayload_Absent(t *testing.T) {
	it := domain.QueueItem{ID: "1", Action: domain.ActionWarAlert}

	var p domain.WarAlertPayload
	if err := it.DecodePayload(&p); err != nil {
		t.Fatalf("expected nil error for absent payload, got %v", err)
	}
	if p.ChannelID != "" {
		t.Errorf("expected zero payload, got %+v", p)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)

	if got := domain.ParseTimestamp("2026-02-01T08:30:00Z"); !got.Equal(want) {
		t.Errorf("rfc3339: got %v", got)
	}
	if got := domain.ParseTimestamp("2026-02-01 08:30:00"); !got.Equal(want) {
		t.Errorf("mysql form: got %v", got)
	}
	if got := domain.ParseTimestamp(""); !got.IsZero() {
		t.Errorf("empty: got %v, want zero", got)
	}
	if got := domain.ParseTimestamp("soon"); !got.IsZero() {
		t.Errorf("garbage: got %v, want zero", got)
	}
}

func TestDispatchOutcome_ReportStatus(t *testing.T) {
	if got := domain.Completed().ReportStatus(); got != domain.StatusComplete {
		t.Errorf("success outcome: got %q", got)
	}
	if got := domain.Failed(domain.ReasonMissingChannel).ReportStatus(); got != domain.StatusFailed {
		t.Errorf("failed outcome: got %q", got)
	}
}
