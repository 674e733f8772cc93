package audit

import (
	"context"
	"testing"

	"trialdeck/pkg/bus"
)

func TestRecord(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{name: "sync completed event", payload: `{"configuration_id":"c1","studies":2,"milestones":5}`},
		{name: "session created event", payload: `{"configuration_id":"c1","session_id":"s1"}`},
		{name: "malformed payload", payload: `{"configuration_id":`, wantErr: true},
		{name: "non-object payload", payload: `[1,2,3]`, wantErr: true},
	}

	handler := record(bus.SubjectSyncCompleted)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := handler(context.Background(), []byte(tc.payload))
			if (err != nil) != tc.wantErr {
				t.Fatalf("record(%q) error = %v, wantErr %v", tc.payload, err, tc.wantErr)
			}
		})
	}
}

func TestDurableName(t *testing.T) {
	got := durableName(bus.SubjectSessionCreated)
	want := "trialdeck-audit-trialdeck-sessions-created"
	if got != want {
		t.Fatalf("durableName = %q, want %q", got, want)
	}
}
