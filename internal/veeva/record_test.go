package veeva

import (
	"strings"
	"testing"
	"time"
)

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{name: "data envelope", body: `{"data":[{"id":"a"},{"id":"b"}]}`, want: 2},
		{name: "records envelope", body: `{"records":[{"id":"a"}]}`, want: 1},
		{name: "bare array", body: `[{"id":"a"}]`, want: 1},
		{name: "empty data", body: `{"data":[]}`, want: 0},
		{name: "not a listing", body: `{"id":"a"}`, wantErr: true},
		{name: "garbage", body: `nope`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeRecords(strings.NewReader(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeRecords() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != tt.want {
				t.Fatalf("decodeRecords() = %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestRecordString(t *testing.T) {
	rec := Record{"name__v": "Study One", "empty": "", "num": float64(7)}

	if got := rec.String("missing", "name__v"); got != "Study One" {
		t.Fatalf("String() = %q, want %q", got, "Study One")
	}
	if got := rec.String("empty", "num"); got != "7" {
		t.Fatalf("String() = %q, want %q", got, "7")
	}
	if got := rec.String("missing"); got != "" {
		t.Fatalf("String() = %q, want empty", got)
	}
}

func TestRecordInt(t *testing.T) {
	rec := Record{"progress__v": float64(75), "text": "42", "bad": "x"}

	if got, ok := rec.Int("progress__v"); !ok || got != 75 {
		t.Fatalf("Int() = %d, %v", got, ok)
	}
	if got, ok := rec.Int("text"); !ok || got != 42 {
		t.Fatalf("Int() = %d, %v", got, ok)
	}
	if _, ok := rec.Int("bad"); ok {
		t.Fatal("Int() parsed a non-numeric string")
	}
	if _, ok := rec.Int("missing"); ok {
		t.Fatal("Int() found a missing key")
	}
}

func TestRecordTime(t *testing.T) {
	rec := Record{
		"date_only": "2024-03-01",
		"rfc3339":   "2024-03-01T10:30:00Z",
		"junk":      "not a date",
	}

	if got := rec.Time("date_only"); got == nil || got.Format("2006-01-02") != "2024-03-01" {
		t.Fatalf("Time() = %v", got)
	}
	if got := rec.Time("rfc3339"); got == nil || !got.Equal(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("Time() = %v", got)
	}
	if got := rec.Time("junk"); got != nil {
		t.Fatalf("Time() parsed junk: %v", got)
	}
}

func TestMilestoneObjects(t *testing.T) {
	tests := []struct {
		studyObject string
		wantStudy   string
		wantSite    string
		wantField   string
	}{
		{"study__v", "study_milestone__v", "site_milestone__v", "study__v"},
		{"clinical_study__v", "study_milestone__v", "site_milestone__v", "study__v"},
		{"study__c", "study_milestone__c", "site_milestone__c", "study__c"},
		{"studies", "study_milestones", "site_milestones", "study_id"},
	}

	for _, tt := range tests {
		t.Run(tt.studyObject, func(t *testing.T) {
			study, site, field := MilestoneObjects(tt.studyObject)
			if study != tt.wantStudy || site != tt.wantSite || field != tt.wantField {
				t.Fatalf("MilestoneObjects(%q) = %q, %q, %q", tt.studyObject, study, site, field)
			}
		})
	}
}
