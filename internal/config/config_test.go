package config

import (
	"reflect"
	"testing"
)

func TestParseStudyObjects(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			name:  "plain sequence",
			input: "- study__v\n- study__c\n",
			want:  []string{"study__v", "study__c"},
		},
		{
			name:  "dedupe and trim",
			input: "- ' study__v '\n- study__v\n- clinical_study__v\n",
			want:  []string{"study__v", "clinical_study__v"},
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: true,
		},
		{
			name:    "only blanks",
			input:   "- ''\n- '  '\n",
			wantErr: true,
		},
		{
			name:    "not a sequence",
			input:   "objects: [study__v]\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStudyObjects([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseStudyObjects() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("parseStudyObjects() = %v, want %v", got, tt.want)
			}
		})
	}
}
