package datetime

import (
	"testing"
	"time"
)

func TestParseISO(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "zulu with millis", input: "2025-11-23T23:33:00.000Z", want: "2025-11-23 23:33:00"},
		{name: "zulu without fraction", input: "2025-11-23T23:33:00Z", want: "2025-11-23 23:33:00"},
		{name: "naive", input: "2025-11-23T23:33:00", want: "2025-11-23 23:33:00"},
		{name: "naive micro", input: "2025-11-23T23:33:00.123456", want: "2025-11-23 23:33:00"},
		{name: "positive offset", input: "2025-11-23T23:33:00+02:00", want: "2025-11-23 21:33:00"},
		{name: "negative offset crosses day", input: "2025-11-23T23:33:00-05:00", want: "2025-11-24 04:33:00"},
		{name: "space separated", input: "2025-11-23 23:33:00", want: "2025-11-23 23:33:00"},
		{name: "minutes only", input: "2025-11-23T23:33", want: "2025-11-23 23:33:00"},
		{name: "date only", input: "2025-11-23", want: "2025-11-23 00:00:00"},
		{name: "surrounding spaces", input: "  2025-11-23T23:33:00Z ", want: "2025-11-23 23:33:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseISO(tt.input)
			if err != nil {
				t.Fatalf("ParseISO(%q) error = %v", tt.input, err)
			}
			if got.Location() != time.UTC {
				t.Errorf("location = %v, want UTC", got.Location())
			}
			if Format(got) != tt.want {
				t.Errorf("Format(ParseISO(%q)) = %q, want %q", tt.input, Format(got), tt.want)
			}
		})
	}
}

func TestParseISO_Invalid(t *testing.T) {
	for _, input := range []string{"", "yesterday", "2025-13-01T00:00:00Z", "23/11/2025 10:00"} {
		if _, err := ParseISO(input); err == nil {
			t.Errorf("ParseISO(%q) expected error", input)
		}
	}
}
