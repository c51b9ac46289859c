package requests_test

import (
	"errors"
	"testing"

	"abstagsync/internal/requests"
	"abstagsync/internal/services"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want requests.Row
		ok   bool
	}{
		{name: "full row", line: "B00X|alice@x.com|alice", want: requests.Row{ASIN: "B00X", Email: "alice@x.com", BackupName: "alice"}, ok: true},
		{name: "empty email", line: "B00X||bob", want: requests.Row{ASIN: "B00X", BackupName: "bob"}, ok: true},
		{name: "carriage return", line: "B00X|a@x.com|a\r", want: requests.Row{ASIN: "B00X", Email: "a@x.com", BackupName: "a"}, ok: true},
		{name: "blank", line: "", ok: false},
		{name: "no separator", line: "(2 rows)", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, ok, err := requests.ParseLine(tt.line)
			if err != nil {
				t.Fatalf("ParseLine(%q) error: %v", tt.line, err)
			}
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if row != tt.want {
				t.Fatalf("row = %+v, want %+v", row, tt.want)
			}
		})
	}
}

func TestParseLineRejectsWrongFieldCount(t *testing.T) {
	for _, line := range []string{"B00X|alice", "B00X|a|b|c"} {
		_, _, err := requests.ParseLine(line)
		if !errors.Is(err, services.ErrParse) {
			t.Fatalf("ParseLine(%q) err = %v, want ErrParse", line, err)
		}
	}
}
