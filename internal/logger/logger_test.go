package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestOutputFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Info("loaded %d agents", 3)
	Warn("skipped %s", "broken.xlsx")

	out := buf.String()
	for _, want := range []string{"[info] loaded 3 agents", "[warn] skipped broken.xlsx"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", Console},
		{"console", Console},
		{"json", JSON},
		{" JSON ", JSON},
		{"xml", Console},
	}
	for _, tt := range tests {
		if got := ParseFormat(tt.in); got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetFormat(JSON)
	defer func() {
		SetFormat(Console)
		SetOutput(os.Stdout)
	}()

	Warn("archive snapshot %s: %v", "b-1", "disk full")

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("entry is not JSON: %v\n%s", err, buf.String())
	}
	if entry["level"] != "warn" {
		t.Errorf("level = %v, want warn", entry["level"])
	}
	if entry["message"] != "archive snapshot b-1: disk full" {
		t.Errorf("message = %v", entry["message"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("entry has no time field")
	}
}
