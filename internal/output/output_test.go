package output

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name" json:"name"`
	PID  int    `yaml:"pid"  json:"pid"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"json", FormatJSON, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFprint_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, sample{Name: "Finder", PID: 321}, FormatYAML); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "name: Finder") || !strings.Contains(out, "pid: 321") {
		t.Errorf("unexpected yaml: %q", out)
	}
}

func TestFprint_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, sample{Name: "Finder", PID: 321}, FormatJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"name": "Finder"`) {
		t.Errorf("unexpected json: %q", buf.String())
	}
}
