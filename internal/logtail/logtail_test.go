package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "zero lines",
			maxLines: 0,
			expected: nil,
		},
		{
			name:     "negative",
			maxLines: -1,
			expected: nil,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		summary string
		level   string
		attrs   int
	}{
		{
			name:    "plain text",
			input:   "not a structured line",
			summary: "not a structured line",
		},
		{
			name:    "quoted message",
			input:   `time=14:32:15 level=WARN msg="waypoint skipped" id=7 reason="blank title"`,
			summary: "14:32:15 WARN waypoint skipped id=7 reason=blank title",
			level:   "WARN",
			attrs:   2,
		},
		{
			name:    "bare message",
			input:   `time=14:32:16 level=INFO msg=exported path=/tmp/a.json`,
			summary: "14:32:16 INFO exported path=/tmp/a.json",
			level:   "INFO",
			attrs:   1,
		},
		{
			name:    "escaped quote",
			input:   `level=ERROR msg="save \"HQ\" failed"`,
			summary: `ERROR save "HQ" failed`,
			level:   "ERROR",
		},
		{
			name:    "unterminated quote",
			input:   `level=INFO msg="broken`,
			summary: `level=INFO msg="broken`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Parse(tt.input)
			if got := e.Summary(); got != tt.summary {
				t.Errorf("Summary() = %q, want %q", got, tt.summary)
			}
			if e.Level != tt.level {
				t.Errorf("Level = %q, want %q", e.Level, tt.level)
			}
			if len(e.Attrs) != tt.attrs {
				t.Errorf("Attrs = %v, want %d", e.Attrs, tt.attrs)
			}
		})
	}
}

func TestTail_SkipsBlankLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "wayfinder.log")
	data := "time=1 level=INFO msg=one\n\ntime=2 level=INFO msg=two\n"
	if err := os.WriteFile(logPath, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	entries, err := Tail(logPath, 10)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Message != "one" || entries[1].Message != "two" {
		t.Fatalf("Tail() = %+v, want one, two", entries)
	}
}
