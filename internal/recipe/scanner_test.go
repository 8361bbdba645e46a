package recipe

import (
	"reflect"
	"testing"
)

func TestScannerStripsComments(t *testing.T) {
	s := NewScanner("first line /// trailing comment\n/// whole line\nsecond line")

	line, n, ok := s.ReadLine()
	if !ok || n != 1 {
		t.Fatalf("expected line 1, got ok=%v n=%d", ok, n)
	}
	if line != "first line " {
		t.Errorf("comment not stripped, got %q", line)
	}

	line, _, ok = s.ReadLine()
	if !ok || line != "" {
		t.Errorf("whole-line comment should leave an empty line, got %q", line)
	}

	line, _, ok = s.ReadLine()
	if !ok || line != "second line" {
		t.Errorf("expected %q, got %q", "second line", line)
	}

	if _, _, ok := s.ReadLine(); ok {
		t.Error("expected end of input")
	}
}

func TestScannerPreservesWhitespace(t *testing.T) {
	s := NewScanner("  indented   spaced  ")
	line, _, _ := s.ReadLine()
	if line != "  indented   spaced  " {
		t.Errorf("whitespace must be preserved, got %q", line)
	}
}

func TestReadBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		skipped  int // lines consumed before the block read
		skipWS   bool
		expected []string
	}{
		{
			name:     "stops at directive",
			input:    "one\ntwo\n:Next\nthree",
			expected: []string{"one", "two"},
		},
		{
			name:     "drops empty lines",
			input:    "one\n\ntwo\n:Next",
			expected: []string{"one", "two"},
		},
		{
			name:     "keeps whitespace-only lines by default",
			input:    "one\n   \ntwo\n:Next",
			expected: []string{"one", "   ", "two"},
		},
		{
			name:     "skips whitespace-only lines for code blocks",
			input:    "one\n   \ntwo\n:Next",
			skipWS:   true,
			expected: []string{"one", "two"},
		},
		{
			name:     "empty block before directive",
			input:    ":Next",
			expected: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(tt.input)
			for i := 0; i < tt.skipped; i++ {
				s.ReadLine()
			}
			block := s.ReadBlock(tt.skipWS)
			if !reflect.DeepEqual(block, tt.expected) {
				t.Errorf("got %#v, want %#v", block, tt.expected)
			}
		})
	}
}

func TestReadBlockLeavesDirectiveForReadLine(t *testing.T) {
	s := NewScanner("body\n:TestCase name=x")
	s.ReadBlock(true)
	line, _, ok := s.ReadLine()
	if !ok || line != ":TestCase name=x" {
		t.Errorf("directive should still be readable, got %q ok=%v", line, ok)
	}
}
