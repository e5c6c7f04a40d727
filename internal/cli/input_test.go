package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestGetSimpleText(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("hello world\n"))

	got, err := GetSimpleText(reader, "Say something", &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello world" {
		t.Errorf("got %q, want %q", got, "hello world")
	}
	if !strings.Contains(out.String(), "Say something") || !strings.Contains(out.String(), "> ") {
		t.Errorf("prompt not written: %q", out.String())
	}
}

func TestGetSimpleTextTrims(t *testing.T) {
	t.Parallel()

	reader := bufio.NewReader(strings.NewReader("  padded  \n"))
	got, err := GetSimpleText(reader, "p", new(bytes.Buffer))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "padded" {
		t.Errorf("got %q, want %q", got, "padded")
	}
}

func TestGetSimpleTextEOFWithPartialLine(t *testing.T) {
	t.Parallel()

	reader := bufio.NewReader(strings.NewReader("partial"))
	got, err := GetSimpleText(reader, "p", new(bytes.Buffer))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "partial" {
		t.Errorf("got %q, want %q", got, "partial")
	}
}

func TestGetSimpleTextEOFEmpty(t *testing.T) {
	t.Parallel()

	reader := bufio.NewReader(strings.NewReader(""))
	if _, err := GetSimpleText(reader, "p", new(bytes.Buffer)); err == nil {
		t.Fatal("expected error on immediate EOF")
	}
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "Y\n", want: true},
		{input: "yes\n", want: true},
		{input: "YES\n", want: true},
		{input: "n\n", want: false},
		{input: "no\n", want: false},
		{input: "\n", want: false},
		{input: "maybe\n", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		reader := bufio.NewReader(strings.NewReader(tt.input))
		if got := Confirm(reader, "Sure?", new(bytes.Buffer)); got != tt.want {
			t.Errorf("Confirm with input %q = %v, want %v", tt.input, got, tt.want)
		}
	}
}
