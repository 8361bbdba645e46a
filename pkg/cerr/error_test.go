package cerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := Newf(Parse, "unknown directive %q", ":bogus")
	want := `[Parse] unknown directive ":bogus"`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}

	underlying := errors.New("permission denied")
	wrapped := New(Filesystem, "cannot create dir", underlying)
	if wrapped.Error() != "[Filesystem] cannot create dir: permission denied" {
		t.Errorf("got %q", wrapped.Error())
	}
}

func TestUnwrap(t *testing.T) {
	underlying := errors.New("root cause")
	err := New(Internal, "wrapper", underlying)
	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find the underlying error")
	}
}

func TestIsCode(t *testing.T) {
	err := Newf(Protocol, "unknown field")
	if !IsCode(err, Protocol) {
		t.Error("IsCode should match the error's own code")
	}
	if IsCode(err, Parse) {
		t.Error("IsCode should not match a different code")
	}
	if IsCode(errors.New("plain"), Protocol) {
		t.Error("IsCode on a non-cerr error is false")
	}

	// Codes survive %w wrapping.
	wrapped := fmt.Errorf("context: %w", err)
	if !IsCode(wrapped, Protocol) {
		t.Error("IsCode should see through wrapping")
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(Newf(Expression, "bad expr")) != Expression {
		t.Error("CodeOf should return the error's code")
	}
	if CodeOf(errors.New("plain")) != Internal {
		t.Error("CodeOf of a plain error defaults to Internal")
	}
}

func TestCodeString(t *testing.T) {
	names := map[Code]string{
		OK:         "OK",
		Parse:      "Parse",
		Expression: "Expression",
		Filesystem: "Filesystem",
		Protocol:   "Protocol",
		Internal:   "Internal",
	}
	for code, want := range names {
		if code.String() != want {
			t.Errorf("Code(%d).String() = %q, want %q", int(code), code.String(), want)
		}
	}
}
