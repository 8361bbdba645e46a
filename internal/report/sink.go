// Package report renders per-test blocks and run summaries to the output
// sinks a recipe registers, at each sink's detail level and encoding.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mercere99/emperfect/pkg/cerr"
)

// Encoding selects how a sink formats its content.
type Encoding int

const (
	EncodingText Encoding = iota
	EncodingHTML
)

// Sink is one output target: a file or standard output, with a fixed detail
// level and encoding. The filename never changes once the sink exists; the
// header is emitted exactly once, on first write, and only at summary detail
// or above.
type Sink struct {
	detail   Detail
	encoding Encoding
	filename string // empty means standard output

	w      io.Writer
	file   *os.File
	opened bool
}

// NewSink builds a sink from the :Output argument values. A missing type is
// derived from the filename extension; a missing detail defaults to student.
func NewSink(detailName, filename, typ string) (*Sink, error) {
	detail := DetailStudent
	if detailName != "" {
		var err error
		detail, err = ParseDetail(detailName)
		if err != nil {
			return nil, err
		}
	}

	encoding, err := resolveEncoding(typ, filename)
	if err != nil {
		return nil, err
	}

	return &Sink{
		detail:   detail,
		encoding: encoding,
		filename: filename,
	}, nil
}

func resolveEncoding(typ, filename string) (Encoding, error) {
	switch strings.ToLower(typ) {
	case "text", "txt":
		return EncodingText, nil
	case "html":
		return EncodingHTML, nil
	case "":
	default:
		return 0, cerr.Newf(cerr.Parse, ":Output: unknown type %q", typ)
	}
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".htm") || strings.HasSuffix(lower, ".html") {
		return EncodingHTML, nil
	}
	return EncodingText, nil
}

func (s *Sink) Filename() string { return s.filename }
func (s *Sink) Detail() Detail   { return s.detail }

// writer opens the target lazily and emits the one-time header.
func (s *Sink) writer() (io.Writer, error) {
	if s.opened {
		return s.w, nil
	}
	if s.filename == "" {
		s.w = os.Stdout
	} else {
		file, err := os.Create(s.filename)
		if err != nil {
			return nil, cerr.New(cerr.Filesystem, "cannot create output file "+s.filename, err)
		}
		s.file = file
		s.w = file
	}
	s.opened = true
	s.writeHeader()
	return s.w, nil
}

func (s *Sink) writeHeader() {
	if !s.detail.HasSummary() {
		return
	}
	if s.encoding == EncodingHTML {
		fmt.Fprint(s.w, "<!DOCTYPE html>\n<html>\n<head><title>Autograde Results</title></head>\n<body>\n")
		fmt.Fprint(s.w, "<h1>Autograde Results</h1>\n")
		return
	}
	fmt.Fprint(s.w, "== Autograde Results ==\n\n")
}

// Close flushes and releases the sink's file handle, terminating HTML
// documents properly.
func (s *Sink) Close() error {
	if !s.opened {
		return nil
	}
	if s.encoding == EncodingHTML {
		fmt.Fprint(s.w, "</body>\n</html>\n")
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return cerr.New(cerr.Filesystem, "cannot close output file "+s.filename, err)
		}
		s.file = nil
	}
	return nil
}
