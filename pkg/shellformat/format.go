// Package shellformat renders the shell one-liners a grading recipe executes
// in a readable form for the run log.
//
// Commands are parsed with mvdan.cc/sh/v3/syntax (the shfmt parser). Short
// commands stay on one line; && / || / | chains are broken across lines with
// backslash continuations, so the output remains valid shell.
package shellformat

import (
	"bytes"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

const (
	indentWidth = 2
	maxWidth    = 80
)

// Format reformats a shell one-liner for display. On parse error the input is
// returned unchanged; a recipe line that the shell itself will reject is still
// worth showing verbatim.
func Format(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX), syntax.KeepComments(true))
	prog, err := parser.Parse(strings.NewReader(input), "")
	if err != nil {
		return input
	}

	f := &formatter{
		printer: syntax.NewPrinter(syntax.Indent(indentWidth), syntax.SpaceRedirects(true)),
	}
	f.file(prog)
	return strings.TrimRight(f.buf.String(), "\n")
}

type formatter struct {
	buf     bytes.Buffer
	printer *syntax.Printer
}

// nodeStr renders a syntax node to a compact string using the standard printer.
func (f *formatter) nodeStr(node syntax.Node) string {
	var buf bytes.Buffer
	f.printer.Print(&buf, node)
	return strings.TrimRight(buf.String(), "\n")
}

func (f *formatter) file(prog *syntax.File) {
	for i, stmt := range prog.Stmts {
		if i > 0 {
			f.buf.WriteByte('\n')
		}
		f.stmt(stmt)
	}
}

func (f *formatter) stmt(s *syntax.Stmt) {
	bin, isBin := s.Cmd.(*syntax.BinaryCmd)
	if !isBin {
		f.buf.WriteString(f.nodeStr(s))
		return
	}

	if s.Negated {
		f.buf.WriteString("! ")
	}
	f.binaryCmd(bin)
	if s.Background {
		f.buf.WriteString(" &")
	}
}

// chainElem is one element of a flattened && / || / | chain.
type chainElem struct {
	op   string // operator before this element ("" for the first)
	stmt *syntax.Stmt
}

func flattenBinaryCmd(cmd *syntax.BinaryCmd) []chainElem {
	var chain []chainElem
	collectBinary(cmd, &chain)
	return chain
}

func collectBinary(cmd *syntax.BinaryCmd, chain *[]chainElem) {
	if leftBin, ok := cmd.X.Cmd.(*syntax.BinaryCmd); ok && isBareBinaryStmt(cmd.X) {
		collectBinary(leftBin, chain)
	} else {
		*chain = append(*chain, chainElem{stmt: cmd.X})
	}

	op := cmd.Op.String()

	if rightBin, ok := cmd.Y.Cmd.(*syntax.BinaryCmd); ok && isBareBinaryStmt(cmd.Y) {
		var rightChain []chainElem
		collectBinary(rightBin, &rightChain)
		if len(rightChain) > 0 {
			rightChain[0].op = op
			*chain = append(*chain, rightChain...)
		}
	} else {
		*chain = append(*chain, chainElem{op: op, stmt: cmd.Y})
	}
}

// isBareBinaryStmt reports whether the Stmt is a plain wrapper around a
// BinaryCmd with no negation, redirects, or backgrounding of its own.
func isBareBinaryStmt(s *syntax.Stmt) bool {
	return !s.Negated && !s.Background && len(s.Redirs) == 0
}

func (f *formatter) binaryCmd(cmd *syntax.BinaryCmd) {
	chain := flattenBinaryCmd(cmd)

	totalLen := 0
	for i, elem := range chain {
		if i > 0 {
			totalLen += 1 + len(elem.op) + 1
		}
		totalLen += len(f.nodeStr(elem.stmt))
	}

	// Two-element chains that fit stay inline; longer chains always expand.
	if len(chain) <= 2 && totalLen <= maxWidth {
		for i, elem := range chain {
			if i > 0 {
				f.buf.WriteByte(' ')
				f.buf.WriteString(elem.op)
				f.buf.WriteByte(' ')
			}
			f.buf.WriteString(f.nodeStr(elem.stmt))
		}
		return
	}

	for i, elem := range chain {
		if i > 0 {
			f.buf.WriteString(" \\\n")
			f.buf.WriteString(strings.Repeat(" ", indentWidth))
			f.buf.WriteString(elem.op)
			f.buf.WriteByte(' ')
		}
		f.buf.WriteString(f.nodeStr(elem.stmt))
	}
}
