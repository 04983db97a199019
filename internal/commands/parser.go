// Package commands implements the in-chat command surface: a silent
// argument parser, the dispatch boundary and every command handler.
package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// Parser wraps a pflag set so that parse failures never reach chat
// output or the process log. Instead of printing, a failed parse leaves a
// usage message for the handler to deliver privately.
type Parser struct {
	prog  string
	desc  string
	flags *pflag.FlagSet

	positionals []positional
	args        []string
	message     string
}

type positional struct {
	name     string
	help     string
	variadic bool
}

// NewParser creates a silent parser for one command invocation. prog is
// the full command as typed, prefix included.
func NewParser(prog, desc string) *Parser {
	fs := pflag.NewFlagSet(prog, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false
	return &Parser{prog: prog, desc: desc, flags: fs}
}

// Flags exposes the underlying set for option registration.
func (p *Parser) Flags() *pflag.FlagSet { return p.flags }

// Positional declares a required positional argument.
func (p *Parser) Positional(name, help string) {
	p.positionals = append(p.positionals, positional{name: name, help: help})
}

// Variadic declares a trailing one-or-more positional argument. Must be
// declared last.
func (p *Parser) Variadic(name, help string) {
	p.positionals = append(p.positionals, positional{name: name, help: help, variadic: true})
}

// Parse consumes the raw tokens. It returns false when the invocation is
// invalid, in which case Message holds the full usage text to report.
func (p *Parser) Parse(tokens []string) bool {
	if err := p.flags.Parse(tokens); err != nil {
		if err == pflag.ErrHelp {
			p.message = p.Usage()
		} else {
			p.message = p.Usage() + "\nerror: " + err.Error()
		}
		return false
	}
	p.args = p.flags.Args()

	min := len(p.positionals)
	variadic := min > 0 && p.positionals[min-1].variadic
	if len(p.args) < min || (!variadic && len(p.args) > min) {
		p.message = p.Usage() + "\nerror: wrong number of arguments"
		return false
	}
	return true
}

// Message returns the usage text of a failed parse, or "".
func (p *Parser) Message() string { return p.message }

// Fail records a post-parse validation failure under the same reporting
// channel as a parse error.
func (p *Parser) Fail(format string, args ...any) bool {
	p.message = p.Usage() + "\nerror: " + fmt.Sprintf(format, args...)
	return false
}

// Arg returns the i-th positional argument.
func (p *Parser) Arg(i int) string {
	if i >= len(p.args) {
		return ""
	}
	return p.args[i]
}

// IntArg returns the i-th positional argument as an integer; a non-numeric
// value fails the parse.
func (p *Parser) IntArg(i int) (int, bool) {
	n, err := strconv.Atoi(p.Arg(i))
	if err != nil {
		return 0, p.Fail("argument %s must be a number", p.positionals[i].name)
	}
	return n, true
}

// Rest returns the positional arguments from i onward.
func (p *Parser) Rest(i int) []string {
	if i >= len(p.args) {
		return nil
	}
	return p.args[i:]
}

// Usage renders the command synopsis, the description and the flag table.
func (p *Parser) Usage() string {
	var b strings.Builder
	b.WriteString("usage: ")
	b.WriteString(p.prog)
	if p.flags.HasFlags() {
		b.WriteString(" [options]")
	}
	for _, pos := range p.positionals {
		if pos.variadic {
			fmt.Fprintf(&b, " %s [%s ...]", pos.name, pos.name)
		} else {
			fmt.Fprintf(&b, " %s", pos.name)
		}
	}
	b.WriteString("\n")
	if p.desc != "" {
		b.WriteString(p.desc)
		b.WriteString("\n")
	}
	for _, pos := range p.positionals {
		fmt.Fprintf(&b, "  %-24s %s\n", pos.name, pos.help)
	}
	if p.flags.HasFlags() {
		b.WriteString(p.flags.FlagUsages())
	}
	return strings.TrimRight(b.String(), "\n")
}

// SplitArgs tokenizes a command line, honoring double-quoted segments.
func SplitArgs(s string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			if inQuote {
				out = append(out, cur.String())
				cur.Reset()
			}
			inQuote = !inQuote
		case !inQuote && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
