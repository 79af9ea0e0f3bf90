// Package console is the user-facing terminal: it prints messages and
// reads single-line answers.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Terminal reads from in and writes to out.
type Terminal struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewTerminal returns a console over the process's stdin and stdout.
func NewTerminal() *Terminal {
	return New(os.Stdin, os.Stdout, IsTerminal(os.Stdin))
}

// New returns a console over arbitrary streams.
func New(in io.Reader, out io.Writer, interactive bool) *Terminal {
	return &Terminal{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsInteractive reports whether input comes from a terminal.
func (t *Terminal) IsInteractive() bool {
	return t.interactive
}

// Println writes msg followed by a newline.
func (t *Terminal) Println(msg string) {
	fmt.Fprintln(t.out, msg)
}

// ReadLine writes prompt and returns the next input line without its line
// terminator. A final line without newline is returned as is.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
