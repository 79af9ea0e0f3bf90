package console

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader("yes\r\nno\n"), &out, true)

	first, err := term.ReadLine("Continue? ")
	require.NoError(t, err)
	second, err := term.ReadLine("Again? ")
	require.NoError(t, err)

	assert.Equal(t, "yes", first)
	assert.Equal(t, "no", second)
	assert.Equal(t, "Continue? Again? ", out.String())
}

func TestReadLine_LastLineWithoutNewline(t *testing.T) {
	term := New(strings.NewReader("y"), io.Discard, true)

	line, err := term.ReadLine("")

	require.NoError(t, err)
	assert.Equal(t, "y", line)
}

func TestReadLine_EOF(t *testing.T) {
	term := New(strings.NewReader(""), io.Discard, true)

	_, err := term.ReadLine("")

	assert.ErrorIs(t, err, io.EOF)
}

func TestPrintln(t *testing.T) {
	var out bytes.Buffer
	New(strings.NewReader(""), &out, false).Println("hello")

	assert.Equal(t, "hello\n", out.String())
}

func TestIsInteractive(t *testing.T) {
	assert.True(t, New(strings.NewReader(""), io.Discard, true).IsInteractive())
	assert.False(t, New(strings.NewReader(""), io.Discard, false).IsInteractive())
}

func TestIsTerminal_RegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTerminal(f))
}
