package deployer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_NonInteractiveDenies(t *testing.T) {
	con := &fakeConsole{interactive: false, input: "y"}
	gate := NewGate(con, nil)

	ok := gate.Confirm(clusterRemovalMessage, time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC))

	assert.False(t, ok)
	assert.Empty(t, con.prompts, "must not prompt without a terminal")
	assert.Empty(t, con.printed)
}

func TestGate_Answers(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y", true},
		{"Y", true},
		{" yes\n", true},
		{"YES", true},
		{"n", false},
		{"", false},
		{"yep", false},
		{"no", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			con := &fakeConsole{interactive: true, input: tt.input}
			gate := NewGate(con, nil)

			assert.Equal(t, tt.want, gate.Confirm(clusterRemovalMessage, time.Now()))
		})
	}
}

func TestGate_ExplainsBeforePrompting(t *testing.T) {
	con := &fakeConsole{interactive: true, input: "n"}
	gate := NewGate(con, nil)

	gate.Confirm("  "+clusterRemovalMessage+"\n", time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC))

	require.Len(t, con.prompts, 1)
	assert.Equal(t, confirmPrompt, con.prompts[0])

	out := strings.Join(con.printed, "\n")
	assert.Contains(t, out, "content-cluster-removal (until 2026-10-24)")
	assert.Contains(t, out, "loss of all data")
	assert.Contains(t, out, "Vespa message:\n"+clusterRemovalMessage+"\n")
}

func TestGate_EmptyMessageSkipsVespaText(t *testing.T) {
	con := &fakeConsole{interactive: true, input: "y"}
	gate := NewGate(con, nil)

	assert.True(t, gate.Confirm("   ", time.Now()))
	assert.NotContains(t, strings.Join(con.printed, "\n"), "Vespa message:")
}

func TestGate_ReadFailureDenies(t *testing.T) {
	con := &fakeConsole{interactive: true, input: "y", readErr: errors.New("EOF")}
	gate := NewGate(con, nil)

	assert.False(t, gate.Confirm(clusterRemovalMessage, time.Now()))
}
