package deployer

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nyrag/nyrag/internal/core/vespa"
)

// Console is the user-facing terminal the gate talks through.
type Console interface {
	IsInteractive() bool
	Println(msg string)
	ReadLine(prompt string) (string, error)
}

// Confirmer decides whether a destructive override may proceed.
type Confirmer interface {
	Confirm(message string, until time.Time) bool
}

const confirmPrompt = "Purge existing cluster data and redeploy? [y/N]: "

// Gate asks the operator before a deploy that removes a content cluster.
// Without an interactive terminal it always denies.
type Gate struct {
	console Console
	logger  *slog.Logger
}

// NewGate creates a confirmation gate.
func NewGate(console Console, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{console: console, logger: logger}
}

// Confirm reports whether the content-cluster-removal override may be
// applied. message is the platform's refusal text.
func (g *Gate) Confirm(message string, until time.Time) bool {
	if !g.console.IsInteractive() {
		g.logger.Warn("Vespa deploy requires 'content-cluster-removal' override, but stdin is not interactive")
		return false
	}

	g.console.Println("\nVespa refused this deploy because it would remove an existing content cluster.\n" +
		fmt.Sprintf("- Override: %s (until %s)\n", vespa.ClusterRemovalScope, vespa.ClusterRemovalOverride(until).UntilDate()) +
		"This will cause loss of all data in that cluster.")
	if msg := strings.TrimSpace(message); msg != "" {
		g.console.Println(fmt.Sprintf("\nVespa message:\n%s\n", msg))
	}

	answer, err := g.console.ReadLine(confirmPrompt)
	if err != nil {
		g.logger.Warn("could not read confirmation", "error", err)
		return false
	}
	return isYes(answer)
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
