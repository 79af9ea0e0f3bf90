package deployer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nyrag/nyrag/internal/core/vespa"
)

// WriteValidationOverrides writes validation-overrides.xml granting
// content cluster removal until the given date, creating dir if needed.
// An existing grant is replaced.
func WriteValidationOverrides(dir string, until time.Time) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create application root: %w", err)
	}
	path := filepath.Join(dir, vespa.ValidationOverridesFile)
	if err := os.WriteFile(path, []byte(vespa.ValidationOverridesXML(until)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", vespa.ValidationOverridesFile, err)
	}
	return nil
}
