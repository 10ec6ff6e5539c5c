// Package logrotate emits per-domain log-rotation snippets for the
// directories a deployed application writes its logs to.
package logrotate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/irgordon/kari-agent/internal/validate"
)

// Write emits a rotation snippet for domain's app logs under logDir,
// rotating daily, compressed, retaining retainCount copies, to
// <logrotateDir>/kari-<domain>.
func Write(logrotateDir, domain, logDir string, retainCount int) error {
	if !validate.Identifier(domain) {
		return fmt.Errorf("logrotate: invalid domain %q", domain)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s {\n", filepath.Join(logDir, "*.log"))
	b.WriteString("    daily\n")
	fmt.Fprintf(&b, "    rotate %d\n", retainCount)
	b.WriteString("    compress\n")
	b.WriteString("    missingok\n")
	b.WriteString("    notifempty\n")
	b.WriteString("}\n")

	path := filepath.Join(logrotateDir, "kari-"+domain)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("logrotate: write %s: %w", path, err)
	}
	return nil
}
