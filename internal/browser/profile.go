package browser

import (
	"path/filepath"

	"github.com/kennygrant/sanitize"
)

// ProfileDir returns the on-disk profile directory for the given
// account identity, keyed by a filename-safe form of the login email so
// repeated runs for the same account reuse the authenticated session.
func ProfileDir(root, account string) string {
	name := sanitize.BaseName(account)
	if name == "" {
		name = "default"
	}
	return filepath.Join(root, name)
}
