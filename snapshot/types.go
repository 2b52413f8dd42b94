package snapshot

import (
	"log/slog"

	"github.com/hazyhaar/domsnap/snapshot/internal/journal"
	"github.com/hazyhaar/domsnap/snapshot/internal/readable"
)

// Aliases so callers can construct the optional artifact helpers without
// reaching into internal packages.
type (
	Journal      = journal.Journal
	JournalEntry = journal.Entry
	Readable     = readable.Converter
)

// OpenJournal opens (creating if needed) the shared capture journal database.
// The caller must blank-import a database/sql driver registered as "sqlite".
func OpenJournal(path string, logger *slog.Logger) (*Journal, error) {
	return journal.Open(path, logger)
}

// NewReadable builds the markdown converter used for the page.md artifact.
func NewReadable() *Readable {
	return readable.New()
}
