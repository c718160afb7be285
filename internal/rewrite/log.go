package rewrite

import (
	"encoding/json"
	"fmt"

	"github.com/attrgit/attrgit/internal/repostorage"
)

// Append serializes e and prepends it to the rewrite log, trimming to
// paths.RewriteLogMaxEvents (spec §4.6 "Event source").
func Append(store *repostorage.Store, e Event) error {
	data, err := Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal rewrite event: %w", err)
	}
	return store.AppendRewriteEvent(data, isValidLine)
}

// ReadAll parses every line of the rewrite log, newest first. Malformed
// lines are silently skipped (spec §7).
func ReadAll(store *repostorage.Store) ([]Event, error) {
	lines, err := store.RewriteLogLines()
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(lines))
	for _, line := range lines {
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}
