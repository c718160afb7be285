package authorshiplog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/noteschema"
)

// ReadNote reads and parses the authorship note attached to commitSHA,
// returning (nil, false, nil) if the commit has none.
func ReadNote(ctx context.Context, facade *gitfacade.Facade, commitSHA string) (*noteschema.AuthorshipLog, bool, error) {
	data, ok, err := facade.NotesShow(ctx, commitSHA)
	if err != nil {
		return nil, false, fmt.Errorf("read note %s: %w", commitSHA, err)
	}
	if !ok {
		return nil, false, nil
	}
	var note noteschema.AuthorshipLog
	if err := json.Unmarshal(data, &note); err != nil {
		return nil, false, fmt.Errorf("parse note %s: %w", commitSHA, err)
	}
	return &note, true, nil
}
