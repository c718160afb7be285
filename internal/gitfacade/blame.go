package gitfacade

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// BlameLine is one line of `git blame --line-porcelain` output: the commit
// that last touched the 1-based final line number.
type BlameLine struct {
	Line      int
	CommitSHA string
}

// Blame returns, for every line of path as of rev, the commit that last
// touched it. Used to seed attribution on a fresh working log from prior
// commits' authorship (spec §4.4 step 4).
func (f *Facade) Blame(ctx context.Context, rev, path string) ([]BlameLine, error) {
	out, err := f.run(ctx, "blame", "--line-porcelain", rev, "--", path)
	if err != nil {
		return nil, fmt.Errorf("blame %s -- %s: %w", rev, path, err)
	}

	var lines []BlameLine
	for _, raw := range strings.Split(string(out), "\n") {
		fields := strings.Fields(raw)
		if len(fields) < 3 {
			continue
		}
		// A header line looks like "<sha> <origLine> <finalLine> [<numLines>]".
		if len(fields[0]) != 40 {
			continue
		}
		finalLine, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		lines = append(lines, BlameLine{Line: finalLine, CommitSHA: fields[0]})
	}
	return lines, nil
}
