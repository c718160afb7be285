package authorshiplog

import (
	"sort"

	"github.com/attrgit/attrgit/internal/attribution"
	"github.com/attrgit/attrgit/internal/noteschema"
)

// lineEvent is one checkpoint's contribution to a file's line ownership, in
// working-directory coordinates, applied in chronological order — later
// events overwrite earlier ones for the same line, reconstructing how a
// line's authorship evolved across the working log.
type lineEvent struct {
	Hash  string
	Lines []int
}

// aggregateLineAuthors replays events in order and returns each line's final
// owning hash plus, for every hash, every line it was ever assigned (used to
// compute overriden_lines: lines an AI hash once owned that ended up Human).
func aggregateLineAuthors(events []lineEvent) (final map[int]string, everAssigned map[string]map[int]bool) {
	final = make(map[int]string)
	everAssigned = make(map[string]map[int]bool)
	for _, e := range events {
		if everAssigned[e.Hash] == nil {
			everAssigned[e.Hash] = make(map[int]bool)
		}
		for _, line := range e.Lines {
			final[line] = e.Hash
			everAssigned[e.Hash][line] = true
		}
	}
	return final, everAssigned
}

// overriddenLines counts the lines hash was ever assigned that ended up
// attributed to Human in the final (pre-commit-filter) projection.
func overriddenLines(hash string, final map[int]string, everAssigned map[string]map[int]bool) int {
	n := 0
	for line := range everAssigned[hash] {
		if final[line] == attribution.HumanAuthorID {
			n++
		}
	}
	return n
}

// toCommitLine translates a working-directory line number to its
// commit-coordinate equivalent: commit_line = w - |{u in unstagedSorted : u < w}|
// (spec §4.5 step 6). unstagedSorted must be sorted ascending.
func toCommitLine(w int, unstagedSorted []int) int {
	count := 0
	for _, u := range unstagedSorted {
		if u >= w {
			break
		}
		count++
	}
	return w - count
}

// filterToCommitted translates final (working-dir coordinates) into
// commit-coordinate lines and keeps only those present in committedLines.
func filterToCommitted(final map[int]string, unstagedSorted []int, committedLines []int) map[int]string {
	committed := make(map[int]bool, len(committedLines))
	for _, l := range committedLines {
		committed[l] = true
	}

	out := make(map[int]string)
	for w, hash := range final {
		c := toCommitLine(w, unstagedSorted)
		if committed[c] {
			out[c] = hash
		}
	}
	return out
}

// groupByHash compresses a commit-coordinate line->hash map into a
// deterministic, hash-sorted list of (hash, ranges) pairs.
func groupByHash(lineHash map[int]string) []struct {
	Hash   string
	Ranges []attribution.LineRange
} {
	byHash := make(map[string][]int)
	for line, hash := range lineHash {
		byHash[hash] = append(byHash[hash], line)
	}
	hashes := make([]string, 0, len(byHash))
	for h := range byHash {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	out := make([]struct {
		Hash   string
		Ranges []attribution.LineRange
	}, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, struct {
			Hash   string
			Ranges []attribution.LineRange
		}{Hash: h, Ranges: attribution.CompressLines(byHash[h])})
	}
	return out
}

// EntriesFromLineHash groups a commit-coordinate line->hash map into
// deterministic, hash-sorted AttestationEntry values. Exported for
// reconciliation paths (three-way tree propagation) that build attestations
// outside the normal commit-projection pipeline but need the same
// hash-grouping and line-compression rules.
func EntriesFromLineHash(lineHash map[int]string) []noteschema.AttestationEntry {
	groups := groupByHash(lineHash)
	out := make([]noteschema.AttestationEntry, 0, len(groups))
	for _, g := range groups {
		out = append(out, noteschema.AttestationEntry{Hash: g.Hash, LineRanges: g.Ranges})
	}
	return out
}
