package attribution_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/attrgit/attrgit/internal/attribution"
)

func TestUpdateUnchangedSpanPreservesAuthor(t *testing.T) {
	old := []byte("line1\nline2\n")
	oldAttrs := []attribution.Attribution{{Start: 0, End: 12, AuthorID: "ai1", Timestamp: 100}}

	next := []byte("line1\nline2\nline3\n")
	got := attribution.Update(old, next, oldAttrs, "human", 200)

	require.Equal(t, []attribution.Attribution{
		{Start: 0, End: 12, AuthorID: "ai1", Timestamp: 100},
		{Start: 12, End: 18, AuthorID: "human", Timestamp: 200},
	}, got)
}

func TestUpdateDeletionDropsAttribution(t *testing.T) {
	old := []byte("a\nb\nc\n")
	oldAttrs := []attribution.Attribution{{Start: 0, End: 6, AuthorID: "ai1", Timestamp: 1}}
	next := []byte("a\nc\n")

	got := attribution.Update(old, next, oldAttrs, "human", 2)
	require.Equal(t, []attribution.Attribution{
		{Start: 0, End: 2, AuthorID: "ai1", Timestamp: 1},
		{Start: 2, End: 4, AuthorID: "ai1", Timestamp: 1},
	}, got)
}

func TestUpdateGapFillsUnattributedHumanBytes(t *testing.T) {
	old := []byte("a\nb\n")
	next := []byte("a\nb\nc\n")

	got := attribution.Update(old, next, nil, "ai1", 500)
	require.Equal(t, []attribution.Attribution{
		{Start: 0, End: 4, AuthorID: attribution.HumanAuthorID, Timestamp: 499},
		{Start: 4, End: 6, AuthorID: "ai1", Timestamp: 500},
	}, got)
}

func TestUpdateOverlapGreatestTimestampWins(t *testing.T) {
	old := []byte("abcdef")
	oldAttrs := []attribution.Attribution{
		{Start: 0, End: 6, AuthorID: "human", Timestamp: 1},
		{Start: 2, End: 4, AuthorID: "ai1", Timestamp: 5},
	}

	got := attribution.Update(old, old, oldAttrs, "human", 10)
	require.Equal(t, []attribution.Attribution{
		{Start: 0, End: 2, AuthorID: "human", Timestamp: 1},
		{Start: 2, End: 4, AuthorID: "ai1", Timestamp: 5},
		{Start: 4, End: 6, AuthorID: "human", Timestamp: 1},
	}, got)
}

func TestCompressExpandRoundTrip(t *testing.T) {
	cases := [][]attribution.LineRange{
		nil,
		{attribution.NewSingle(1)},
		{attribution.NewRange(1, 3), attribution.NewSingle(7)},
		{attribution.NewRange(1, 1), attribution.NewRange(5, 10)},
	}
	for _, c := range cases {
		expanded := attribution.ExpandLines(c)
		got := attribution.CompressLines(expanded)
		require.Equal(t, c, got)
	}
}

func TestLineRangeJSONRoundTrip(t *testing.T) {
	single := attribution.NewSingle(12)
	data, err := single.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, "12", string(data))

	rng := attribution.NewRange(20, 24)
	data, err = rng.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, "[20,24]", string(data))

	var decoded attribution.LineRange
	require.NoError(t, decoded.UnmarshalJSON([]byte("30")))
	require.Equal(t, attribution.NewSingle(30), decoded)

	require.NoError(t, decoded.UnmarshalJSON([]byte("[20,24]")))
	require.Equal(t, attribution.NewRange(20, 24), decoded)
}

func TestAttributionsToLineAttributionsScenarioA(t *testing.T) {
	content := []byte("Base line 1\nBase line 2\nNEW\nHello\nWorld\n")
	attrs := []attribution.Attribution{
		{Start: 0, End: 25, AuthorID: attribution.HumanAuthorID, Timestamp: 1},
		{Start: 25, End: len(content), AuthorID: "aihash", Timestamp: 2},
	}
	lineAttrs := attribution.AttributionsToLineAttributions(content, attrs)
	collapsed := attribution.CollapseByPrecedence(lineAttrs)

	require.ElementsMatch(t, []attribution.LineAttribution{
		{StartLine: 1, EndLine: 2, AuthorID: attribution.HumanAuthorID},
		{StartLine: 3, EndLine: 5, AuthorID: "aihash"},
	}, collapsed)
}
