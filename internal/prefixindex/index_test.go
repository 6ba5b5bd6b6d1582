package prefixindex

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(ms []Match) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Word)
	}
	return out
}

func ids(ms []Match) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Value.ID)
	}
	return out
}

func TestFindWordsWithPrefix_CaseInsensitive(t *testing.T) {
	ix := New()
	ix.Insert("Budapest", Record{ID: "1", Name: "Jazz Festival", Location: "Budapest"})

	want := ix.FindWordsWithPrefix("bud", 10)
	require.Len(t, want, 1)
	assert.Equal(t, "budapest", want[0].Word)

	for _, q := range []string{"BUD", "Bud", "bUd"} {
		assert.Equal(t, want, ix.FindWordsWithPrefix(q, 10), "query %q", q)
	}
}

func TestFindWordsWithPrefix_EveryProperPrefix(t *testing.T) {
	ix := New()
	inserted := []string{"Opera Gala", "Open Air Cinema", "Ópusztaszer", "Szeged"}
	for i, w := range inserted {
		ix.Insert(w, Record{ID: fmt.Sprint(i), Name: w})
	}

	for _, w := range inserted {
		lw := strings.ToLower(w)
		runes := []rune(lw)
		for n := 1; n < len(runes); n++ {
			p := string(runes[:n])
			assert.Contains(t, words(ix.FindWordsWithPrefix(p, 100)), lw, "prefix %q", p)
		}
	}
}

func TestFindWordsWithPrefix_MissingBranch(t *testing.T) {
	assert.Empty(t, New().FindWordsWithPrefix("xyz", 10))

	ix := New()
	ix.Insert("jazz", Record{ID: "1"})
	assert.Empty(t, ix.FindWordsWithPrefix("jaz!", 10))
	assert.Empty(t, ix.FindWordsWithPrefix("jazzy", 10))
}

func TestInsert_CapacityPerNode(t *testing.T) {
	ix := New()
	for i := 1; i <= DefaultMaxRecordsPerNode+3; i++ {
		ix.Insert("concert", Record{ID: fmt.Sprint(i)})
	}

	got := ix.FindWordsWithPrefix("concert", 100)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(got))
}

func TestInsert_CapacityOption(t *testing.T) {
	ix := New(WithMaxRecordsPerNode(2))
	ix.Insert("x", Record{ID: "a"})
	ix.Insert("x", Record{ID: "b"})
	ix.Insert("x", Record{ID: "c"})

	assert.Equal(t, []string{"a", "b"}, ids(ix.FindWordsWithPrefix("x", 10)))
}

func TestInsert_DuplicateID(t *testing.T) {
	ix := New()
	ix.Insert("Jazz Night", Record{ID: "2", Name: "Jazz Night"})
	ix.Insert("jazz night", Record{ID: "2", Name: "Renamed"})

	got := ix.FindWordsWithPrefix("jazz", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "Jazz Night", got[0].Value.Name)
}

func TestFindWordsWithPrefix_SkipsIDsAlreadyReturned(t *testing.T) {
	ix := New()
	rec := Record{ID: "7", Name: "Budapest Jazz", Location: "Budapest"}
	ix.Insert("budapest jazz", rec)
	ix.Insert("budapest", rec)

	got := ix.FindWordsWithPrefix("bud", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "budapest", got[0].Word)
}

func TestFindWordsWithPrefix_Limit(t *testing.T) {
	ix := New()
	for i := 0; i < 100; i++ {
		ix.Insert(fmt.Sprintf("w%03d", i), Record{ID: fmt.Sprint(i)})
	}

	assert.Len(t, ix.FindWordsWithPrefix("w", 7), 7)
	assert.Len(t, ix.FindWordsWithPrefix("w0", 1), 1)
	assert.Len(t, ix.FindWordsWithPrefix("w", 0), DefaultMaxResults)
	assert.Len(t, ix.FindWordsWithPrefix("w", -4), DefaultMaxResults)
}

func TestFindWordsWithPrefix_DefaultLimitOption(t *testing.T) {
	ix := New(WithMaxResults(3))
	for i := 0; i < 10; i++ {
		ix.Insert(fmt.Sprintf("k%d", i), Record{ID: fmt.Sprint(i)})
	}
	assert.Len(t, ix.FindWordsWithPrefix("k", 0), 3)
}

func TestEmptyGuards(t *testing.T) {
	ix := New()
	ix.Insert("jazz", Record{ID: "1"})
	before := ix.NodeCount()

	ix.Insert("", Record{ID: "2"})
	ix.Insert("blues", Record{})
	assert.Equal(t, before, ix.NodeCount())
	assert.Equal(t, 1, ix.Len())

	assert.Empty(t, ix.FindWordsWithPrefix("", 10))
}

func TestFindWordsWithPrefix_BreadthFirst(t *testing.T) {
	ix := New()
	ix.Insert("abcdef", Record{ID: "3"})
	ix.Insert("ab", Record{ID: "1"})
	ix.Insert("ac", Record{ID: "2"})

	got := ix.FindWordsWithPrefix("a", 3)
	assert.Equal(t, []string{"ab", "ac", "abcdef"}, words(got))

	got = ix.FindWordsWithPrefix("a", 2)
	assert.Equal(t, []string{"ab", "ac"}, words(got))
}

func TestClear(t *testing.T) {
	ix := New()
	ix.Insert("jazz", Record{ID: "1"})
	require.NotEmpty(t, ix.FindWordsWithPrefix("ja", 10))

	ix.Clear()
	assert.Empty(t, ix.FindWordsWithPrefix("ja", 10))
	assert.Zero(t, ix.NodeCount())
	assert.Zero(t, ix.Len())

	ix.Insert("java", Record{ID: "2"})
	got := ix.FindWordsWithPrefix("ja", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "java", got[0].Word)
	assert.Equal(t, "2", got[0].Value.ID)
	assert.Equal(t, 4, ix.NodeCount())
}

func TestJazzScenario(t *testing.T) {
	ix := New()
	events := []Record{
		{ID: "1", Name: "Jazz Festival", Location: "Budapest"},
		{ID: "2", Name: "Jazz Night", Location: "Vienna"},
	}
	for _, ev := range events {
		ix.Insert(ev.Name, ev)
	}

	got := ix.FindWordsWithPrefix("jazz", 10)
	require.Len(t, got, 2)
	// "jazz night" is shorter, so breadth-first reaches it first.
	assert.Equal(t, []string{"jazz night", "jazz festival"}, words(got))
	assert.Equal(t, []string{"2", "1"}, ids(got))
	assert.Equal(t, "Vienna", got[0].Value.Location)
	assert.Equal(t, "Budapest", got[1].Value.Location)
}

func TestInsert_TruncatesLongWords(t *testing.T) {
	ix := New()
	long := strings.Repeat("a", DefaultMaxWordLength+10)
	ix.Insert(long, Record{ID: "1"})

	assert.Equal(t, DefaultMaxWordLength, ix.NodeCount())

	got := ix.FindWordsWithPrefix(strings.Repeat("a", DefaultMaxWordLength), 10)
	require.Len(t, got, 1)
	assert.Equal(t, strings.Repeat("a", DefaultMaxWordLength), got[0].Word)

	assert.Empty(t, ix.FindWordsWithPrefix(strings.Repeat("a", DefaultMaxWordLength+1), 10))
}

func TestInsert_TruncatesByRune(t *testing.T) {
	ix := New(WithMaxWordLength(3))
	ix.Insert("ŐŐŐŐ", Record{ID: "1"})

	assert.Equal(t, 3, ix.NodeCount())
	got := ix.FindWordsWithPrefix("ő", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "őőő", got[0].Word)
}

func TestInsert_MultiByteRunesAreSingleLevels(t *testing.T) {
	ix := New()
	ix.Insert("Győr", Record{ID: "1"})
	ix.Insert("Gyula", Record{ID: "2"})

	// g, y, ő, r, u, l, a
	assert.Equal(t, 7, ix.NodeCount())
	assert.Equal(t, []string{"győr"}, words(ix.FindWordsWithPrefix("GYŐ", 10)))
	assert.Equal(t, []string{"győr", "gyula"}, words(ix.FindWordsWithPrefix("gy", 10)))
}

func TestDelete(t *testing.T) {
	ix := New()
	ix.Insert("ab", Record{ID: "1"})
	ix.Insert("abc", Record{ID: "2"})
	ix.Insert("abc", Record{ID: "3"})
	require.Equal(t, 3, ix.NodeCount())

	assert.False(t, ix.Delete("abc", "9"))
	assert.False(t, ix.Delete("abd", "2"))
	assert.False(t, ix.Delete("", "2"))

	assert.True(t, ix.Delete("ABC", "2"))
	assert.Equal(t, []string{"1", "3"}, ids(ix.FindWordsWithPrefix("a", 10)))
	assert.Equal(t, 3, ix.NodeCount())

	assert.True(t, ix.Delete("abc", "3"))
	assert.Equal(t, 2, ix.NodeCount())
	assert.Equal(t, 1, ix.Len())
	assert.Equal(t, []string{"ab"}, words(ix.FindWordsWithPrefix("a", 10)))

	assert.True(t, ix.Delete("ab", "1"))
	assert.Zero(t, ix.NodeCount())
	assert.Zero(t, ix.Len())
	assert.Empty(t, ix.FindWordsWithPrefix("a", 10))
}

func TestDelete_KeepsSharedPrefix(t *testing.T) {
	ix := New()
	ix.Insert("abcd", Record{ID: "1"})
	ix.Insert("abxy", Record{ID: "2"})
	require.Equal(t, 6, ix.NodeCount())

	assert.True(t, ix.Delete("abcd", "1"))
	assert.Equal(t, 4, ix.NodeCount())
	assert.Equal(t, []string{"abxy"}, words(ix.FindWordsWithPrefix("ab", 10)))
}

func TestWideFanout(t *testing.T) {
	ix := New()
	letters := []rune("qwertyuiopasdfghjklz")
	for i, r := range letters {
		ix.Insert(string(r)+"x", Record{ID: fmt.Sprint(i)})
	}

	for i, r := range letters {
		got := ix.FindWordsWithPrefix(string(r), 10)
		require.Len(t, got, 1, "letter %q", r)
		assert.Equal(t, fmt.Sprint(i), got[0].Value.ID)
	}

	for i, r := range letters[:15] {
		require.True(t, ix.Delete(string(r)+"x", fmt.Sprint(i)))
	}
	for i, r := range letters[15:] {
		got := ix.FindWordsWithPrefix(string(r), 10)
		require.Len(t, got, 1, "letter %q", r)
		assert.Equal(t, fmt.Sprint(i+15), got[0].Value.ID)
	}
	assert.Equal(t, 10, ix.NodeCount())
}
