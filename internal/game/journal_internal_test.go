package game

import (
	"github.com/stretchr/testify/require"
	"strconv"
	"testing"
	"time"
)

func TestJournal(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	j := newJournal(func() time.Time { return at })
	require.Empty(t, j.Entries())
	require.Empty(t, j.Since(0))

	j.add(EntryCase, "first")
	j.add(EntryLine, "second")
	require.Equal(t, []Entry{
		{Seq: 1, At: at, Kind: EntryCase, Text: "first"},
		{Seq: 2, At: at, Kind: EntryLine, Text: "second"},
	}, j.Entries())
	require.Equal(t, []Entry{{Seq: 2, At: at, Kind: EntryLine, Text: "second"}}, j.Since(1))
	require.Empty(t, j.Since(2))
}

func TestJournalDropsOldest(t *testing.T) {
	j := newJournal(time.Now)
	for i := range journalCapacity + 10 {
		j.add(EntryLine, strconv.Itoa(i))
	}

	entries := j.Entries()
	require.Len(t, entries, journalCapacity)
	require.Equal(t, 11, entries[0].Seq)
	require.Equal(t, "10", entries[0].Text)
	require.Len(t, j.Since(0), journalCapacity, "dropped entries are gone")
	require.Len(t, j.Since(journalCapacity+5), 5)
}
