package game

import (
	"slices"
	"sync"
	"time"
)

type EntryKind string

const (
	EntryCase          EntryKind = "case"
	EntryInterrogation EntryKind = "interrogation"
	EntryLine          EntryKind = "line"
	EntryEvidence      EntryKind = "evidence"
	EntrySelection     EntryKind = "selection"
	EntryDiscovery     EntryKind = "discovery"
	EntryStatus        EntryKind = "status"
)

// Entry is one thing that happened in a game, phrased for the player.
type Entry struct {
	// Seq numbers the entries of a game from 1 and keeps counting when old entries are dropped.
	Seq  int
	At   time.Time
	Kind EntryKind
	Text string
}

const journalCapacity = 500

// Journal keeps the latest entries of a game. The oldest entries are dropped once it is full.
type Journal struct {
	mu      sync.Mutex
	now     func() time.Time
	seq     int
	entries []Entry
}

func newJournal(now func() time.Time) *Journal {
	return &Journal{now: now, seq: 0, entries: nil} //nolint:exhaustruct // zero mutex
}

func (j *Journal) add(kind EntryKind, text string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.entries) == journalCapacity {
		j.entries = slices.Delete(j.entries, 0, 1)
	}
	j.seq++
	j.entries = append(j.entries, Entry{Seq: j.seq, At: j.now(), Kind: kind, Text: text})
}

// Entries returns the entries oldest first.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.entries)
}

// Since returns the entries numbered after seq, oldest first.
func (j *Journal) Since(seq int) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	i, _ := slices.BinarySearchFunc(j.entries, seq+1, func(e Entry, target int) int {
		return e.Seq - target
	})
	return slices.Clone(j.entries[i:])
}
