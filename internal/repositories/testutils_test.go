package repositories_test

import (
	"context"
	"github.com/google/uuid"
	"github.com/myrjola/deduce/internal/repositories"
	"github.com/myrjola/deduce/internal/sqlite"
	"github.com/myrjola/deduce/internal/testhelpers"
	"io"
	"testing"
)

// newTestDB creates a new in-memory database for testing purposes.
func newTestDB(t *testing.T) *sqlite.Database {
	t.Helper()
	db, err := sqlite.NewDatabase(context.Background(), ":memory:", testhelpers.NewLogger(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err = db.Close(); err != nil {
			t.Fatal(err)
		}
	})
	return db
}

// newPlayer stores a fresh player.
func newPlayer(t *testing.T, db *sqlite.Database) uuid.UUID {
	t.Helper()
	id := uuid.New()
	players := repositories.NewPlayerRepository(db, testhelpers.NewLogger(io.Discard))
	if err := players.Ensure(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	return id
}
