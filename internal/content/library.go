// Package content loads authored cases from a file system.
//
// Every case lives in its own directory:
//
//	<case>/case.json
//	<case>/dialogues/<dialogue>.json
//	<case>/evidence.json
//	<case>/relations.json
//	<case>/progress.json
//
// Each file may also be written as .yaml or .yml. Loaded content is immutable and cached.
package content

import (
	"context"
	"github.com/myrjola/deduce/internal/cases"
	"github.com/myrjola/deduce/internal/dialogue"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/myrjola/deduce/internal/relations"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"
)

// Library gives access to all the repositories over one content file system.
type Library struct {
	fsys   fs.FS
	logger *slog.Logger

	Cases     *CaseRepository
	Dialogues *DialogueRepository
	Evidence  *EvidenceRepository
	Relations *RelationRepository
	Progress  *ProgressRepository
}

func New(fsys fs.FS, logger *slog.Logger) *Library {
	logger = logger.With("source", "content")
	return &Library{
		fsys:      fsys,
		logger:    logger,
		Cases:     &CaseRepository{source: newSource(fsys, logger), cache: cache[*cases.Definition]{}},
		Dialogues: &DialogueRepository{source: newSource(fsys, logger), cache: cache[*dialogue.Dialogue]{}},
		Evidence:  &EvidenceRepository{source: newSource(fsys, logger), cache: cache[*evidenceSet]{}},
		Relations: &RelationRepository{source: newSource(fsys, logger), cache: cache[*relations.Graph]{}},
		Progress:  &ProgressRepository{source: newSource(fsys, logger), cache: cache[*cases.ProgressDefinition]{}},
	}
}

// CaseIDs lists the directories that hold a case file, sorted.
func (l *Library) CaseIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "list cases")
	}
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "read content root")
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() && exists(l.fsys, path.Join(e.Name(), "case")) {
			ids = append(ids, e.Name())
		}
	}
	slices.Sort(ids)
	return ids, nil
}

type source struct {
	fsys   fs.FS
	logger *slog.Logger
}

func newSource(fsys fs.FS, logger *slog.Logger) source {
	return source{fsys: fsys, logger: logger}
}

// load decodes the file name below the case directory into v.
func (s source) load(ctx context.Context, caseID, name string, v any) error {
	if err := checkID("case id", caseID); err != nil {
		return err
	}
	file, err := decode(ctx, s.fsys, path.Join(caseID, name), v)
	if err != nil {
		return errors.Wrap(err, "load content", slog.String("case_id", caseID))
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "loaded content", slog.String("file", file))
	return nil
}

// checkID rejects ids that would escape their directory.
func checkID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.Wrap(gameerr.ErrInvalidArgument, kind+" is empty")
	}
	if strings.ContainsAny(id, `/\`) || !fs.ValidPath(id) || id == "." {
		return errors.Wrap(gameerr.ErrInvalidArgument, kind+" is not a plain name", slog.String("id", id))
	}
	return nil
}

// cache keys entries by lower-cased id. Concurrent loads of the same key may both load but the first stored entry
// wins.
type cache[T any] struct {
	mu      sync.Mutex
	entries map[string]T
}

func (c *cache[T]) get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[strings.ToLower(key)]
	return v, ok
}

func (c *cache[T]) put(key string, v T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := strings.ToLower(key)
	if existing, ok := c.entries[k]; ok {
		return existing
	}
	if c.entries == nil {
		c.entries = make(map[string]T)
	}
	c.entries[k] = v
	return v
}
