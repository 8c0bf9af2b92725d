package evidence

import (
	"github.com/myrjola/deduce/internal/broker"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

type Unlocked struct {
	CaseID     string
	EvidenceID string
}

type unlockKey struct {
	caseID     string
	evidenceID string
}

func newUnlockKey(caseID, evidenceID string) (unlockKey, error) {
	if strings.TrimSpace(caseID) == "" {
		return unlockKey{}, errors.Wrap(gameerr.ErrInvalidArgument, "case id is empty")
	}
	if strings.TrimSpace(evidenceID) == "" {
		return unlockKey{}, errors.Wrap(gameerr.ErrInvalidArgument, "evidence id is empty",
			slog.String("case_id", caseID))
	}
	return unlockKey{caseID: strings.ToLower(caseID), evidenceID: strings.ToLower(evidenceID)}, nil
}

// UnlockService remembers which evidence the player has unlocked and which of it is still unread. Ids are compared
// ignoring case.
type UnlockService struct {
	mu       sync.Mutex
	unlocked map[unlockKey]struct{}
	unread   map[unlockKey]struct{}
	// order keeps the unlock order per lower-cased case id, with the ids as given.
	order map[string][]string

	evidenceUnlocked broker.Topic[Unlocked]
}

func NewUnlockService() *UnlockService {
	return &UnlockService{ //nolint:exhaustruct // nothing unlocked yet
		unlocked: make(map[unlockKey]struct{}),
		unread:   make(map[unlockKey]struct{}),
		order:    make(map[string][]string),
	}
}

func (s *UnlockService) OnEvidenceUnlocked(handler func(Unlocked)) func() {
	return s.evidenceUnlocked.Subscribe(handler)
}

// Unlock marks the evidence unlocked and unread. Unlocked is published only the first time.
func (s *UnlockService) Unlock(caseID, evidenceID string) (bool, error) {
	k, err := newUnlockKey(caseID, evidenceID)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if _, ok := s.unlocked[k]; ok {
		s.mu.Unlock()
		return false, nil
	}
	s.unlocked[k] = struct{}{}
	s.unread[k] = struct{}{}
	s.order[k.caseID] = append(s.order[k.caseID], evidenceID)
	s.mu.Unlock()

	s.evidenceUnlocked.Publish(Unlocked{CaseID: caseID, EvidenceID: evidenceID})
	return true, nil
}

func (s *UnlockService) IsDiscovered(caseID, evidenceID string) (bool, error) {
	k, err := newUnlockKey(caseID, evidenceID)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.unlocked[k]
	return ok, nil
}

func (s *UnlockService) IsNew(caseID, evidenceID string) (bool, error) {
	k, err := newUnlockKey(caseID, evidenceID)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.unread[k]
	return ok, nil
}

// MarkAsRead clears the unread flag. It publishes nothing.
func (s *UnlockService) MarkAsRead(caseID, evidenceID string) error {
	k, err := newUnlockKey(caseID, evidenceID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.unread, k)
	return nil
}

// Unlocked returns the unlocked evidence ids of a case in unlock order.
func (s *UnlockService) Unlocked(caseID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order[strings.ToLower(caseID)])
}
