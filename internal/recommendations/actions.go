// Package recommendations tracks operator decisions on AI-generated
// recommendations. The engine regenerates advice on every analysis run, so
// action state is keyed by the client-facing recommendation id rather than
// stored alongside the advice itself.
package recommendations

import (
	"sort"
	"sync"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/utils"
)

// ActionStatus is the operator's decision on a recommendation.
type ActionStatus string

const (
	StatusApplied   ActionStatus = "applied"
	StatusDismissed ActionStatus = "dismissed"
	StatusSnoozed   ActionStatus = "snoozed"
)

// Action records the latest decision taken on one recommendation.
type Action struct {
	RecommendationID string       `json:"recommendation_id"`
	Status           ActionStatus `json:"status"`
	Actor            string       `json:"actor"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// ActionStore holds in-memory action state. A repeated decision on the same
// id overwrites the previous one; there is no lifecycle ordering between the
// three statuses.
type ActionStore struct {
	mu      sync.Mutex
	actions map[string]Action
	now     utils.NowFunc
}

// NewActionStore creates an empty action store.
func NewActionStore(now utils.NowFunc) *ActionStore {
	if now == nil {
		now = utils.SystemClock
	}
	return &ActionStore{actions: make(map[string]Action), now: now}
}

// Set records a decision for the recommendation id and returns the new state
// plus the previous one when the id had been acted on before.
func (s *ActionStore) Set(id string, status ActionStatus, actor string) (Action, Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, had := s.actions[id]
	action := Action{
		RecommendationID: id,
		Status:           status,
		Actor:            actor,
		UpdatedAt:        s.now(),
	}
	s.actions[id] = action
	return action, previous, had
}

// Get returns the recorded action for an id, if any.
func (s *ActionStore) Get(id string) (Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	action, ok := s.actions[id]
	return action, ok
}

// All returns every recorded action ordered by recommendation id.
func (s *ActionStore) All() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Action, 0, len(s.actions))
	for _, action := range s.actions {
		out = append(out, action)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RecommendationID < out[j].RecommendationID
	})
	return out
}
