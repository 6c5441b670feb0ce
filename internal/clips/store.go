package clips

import "context"

// Store is the persistence abstraction for replay state.
// Implementations can be in-memory or remote (see RedisStore).
// The Repository uses Store for all reads and writes and always writes a
// replay back with SetReplay after changing it.
type Store interface {
	GetReplay(ctx context.Context, id ReplayID) (*ReplayState, bool, error)
	SetReplay(ctx context.Context, s *ReplayState) error
	ListReplayIDs(ctx context.Context) ([]ReplayID, error)
}

// InMemoryStore is an in-memory implementation of Store.
type InMemoryStore struct {
	replays map[ReplayID]*ReplayState
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		replays: make(map[ReplayID]*ReplayState),
	}
}

// GetReplay implements Store.GetReplay.
func (s *InMemoryStore) GetReplay(_ context.Context, id ReplayID) (*ReplayState, bool, error) {
	st, ok := s.replays[id]
	return st, ok, nil
}

// SetReplay implements Store.SetReplay.
func (s *InMemoryStore) SetReplay(_ context.Context, st *ReplayState) error {
	s.replays[st.Record.ID] = st
	return nil
}

// ListReplayIDs implements Store.ListReplayIDs.
func (s *InMemoryStore) ListReplayIDs(_ context.Context) ([]ReplayID, error) {
	ids := make([]ReplayID, 0, len(s.replays))
	for id := range s.replays {
		ids = append(ids, id)
	}
	return ids, nil
}
