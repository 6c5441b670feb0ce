package clips

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Repository defines the concurrency-safe contract for accessing and mutating
// replay state.
type Repository interface {
	// RegisterReplay creates or replaces the metadata of a replay. Attachments
	// already registered for it are kept. Re-registering a finished replay
	// returns ErrReplayFinished.
	RegisterReplay(ctx context.Context, rec ReplayRecord) error

	// RegisterAttachment records an attachment for the given replay.
	// Duplicate sequence numbers are ignored and do not corrupt state.
	// If the replay does not exist ErrReplayNotFound is returned; if it has
	// been finished ErrReplayFinished is returned.
	RegisterAttachment(ctx context.Context, id ReplayID, att Attachment) error

	// GetReplaySnapshot returns the replay metadata and a copy of its
	// attachments sorted by sequence number. The ok return is false if the
	// replay does not exist.
	GetReplaySnapshot(ctx context.Context, id ReplayID) (rec ReplayRecord, atts []Attachment, ok bool, err error)

	// FinishReplay fixes the replay duration from finishedAtMs and marks the
	// replay finished. After this, new attachments are rejected. Finishing
	// twice is a no-op.
	FinishReplay(ctx context.Context, id ReplayID, finishedAtMs int64) error

	// ActiveReplayCount returns the number of replays that are not finished.
	// Used for metrics.
	ActiveReplayCount(ctx context.Context) (int, error)
}

var (
	// ErrReplayFinished is returned when attempting to change a replay that
	// has already been finished.
	ErrReplayFinished = errors.New("replay has finished")

	// ErrReplayNotFound is returned for operations on an unknown replay.
	ErrReplayNotFound = errors.New("replay not found")
)

// StoreRepository is a concurrency-safe implementation of Repository on top
// of a Store; by default that is an InMemoryStore.
type StoreRepository struct {
	mu    sync.RWMutex
	store Store
}

// NewInMemoryRepository constructs a new repository with a default in-memory store.
func NewInMemoryRepository() *StoreRepository {
	return NewRepositoryWithStore(NewInMemoryStore())
}

// NewRepositoryWithStore constructs a repository that uses the given Store.
func NewRepositoryWithStore(store Store) *StoreRepository {
	return &StoreRepository{store: store}
}

// RegisterReplay implements Repository.RegisterReplay.
func (r *StoreRepository) RegisterReplay(ctx context.Context, rec ReplayRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok, err := r.store.GetReplay(ctx, rec.ID)
	if err != nil {
		return err
	}
	if !ok {
		st = &ReplayState{Attachments: make(map[int64]Attachment)}
	} else if st.Finished {
		return ErrReplayFinished
	}
	st.Record = rec

	return r.store.SetReplay(ctx, st)
}

// RegisterAttachment implements Repository.RegisterAttachment.
func (r *StoreRepository) RegisterAttachment(ctx context.Context, id ReplayID, att Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok, err := r.store.GetReplay(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrReplayNotFound
	}
	if st.Finished {
		return ErrReplayFinished
	}

	if _, exists := st.Attachments[att.Sequence]; exists {
		return nil
	}
	st.Attachments[att.Sequence] = att

	return r.store.SetReplay(ctx, st)
}

// GetReplaySnapshot implements Repository.GetReplaySnapshot.
func (r *StoreRepository) GetReplaySnapshot(ctx context.Context, id ReplayID) (ReplayRecord, []Attachment, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok, err := r.store.GetReplay(ctx, id)
	if err != nil || !ok {
		return ReplayRecord{}, nil, false, err
	}

	if len(st.Attachments) == 0 {
		return st.Record, nil, true, nil
	}

	atts := make([]Attachment, 0, len(st.Attachments))
	for _, a := range st.Attachments {
		atts = append(atts, a)
	}
	sort.Slice(atts, func(i, j int) bool { return atts[i].Sequence < atts[j].Sequence })

	return st.Record, atts, true, nil
}

// FinishReplay implements Repository.FinishReplay.
func (r *StoreRepository) FinishReplay(ctx context.Context, id ReplayID, finishedAtMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok, err := r.store.GetReplay(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrReplayNotFound
	}
	if st.Finished {
		return nil
	}

	d := satSub(finishedAtMs, st.Record.StartTimestampMs)
	if d < 0 {
		d = 0
	}
	st.Record.DurationMs = d
	st.Finished = true

	return r.store.SetReplay(ctx, st)
}

// ActiveReplayCount implements Repository.ActiveReplayCount.
func (r *StoreRepository) ActiveReplayCount(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, err := r.store.ListReplayIDs(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		st, ok, err := r.store.GetReplay(ctx, id)
		if err != nil {
			return 0, err
		}
		if ok && !st.Finished {
			n++
		}
	}
	return n, nil
}
