package clips

import (
	"context"
	"fmt"
	"net/http"
)

// FetchStatus tags a FetchState.
type FetchStatus int

const (
	FetchLoading FetchStatus = iota
	FetchFailed
	FetchReady
)

func (s FetchStatus) String() string {
	switch s {
	case FetchLoading:
		return "loading"
	case FetchFailed:
		return "error"
	case FetchReady:
		return "ready"
	default:
		return fmt.Sprintf("FetchStatus(%d)", int(s))
	}
}

// FetchError describes a failed fetch. Status follows HTTP semantics.
type FetchError struct {
	Status int    `json:"status"`
	Cause  string `json:"cause,omitempty"`
}

func (e *FetchError) Error() string {
	if e.Cause == "" {
		return fmt.Sprintf("fetch failed with status %d", e.Status)
	}
	return fmt.Sprintf("fetch failed with status %d: %s", e.Status, e.Cause)
}

// FetchState is one state reported by a Fetcher. Err is set only for
// FetchFailed; Replay only for FetchReady.
type FetchState struct {
	Status      FetchStatus
	Err         *FetchError
	Replay      *ReplayRecord
	Attachments []Attachment
}

// Loading returns a FetchLoading state.
func Loading() FetchState { return FetchState{Status: FetchLoading} }

// Failed returns a FetchFailed state carrying err.
func Failed(err *FetchError) FetchState { return FetchState{Status: FetchFailed, Err: err} }

// Ready returns a FetchReady state for rec.
func Ready(rec ReplayRecord, atts []Attachment) FetchState {
	return FetchState{Status: FetchReady, Replay: &rec, Attachments: atts}
}

// FetchRequest identifies the recording to fetch.
type FetchRequest struct {
	ReplayID ReplayID
}

// Fetcher retrieves recording data. Subscribe reports the states of one fetch
// attempt on the returned channel and closes it once the attempt settles or
// ctx is done. Each call is a fresh attempt.
type Fetcher interface {
	Subscribe(ctx context.Context, req FetchRequest) <-chan FetchState
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req FetchRequest) <-chan FetchState

// Subscribe implements Fetcher.
func (f FetcherFunc) Subscribe(ctx context.Context, req FetchRequest) <-chan FetchState {
	return f(ctx, req)
}

// RepositoryFetcher is a Fetcher that reads replays from a Repository.
type RepositoryFetcher struct {
	repo Repository
}

// NewRepositoryFetcher returns a Fetcher backed by repo.
func NewRepositoryFetcher(repo Repository) *RepositoryFetcher {
	return &RepositoryFetcher{repo: repo}
}

// Subscribe implements Fetcher.
func (f *RepositoryFetcher) Subscribe(ctx context.Context, req FetchRequest) <-chan FetchState {
	ch := make(chan FetchState, 2)
	go func() {
		defer close(ch)
		ch <- Loading()

		rec, atts, ok, err := f.repo.GetReplaySnapshot(ctx, req.ReplayID)
		var st FetchState
		switch {
		case err != nil:
			st = Failed(&FetchError{Status: http.StatusInternalServerError, Cause: err.Error()})
		case !ok:
			st = Failed(&FetchError{Status: http.StatusNotFound, Cause: ErrReplayNotFound.Error()})
		default:
			st = Ready(rec, atts)
		}

		select {
		case ch <- st:
		case <-ctx.Done():
		}
	}()
	return ch
}
