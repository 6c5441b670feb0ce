package clips

import (
	"context"
	"log/slog"
	"time"
)

// DefaultFetchTimeout bounds how long a preview request waits for the
// recording before answering with the placeholder.
const DefaultFetchTimeout = 5 * time.Second

// Config holds the clip settings of a Service. A zero lead or trail is a
// valid setting; negative values, and a non-positive fetch timeout, fall back
// to the defaults.
type Config struct {
	LeadMs       int64
	TrailMs      int64
	FetchTimeout time.Duration
}

// DefaultConfig returns the default clip settings.
func DefaultConfig() Config {
	return Config{LeadMs: DefaultLeadMs, TrailMs: DefaultTrailMs, FetchTimeout: DefaultFetchTimeout}
}

// Service answers clip previews from replays kept in a Repository.
type Service struct {
	repo    Repository
	fetcher Fetcher
	cfg     Config
	log     *slog.Logger
}

// NewService returns a Service that reads replays through repo.
func NewService(repo Repository, cfg Config, log *slog.Logger) *Service {
	if cfg.LeadMs < 0 {
		cfg.LeadMs = DefaultLeadMs
	}
	if cfg.TrailMs < 0 {
		cfg.TrailMs = DefaultTrailMs
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, fetcher: NewRepositoryFetcher(repo), cfg: cfg, log: log}
}

// RegisterReplay records replay metadata.
func (s *Service) RegisterReplay(ctx context.Context, rec ReplayRecord) error {
	return s.repo.RegisterReplay(ctx, rec)
}

// RegisterAttachment records an attachment; duplicates are idempotent.
func (s *Service) RegisterAttachment(ctx context.Context, id ReplayID, att Attachment) error {
	return s.repo.RegisterAttachment(ctx, id, att)
}

// FinishReplay fixes the replay duration; new attachments will be rejected.
func (s *Service) FinishReplay(ctx context.Context, id ReplayID, finishedAtMs int64) error {
	return s.repo.FinishReplay(ctx, id, finishedAtMs)
}

// ActiveReplayCount returns the number of replays still recording.
func (s *Service) ActiveReplayCount(ctx context.Context) (int, error) {
	return s.repo.ActiveReplayCount(ctx)
}

// Preview runs a Controller for p until it settles or the fetch timeout
// passes, and returns the resulting view. A preview still loading at the
// timeout is returned as the placeholder.
func (s *Service) Preview(ctx context.Context, p PreviewParams) View {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	c := NewController(s.fetcher, p, WithWindow(s.cfg.LeadMs, s.cfg.TrailMs), WithLogger(s.log))
	defer c.Close()

	c.Start(ctx)
	v, err := c.Wait(ctx)
	if err != nil {
		s.log.Warn("clip preview still loading",
			slog.String("replay_id", string(p.ReplayID)),
			slog.String("error", err.Error()))
	}
	return v
}
