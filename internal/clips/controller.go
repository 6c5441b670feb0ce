package clips

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
)

// ViewState is the render state of a clip preview.
type ViewState string

const (
	ViewLoading ViewState = "loading"
	ViewError   ViewState = "error"
	ViewReady   ViewState = "ready"
)

// Markers identify what a view renders. Exactly one is present per view.
const (
	MarkerLoading = "replay-loading-placeholder"
	MarkerError   = "replay-error"
	MarkerSeek    = "seek-slider"
)

// Clip is what the ready state exposes to the seek control and the
// "See Full Replay" action.
type Clip struct {
	Replay      ReplayRecord `json:"replay"`
	Window      ClipWindow   `json:"window"`
	Seek        SeekRange    `json:"seek"`
	DeepLink    string       `json:"deep_link"`
	Attachments []Attachment `json:"attachments"`
	Errors      []Attachment `json:"errors"`
}

// View is one render state of a clip preview. Error is set only in the error
// state and Clip only in the ready state.
type View struct {
	State     ViewState   `json:"state"`
	Marker    string      `json:"marker"`
	Error     *FetchError `json:"error,omitempty"`
	Retryable bool        `json:"retryable"`
	Clip      *Clip       `json:"clip,omitempty"`
}

func loadingView() View {
	return View{State: ViewLoading, Marker: MarkerLoading}
}

// PreviewParams are the inputs of one clip preview.
type PreviewParams struct {
	OrgSlug          string
	ReplayID         ReplayID
	EventTimestampMs int64
	Routes           []string
	OriginTag        string
}

// Controller drives a clip preview from the states reported by a Fetcher.
//
// States: loading -> {ready, error}; error -> loading on Retry. Within one
// fetch attempt a ready view is never replaced by an error or a placeholder;
// only a new attempt started by Retry can do that. States reported by a
// superseded attempt, or after Close, are dropped.
type Controller struct {
	fetcher    Fetcher
	params     PreviewParams
	leadMs     int64
	trailMs    int64
	fullscreen Fullscreen
	log        *slog.Logger

	mu         sync.Mutex
	view       View
	attempt    uint64
	streamDone bool
	closed     bool
	cancel     context.CancelFunc
	changed    chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithWindow sets the lead and trail around the event.
func WithWindow(leadMs, trailMs int64) Option {
	return func(c *Controller) {
		c.leadMs = leadMs
		c.trailMs = trailMs
	}
}

// WithFullscreen injects the fullscreen capability handed to the player.
func WithFullscreen(f Fullscreen) Option {
	return func(c *Controller) {
		if f != nil {
			c.fullscreen = f
		}
	}
}

// WithLogger sets the logger used for state transitions.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// NewController returns a controller in the loading state. Nothing is fetched
// until Start is called.
func NewController(f Fetcher, p PreviewParams, opts ...Option) *Controller {
	c := &Controller{
		fetcher:    f,
		params:     p,
		leadMs:     DefaultLeadMs,
		trailMs:    DefaultTrailMs,
		fullscreen: noFullscreen{},
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		view:       loadingView(),
		changed:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins the first fetch attempt.
func (c *Controller) Start(ctx context.Context) {
	c.startAttempt(ctx)
}

// Retry supersedes the current attempt with a fresh one and returns the
// view to loading.
func (c *Controller) Retry(ctx context.Context) {
	c.startAttempt(ctx)
}

// Close cancels the in-flight fetch; later states are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.broadcastLocked()
}

// View returns the current render state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Fullscreen returns the capability to hand to the player.
func (c *Controller) Fullscreen() Fullscreen {
	return c.fullscreen
}

// Wait blocks until the view leaves the loading state, the current attempt's
// stream ends, the controller is closed, or ctx is done. It returns the view
// at that point; the error is ctx.Err() when ctx ended the wait.
func (c *Controller) Wait(ctx context.Context) (View, error) {
	for {
		c.mu.Lock()
		v, done, ch := c.view, c.streamDone || c.closed, c.changed
		c.mu.Unlock()

		if v.State != ViewLoading || done {
			return v, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return c.View(), ctx.Err()
		}
	}
}

func (c *Controller) startAttempt(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.attempt++
	n := c.attempt
	actx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.streamDone = false
	c.setViewLocked(loadingView())
	c.mu.Unlock()

	ch := c.fetcher.Subscribe(actx, FetchRequest{ReplayID: c.params.ReplayID})
	go c.consume(n, ch)
}

func (c *Controller) consume(n uint64, ch <-chan FetchState) {
	for st := range ch {
		c.apply(n, st)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if n == c.attempt && !c.closed {
		c.streamDone = true
		c.broadcastLocked()
	}
}

func (c *Controller) apply(n uint64, st FetchState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || n != c.attempt {
		return
	}

	next := c.derive(st)
	switch {
	case c.view.State == ViewReady && next.State != ViewReady:
		c.log.Debug("ignoring fetch state after ready",
			slog.String("replay_id", string(c.params.ReplayID)),
			slog.String("fetch_status", st.Status.String()))
		return
	case c.view.State == ViewError && next.State == ViewLoading:
		return
	}

	if c.view.State != next.State {
		c.log.Debug("clip preview transition",
			slog.String("replay_id", string(c.params.ReplayID)),
			slog.String("from", string(c.view.State)),
			slog.String("to", string(next.State)))
	}
	c.setViewLocked(next)
}

// derive maps a fetch state onto a view. An error wins over everything else;
// a ready state without a record still renders the placeholder.
func (c *Controller) derive(st FetchState) View {
	switch st.Status {
	case FetchFailed:
		err := st.Err
		if err == nil {
			err = &FetchError{Status: http.StatusInternalServerError}
		}
		return View{State: ViewError, Marker: MarkerError, Error: err, Retryable: true}
	case FetchReady:
		if st.Replay == nil {
			return loadingView()
		}
		return View{State: ViewReady, Marker: MarkerSeek, Clip: c.buildClip(*st.Replay, st.Attachments)}
	default:
		return loadingView()
	}
}

func (c *Controller) buildClip(rec ReplayRecord, atts []Attachment) *Clip {
	w := ComputeClipWindow(rec.StartTimestampMs, c.params.EventTimestampMs, rec.DurationMs, c.leadMs, c.trailMs)
	link := BuildDeepLink(LinkParams{
		OrgSlug:   c.params.OrgSlug,
		ReplayID:  c.params.ReplayID,
		Routes:    c.params.Routes,
		OriginTag: c.params.OriginTag,
	}, w)
	frames, errs := attachmentsInWindow(atts, rec.StartTimestampMs, w)

	return &Clip{
		Replay:      rec,
		Window:      w,
		Seek:        w.Seek(),
		DeepLink:    link.String(),
		Attachments: frames,
		Errors:      errs,
	}
}

func (c *Controller) setViewLocked(v View) {
	c.view = v
	c.broadcastLocked()
}

// broadcastLocked wakes every Wait. Caller must hold c.mu.
func (c *Controller) broadcastLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}
