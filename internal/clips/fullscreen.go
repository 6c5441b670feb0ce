package clips

// Fullscreen is the fullscreen toggle capability handed to the player.
// The controller never calls it; it only carries it.
type Fullscreen interface {
	Enabled() bool
	IsFullscreen() bool
	Request() error
	Exit() error
	// Subscribe registers handler for event ("change" or "error") and
	// returns a function that removes it.
	Subscribe(event string, handler func()) (unsubscribe func())
}

// noFullscreen is used when no capability is injected.
type noFullscreen struct{}

func (noFullscreen) Enabled() bool                   { return false }
func (noFullscreen) IsFullscreen() bool              { return false }
func (noFullscreen) Request() error                  { return nil }
func (noFullscreen) Exit() error                     { return nil }
func (noFullscreen) Subscribe(string, func()) func() { return func() {} }
