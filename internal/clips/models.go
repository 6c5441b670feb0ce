package clips

import "encoding/json"

// ReplayID uniquely identifies a recorded session (32 lowercase hex chars).
type ReplayID string

// DurationUnknown marks a replay whose duration has not been reported yet.
const DurationUnknown int64 = -1

// ReplayRecord is the metadata of a recorded session.
type ReplayRecord struct {
	ID               ReplayID `json:"id"`
	ProjectSlug      string   `json:"project_slug"`
	StartTimestampMs int64    `json:"started_at_ms"`
	DurationMs       int64    `json:"duration_ms"`
}

// DurationKnown reports whether the recording duration has been reported.
func (r ReplayRecord) DurationKnown() bool {
	return r.DurationMs >= 0
}

// AttachmentKindError is the kind of attachments that carry captured errors.
const AttachmentKindError = "error"

// Attachment is one timestamped unit of captured session data.
// This also matches the input JSON payload for registering attachments.
type Attachment struct {
	Sequence    int64           `json:"sequence"`
	TimestampMs int64           `json:"timestamp_ms"`
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// ReplayState is the stored representation of a replay and its attachments.
type ReplayState struct {
	Record      ReplayRecord         `json:"record"`
	Attachments map[int64]Attachment `json:"attachments"`

	// Finished is set only by FinishReplay; afterwards the replay is frozen.
	Finished bool `json:"finished"`
}

// ClipWindow is a time range relative to ReplayRecord.StartTimestampMs.
type ClipWindow struct {
	StartOffsetMs int64 `json:"start_offset_ms"`
	EndOffsetMs   int64 `json:"end_offset_ms"`
}

// DurationMs returns the length of the window.
func (w ClipWindow) DurationMs() int64 {
	return w.EndOffsetMs - w.StartOffsetMs
}

// Contains reports whether offsetMs lies within the window, bounds included.
func (w ClipWindow) Contains(offsetMs int64) bool {
	return offsetMs >= w.StartOffsetMs && offsetMs <= w.EndOffsetMs
}

// SeekRange is what a seek control is initialized with.
type SeekRange struct {
	Min   int64 `json:"min"`
	Max   int64 `json:"max"`
	Value int64 `json:"value"`
}

// Seek returns the seek control range for the window, positioned at its start.
func (w ClipWindow) Seek() SeekRange {
	return SeekRange{Min: w.StartOffsetMs, Max: w.EndOffsetMs, Value: w.StartOffsetMs}
}
