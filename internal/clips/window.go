package clips

import (
	"math"
	"sort"
)

const (
	// DefaultLeadMs is how much of the recording is shown before the event.
	DefaultLeadMs int64 = 10000
	// DefaultTrailMs is how much of the recording is shown after the event.
	DefaultTrailMs int64 = 5000
)

// ComputeClipWindow maps an absolute event time onto a window relative to the
// replay start: leadMs before the event and trailMs after it, clamped to
// [0, durationMs]. When durationMs is unknown (negative) the nominal
// leadMs+trailMs window is returned unclamped.
//
// If clamping would invert the window (event past the end of a very short
// recording) it collapses to a zero-length window at durationMs. Offsets
// saturate at math.MaxInt64 instead of wrapping.
func ComputeClipWindow(startTimestampMs, eventTimestampMs, durationMs, leadMs, trailMs int64) ClipWindow {
	if leadMs < 0 {
		leadMs = 0
	}
	if trailMs < 0 {
		trailMs = 0
	}

	eventOffset := satSub(eventTimestampMs, startTimestampMs)
	if eventOffset < 0 {
		eventOffset = 0
	}

	start := eventOffset - leadMs
	if start < 0 {
		start = 0
	}

	if durationMs < 0 {
		return ClipWindow{StartOffsetMs: start, EndOffsetMs: satAdd(satAdd(start, leadMs), trailMs)}
	}

	end := satAdd(eventOffset, trailMs)
	if end > durationMs {
		end = durationMs
	}
	if start > end {
		return ClipWindow{StartOffsetMs: durationMs, EndOffsetMs: durationMs}
	}
	return ClipWindow{StartOffsetMs: start, EndOffsetMs: end}
}

func satAdd(a, b int64) int64 {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64
	}
	return a + b
}

func satSub(a, b int64) int64 {
	switch {
	case b > 0 && a < math.MinInt64+b:
		return math.MinInt64
	case b < 0 && a > math.MaxInt64+b:
		return math.MaxInt64
	}
	return a - b
}

// attachmentsInWindow returns the attachments whose offset from startTimestampMs
// falls within w, ordered by sequence. Attachments of the error kind are
// returned separately.
func attachmentsInWindow(atts []Attachment, startTimestampMs int64, w ClipWindow) (frames, errs []Attachment) {
	sorted := make([]Attachment, len(atts))
	copy(sorted, atts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })

	for _, a := range sorted {
		if !w.Contains(satSub(a.TimestampMs, startTimestampMs)) {
			continue
		}
		if a.Kind == AttachmentKindError {
			errs = append(errs, a)
			continue
		}
		frames = append(frames, a)
	}
	return frames, errs
}
