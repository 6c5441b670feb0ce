package clips

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	fixtureStartMs = time.Date(2022, 9, 22, 16, 58, 39, 0, time.UTC).UnixMilli()
	fixtureEventMs = time.Date(2022, 9, 22, 16, 59, 41, 0, time.UTC).UnixMilli()
)

const fixtureDurationMs int64 = 84000

func TestComputeClipWindow_recorded_fixture(t *testing.T) {
	w := ComputeClipWindow(fixtureStartMs, fixtureEventMs, fixtureDurationMs, DefaultLeadMs, DefaultTrailMs)

	assert.Equal(t, ClipWindow{StartOffsetMs: 52000, EndOffsetMs: 67000}, w)
	assert.Equal(t, SeekRange{Min: 52000, Max: 67000, Value: 52000}, w.Seek())
	assert.EqualValues(t, 15000, w.DurationMs())
}

func TestComputeClipWindow(t *testing.T) {
	cases := []struct {
		name     string
		eventOff int64
		duration int64
		want     ClipWindow
	}{
		{"full_window", 30000, 60000, ClipWindow{20000, 35000}},
		{"event_near_start", 3000, 60000, ClipWindow{0, 8000}},
		{"event_at_start", 0, 60000, ClipWindow{0, 5000}},
		{"event_before_start", -4000, 60000, ClipWindow{0, 5000}},
		{"end_clamped_to_duration", 58000, 60000, ClipWindow{48000, 60000}},
		{"duration_unknown_unclamped", 58000, DurationUnknown, ClipWindow{48000, 63000}},
		{"duration_unknown_event_before_start", -1000, DurationUnknown, ClipWindow{0, 15000}},
		{"event_far_past_short_recording", 90000, 2000, ClipWindow{2000, 2000}},
		{"zero_duration_positive_offset", 4000, 0, ClipWindow{0, 0}},
		{"zero_duration_far_offset", 40000, 0, ClipWindow{0, 0}},
	}

	const start int64 = 1_700_000_000_000
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeClipWindow(start, start+tc.eventOff, tc.duration, DefaultLeadMs, DefaultTrailMs)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestComputeClipWindow_invariants(t *testing.T) {
	const start int64 = 1_000_000
	durations := []int64{DurationUnknown, 0, 1, 999, 5000, 15000, 60000, 3_600_000}
	for _, d := range durations {
		for off := int64(-20000); off <= 80000; off += 700 {
			w := ComputeClipWindow(start, start+off, d, DefaultLeadMs, DefaultTrailMs)

			assert.GreaterOrEqual(t, w.StartOffsetMs, int64(0), "start d=%d off=%d", d, off)
			assert.LessOrEqual(t, w.StartOffsetMs, w.EndOffsetMs, "order d=%d off=%d", d, off)
			if d >= DefaultLeadMs+DefaultTrailMs {
				assert.LessOrEqual(t, w.EndOffsetMs, d, "clamp d=%d off=%d", d, off)
			}
			if off >= DefaultLeadMs && d >= off+DefaultTrailMs {
				assert.Equal(t, off-DefaultLeadMs, w.StartOffsetMs)
				assert.Equal(t, w.StartOffsetMs+DefaultLeadMs+DefaultTrailMs, w.EndOffsetMs)
			}
		}
	}
}

func TestComputeClipWindow_extreme_timestamps(t *testing.T) {
	cases := []struct {
		name     string
		start    int64
		event    int64
		duration int64
	}{
		{"max_event_duration_unknown", 0, math.MaxInt64, DurationUnknown},
		{"max_event_duration_known", 0, math.MaxInt64, 84000},
		{"max_event_duration_max", 0, math.MaxInt64, math.MaxInt64},
		{"min_start_max_event", math.MinInt64, math.MaxInt64, DurationUnknown},
		{"max_start_min_event", math.MaxInt64, math.MinInt64, DurationUnknown},
		{"near_max_event", 0, math.MaxInt64 - 3000, DurationUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ComputeClipWindow(tc.start, tc.event, tc.duration, DefaultLeadMs, DefaultTrailMs)
			assert.GreaterOrEqual(t, w.StartOffsetMs, int64(0))
			assert.LessOrEqual(t, w.StartOffsetMs, w.EndOffsetMs)
			if tc.duration >= 0 {
				assert.LessOrEqual(t, w.EndOffsetMs, tc.duration)
			}
		})
	}

	w := ComputeClipWindow(0, math.MaxInt64, DurationUnknown, DefaultLeadMs, DefaultTrailMs)
	assert.Equal(t, ClipWindow{StartOffsetMs: math.MaxInt64 - DefaultLeadMs, EndOffsetMs: math.MaxInt64}, w)
}

func TestSaturatingArithmetic(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), satAdd(math.MaxInt64-1, 5))
	assert.Equal(t, int64(math.MinInt64), satAdd(math.MinInt64+1, -5))
	assert.Equal(t, int64(7), satAdd(3, 4))
	assert.Equal(t, int64(math.MaxInt64), satSub(math.MaxInt64, math.MinInt64))
	assert.Equal(t, int64(math.MinInt64), satSub(math.MinInt64, 1))
	assert.Equal(t, int64(-1), satSub(3, 4))
}

func TestComputeClipWindow_custom_lead_trail(t *testing.T) {
	w := ComputeClipWindow(0, 20000, 60000, 2000, 1000)
	assert.Equal(t, ClipWindow{18000, 21000}, w)

	w = ComputeClipWindow(0, 20000, 60000, -5, -5)
	assert.Equal(t, ClipWindow{20000, 20000}, w)
}

func TestAttachmentsInWindow(t *testing.T) {
	const start int64 = 10_000
	atts := []Attachment{
		{Sequence: 4, TimestampMs: start + 21000, Kind: "frame"},
		{Sequence: 1, TimestampMs: start + 1000, Kind: "frame"},
		{Sequence: 3, TimestampMs: start + 15000, Kind: AttachmentKindError},
		{Sequence: 2, TimestampMs: start + 12000, Kind: "frame"},
		{Sequence: 5, TimestampMs: start + 20000, Kind: "frame"},
	}

	frames, errs := attachmentsInWindow(atts, start, ClipWindow{StartOffsetMs: 10000, EndOffsetMs: 20000})

	if assert.Len(t, frames, 2) {
		assert.EqualValues(t, 2, frames[0].Sequence)
		assert.EqualValues(t, 5, frames[1].Sequence)
	}
	if assert.Len(t, errs, 1) {
		assert.EqualValues(t, 3, errs[0].Sequence)
	}
	assert.EqualValues(t, 4, atts[0].Sequence, "input must not be reordered")
}
