package notify

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamdash/internal/clock"
	"streamdash/internal/protocol"
)

func newTestQueue() (*Queue, *clock.FakeClock) {
	c := clock.Fake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return NewQueue(c), c
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestUpsert_ProgressUpdatesInPlace(t *testing.T) {
	q, _ := newTestQueue()

	q.Upsert("u", Patch{Status: ptr(StatusProgress), Progress: ptr(40.0)})
	q.Upsert("u", Patch{Status: ptr(StatusProgress), Progress: ptr(70.0)})

	items := q.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 70.0, items[0].Progress)
}

func TestUpsert_ClampsProgress(t *testing.T) {
	q, _ := newTestQueue()

	assert.Equal(t, 100.0, q.Upsert("a", Patch{Progress: ptr(140.0)}).Progress)
	assert.Equal(t, 0.0, q.Upsert("a", Patch{Progress: ptr(-3.0)}).Progress)
}

func TestUpsert_EvictsOldestBeyondCapacity(t *testing.T) {
	q, c := newTestQueue()

	for i := 0; i < Capacity; i++ {
		q.Upsert(fmt.Sprintf("n%d", i), Patch{Status: ptr(StatusProgress)})
		c.Advance(time.Millisecond)
	}
	// The oldest item is terminal with a pending expiry; eviction still
	// takes it and cancels its timers.
	q.Upsert("n0", Patch{Status: ptr(StatusEnd)})
	require.True(t, q.ScheduleExpiry("n0", time.Second))

	q.Upsert("n5", Patch{Status: ptr(StatusError)})

	items := q.Items()
	assert.Len(t, items, Capacity)
	assert.Equal(t, []string{"n1", "n2", "n3", "n4", "n5"}, ids(items))
	// Only n5's own pair is left.
	assert.Equal(t, 2, c.PendingCount())
}

func TestUpsert_TerminalArmsDefaultExpiry(t *testing.T) {
	q, c := newTestQueue()

	q.Upsert("job", Patch{Status: ptr(StatusProgress)})
	assert.Zero(t, c.PendingCount())

	q.Upsert("job", Patch{Status: ptr(StatusEnd)})
	q.Upsert("bad", Patch{Status: ptr(StatusError)})
	assert.Equal(t, 4, c.PendingCount())

	c.Advance(UploadCompleteTimeout)
	_, ok := q.Get("job")
	assert.False(t, ok, "end item must expire without an explicit ScheduleExpiry")
	_, ok = q.Get("bad")
	assert.True(t, ok)

	c.Advance(ErrorTimeout - UploadCompleteTimeout)
	assert.Empty(t, q.Items())
	assert.Zero(t, c.PendingCount())
}

func TestUpsert_TerminalUpdateKeepsArmedExpiry(t *testing.T) {
	q, c := newTestQueue()

	q.Upsert("x", Patch{Status: ptr(StatusEnd)})
	require.True(t, q.ScheduleExpiry("x", time.Second))
	q.Upsert("x", Patch{Message: ptr("still done")})

	c.Advance(time.Second)
	_, ok := q.Get("x")
	assert.False(t, ok)
}

func TestScheduleExpiry_FadeThenRemove(t *testing.T) {
	q, c := newTestQueue()

	q.Upsert("done", Patch{Status: ptr(StatusEnd)})
	require.True(t, q.ScheduleExpiry("done", UploadCompleteTimeout))

	c.Advance(UploadCompleteTimeout - FadeWindow - time.Millisecond)
	it, ok := q.Get("done")
	require.True(t, ok)
	assert.False(t, it.FadingOut)

	c.Advance(time.Millisecond)
	it, ok = q.Get("done")
	require.True(t, ok)
	assert.True(t, it.FadingOut)

	c.Advance(FadeWindow - time.Millisecond)
	_, ok = q.Get("done")
	assert.True(t, ok)

	c.Advance(time.Millisecond)
	_, ok = q.Get("done")
	assert.False(t, ok)
	assert.Zero(t, c.PendingCount())
}

func TestScheduleExpiry_RearmReplacesTimers(t *testing.T) {
	q, c := newTestQueue()

	q.Upsert("x", Patch{Status: ptr(StatusEnd)})
	q.ScheduleExpiry("x", time.Second)
	c.Advance(900 * time.Millisecond)
	q.ScheduleExpiry("x", time.Second)
	assert.Equal(t, 2, c.PendingCount())

	c.Advance(200 * time.Millisecond)
	it, ok := q.Get("x")
	require.True(t, ok, "the first pair must not remove the re-armed item")
	assert.False(t, it.FadingOut)

	c.Advance(800 * time.Millisecond)
	_, ok = q.Get("x")
	assert.False(t, ok)
}

func TestScheduleExpiry_UnknownID(t *testing.T) {
	q, c := newTestQueue()
	assert.False(t, q.ScheduleExpiry("ghost", time.Second))
	assert.Zero(t, c.PendingCount())
}

func TestProgressNeverExpires(t *testing.T) {
	q, c := newTestQueue()

	q.Upsert("p", Patch{Status: ptr(StatusEnd)})
	q.ScheduleExpiry("p", time.Second)
	q.Upsert("p", Patch{Status: ptr(StatusProgress), Progress: ptr(10.0)})

	c.Advance(time.Hour)
	_, ok := q.Get("p")
	assert.True(t, ok)
}

func TestCancelAndDismiss(t *testing.T) {
	q, c := newTestQueue()

	q.Upsert("a", Patch{Status: ptr(StatusEnd)})
	q.ScheduleExpiry("a", time.Second)
	q.Cancel("a")
	c.Advance(time.Minute)
	_, ok := q.Get("a")
	assert.True(t, ok)

	assert.True(t, q.Dismiss("a"))
	assert.False(t, q.Dismiss("a"))
	assert.Empty(t, q.Items())
}

func TestClose_ClearsTimers(t *testing.T) {
	q, c := newTestQueue()

	q.CopyConfirmed()
	q.Close()
	assert.Zero(t, c.PendingCount())

	c.Advance(time.Minute)
	assert.Len(t, q.Items(), 1)
	assert.False(t, q.ScheduleExpiry(CopyID, time.Second))
}

func TestUploadLifecycle(t *testing.T) {
	q, c := newTestQueue()
	size := int64(3 * 1024 * 1024)

	q.UploadEvent(protocol.FileUploadPayload{Status: protocol.UploadStart, FileName: "a.zip", FileSize: &size})
	it, ok := q.Get(UploadID("a.zip"))
	require.True(t, ok)
	assert.Equal(t, "upload-a.zip", it.ID)
	assert.Equal(t, "Uploading a.zip (3.0 MiB)", it.Label)
	assert.Equal(t, StatusProgress, it.Status)

	q.UploadEvent(protocol.FileUploadPayload{Status: protocol.UploadProgress, FileName: "a.zip", Progress: protocol.Float(55)})
	it, _ = q.Get(UploadID("a.zip"))
	assert.Equal(t, 55.0, it.Progress)
	assert.Equal(t, "Uploading a.zip (3.0 MiB)", it.Label)

	q.UploadEvent(protocol.FileUploadPayload{Status: protocol.UploadEnd, FileName: "a.zip"})
	it, _ = q.Get(UploadID("a.zip"))
	assert.Equal(t, StatusEnd, it.Status)
	assert.Equal(t, 100.0, it.Progress)

	c.Advance(UploadCompleteTimeout)
	assert.Empty(t, q.Items())
}

func TestUploadError_UsesFallbackMessage(t *testing.T) {
	q, c := newTestQueue()

	q.UploadEvent(protocol.FileUploadPayload{Status: protocol.UploadError, FileName: "b.bin"})
	it, ok := q.Get(UploadID("b.bin"))
	require.True(t, ok)
	assert.Equal(t, StatusError, it.Status)
	assert.Equal(t, "Upload failed", it.Message)

	q.UploadEvent(protocol.FileUploadPayload{Status: protocol.UploadError, FileName: "c.bin", Message: "disk full"})
	it, _ = q.Get(UploadID("c.bin"))
	assert.Equal(t, "disk full", it.Message)

	c.Advance(ErrorTimeout - FadeWindow)
	it, _ = q.Get(UploadID("b.bin"))
	assert.True(t, it.FadingOut)
	c.Advance(FadeWindow)
	assert.Empty(t, q.Items())
}

func TestUploadEvent_UnknownStatusIgnored(t *testing.T) {
	q, _ := newTestQueue()
	q.UploadEvent(protocol.FileUploadPayload{Status: "paused", FileName: "x"})
	assert.Empty(t, q.Items())
}

func TestOneShotHelpers(t *testing.T) {
	q, c := newTestQueue()

	q.CopyConfirmed()
	q.ScalingChanged(144)
	id := q.Error("Audio", "permission denied")

	scaling, ok := q.Get(ScalingID)
	require.True(t, ok)
	assert.Contains(t, scaling.Message, "144 DPI")

	errItem, ok := q.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusError, errItem.Status)

	c.Advance(CopyTimeout)
	_, ok = q.Get(CopyID)
	assert.False(t, ok)
	assert.Len(t, q.Items(), 2)

	c.Advance(ScalingTimeout - CopyTimeout)
	assert.Empty(t, q.Items())
}
