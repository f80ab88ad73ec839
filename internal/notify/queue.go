// Package notify implements the dashboard's bounded notification queue.
//
// Items are upserted by id. Terminal items expire in two phases: they are
// marked fading at timeout minus FadeWindow and removed at timeout. Each
// id owns at most one {fade, remove} timer pair; re-arming replaces it.
package notify

import (
	"math"
	"slices"
	"sync"
	"time"

	"streamdash/internal/clock"
	"streamdash/pkg/logging"
)

// Capacity is the maximum number of live items.
const Capacity = 5

// FadeWindow is how long an item is shown as fading before it is removed.
const FadeWindow = 500 * time.Millisecond

// Timeout budgets per notification class.
const (
	CopyTimeout           = 2000 * time.Millisecond
	UploadCompleteTimeout = 3000 * time.Millisecond
	ErrorTimeout          = 8000 * time.Millisecond
	ScalingTimeout        = 8000 * time.Millisecond
)

// Status is the lifecycle state of an item.
type Status string

const (
	StatusProgress Status = "progress"
	StatusEnd      Status = "end"
	StatusError    Status = "error"
)

// Terminal reports whether items in this status should expire.
func (s Status) Terminal() bool {
	return s == StatusEnd || s == StatusError
}

// defaultTimeout is the budget armed when an item turns terminal without a
// class-specific expiry.
func (s Status) defaultTimeout() time.Duration {
	if s == StatusError {
		return ErrorTimeout
	}
	return UploadCompleteTimeout
}

// Item is a single notification as shown to the user.
type Item struct {
	ID        string
	Label     string
	Status    Status
	Progress  float64
	Message   string
	CreatedAt time.Time
	FadingOut bool
}

// Patch is a sparse update for an item; nil fields are left unchanged.
type Patch struct {
	Label    *string
	Status   *Status
	Progress *float64
	Message  *string
}

type timerPair struct {
	fade   *clock.Timer
	remove *clock.Timer
}

func (p *timerPair) stop() {
	p.fade.Stop()
	p.remove.Stop()
}

// Queue is the live notification set.
type Queue struct {
	clock clock.Clock

	mu     sync.Mutex
	items  []*Item
	timers map[string]*timerPair
	closed bool
}

// NewQueue returns an empty queue driven by c.
func NewQueue(c clock.Clock) *Queue {
	if c == nil {
		c = clock.Real()
	}
	return &Queue{
		clock:  c,
		timers: make(map[string]*timerPair),
	}
}

// Upsert merges patch into the item with id, or inserts a new item,
// evicting the oldest if the queue is full. An item whose status ends up
// as progress has its expiry cancelled: progress never expires. A terminal
// item with no expiry pending gets its status's default budget; callers
// may re-arm it with ScheduleExpiry.
func (q *Queue) Upsert(id string, patch Patch) Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	item := q.find(id)
	if item == nil {
		if len(q.items) >= Capacity {
			q.evictOldest()
		}
		item = &Item{ID: id, Status: StatusProgress, CreatedAt: q.clock.Now()}
		q.items = append(q.items, item)
		logging.Debug("Notify", "Added notification %s", id)
	}

	if patch.Label != nil {
		item.Label = *patch.Label
	}
	if patch.Status != nil {
		item.Status = *patch.Status
	}
	if patch.Progress != nil {
		item.Progress = clampProgress(*patch.Progress)
	}
	if patch.Message != nil {
		item.Message = *patch.Message
	}
	switch {
	case item.Status == StatusProgress:
		q.cancelLocked(id)
		item.FadingOut = false
	case item.Status.Terminal() && !q.closed && q.timers[id] == nil:
		q.armLocked(item, item.Status.defaultTimeout())
	}
	return *item
}

func clampProgress(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

func (q *Queue) find(id string) *Item {
	for _, it := range q.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func (q *Queue) evictOldest() {
	oldest := 0
	for i, it := range q.items {
		if it.CreatedAt.Before(q.items[oldest].CreatedAt) {
			oldest = i
		}
	}
	victim := q.items[oldest]
	q.cancelLocked(victim.ID)
	q.items = slices.Delete(q.items, oldest, oldest+1)
	logging.Debug("Notify", "Evicted notification %s (queue full)", victim.ID)
}

// ScheduleExpiry arms the fade and remove timers for id, replacing any
// earlier pair. It returns false if id is not live or the queue is closed.
func (q *Queue) ScheduleExpiry(id string, total time.Duration) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	item := q.find(id)
	if q.closed || item == nil {
		return false
	}
	q.armLocked(item, total)
	return true
}

func (q *Queue) armLocked(item *Item, total time.Duration) {
	id := item.ID
	q.cancelLocked(id)
	item.FadingOut = false

	fadeAt := total - FadeWindow
	if fadeAt < 0 {
		fadeAt = 0
	}
	pair := &timerPair{}
	pair.fade = q.clock.AfterFunc(fadeAt, func() { q.markFading(id, pair) })
	pair.remove = q.clock.AfterFunc(total, func() { q.expire(id, pair) })
	q.timers[id] = pair
}

func (q *Queue) markFading(id string, pair *timerPair) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.timers[id] != pair {
		return
	}
	if item := q.find(id); item != nil {
		item.FadingOut = true
	}
}

func (q *Queue) expire(id string, pair *timerPair) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.timers[id] != pair {
		return
	}
	delete(q.timers, id)
	q.removeLocked(id)
	logging.Debug("Notify", "Notification %s expired", id)
}

// Cancel stops any pending expiry for id. The item stays live.
func (q *Queue) Cancel(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelLocked(id)
}

func (q *Queue) cancelLocked(id string) {
	if pair, ok := q.timers[id]; ok {
		pair.stop()
		delete(q.timers, id)
	}
}

// Dismiss removes id immediately, cancelling its timers.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelLocked(id)
	return q.removeLocked(id)
}

func (q *Queue) removeLocked(id string) bool {
	for i, it := range q.items {
		if it.ID == id {
			q.items = slices.Delete(q.items, i, i+1)
			return true
		}
	}
	return false
}

// Get returns a copy of the item with id.
func (q *Queue) Get(id string) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if it := q.find(id); it != nil {
		return *it, true
	}
	return Item{}, false
}

// Items returns copies of the live items, oldest first.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Item, len(q.items))
	for i, it := range q.items {
		out[i] = *it
	}
	slices.SortStableFunc(out, func(a, b Item) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

// Close cancels all timers. Items are kept for a final render but will
// never expire.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	for id, pair := range q.timers {
		pair.stop()
		delete(q.timers, id)
	}
}
