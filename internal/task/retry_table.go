package task

import (
	"container/heap"
	"sort"
	"time"
)

// retryTable holds tasks serving their backoff delay. Entries waiting for a
// retry are also indexed in a min-heap on NextRetryAt so the scanner can
// sleep exactly until the earliest one is due. The table is not safe for
// concurrent use; the Manager guards it with its mutex.
type retryTable struct {
	entries  map[string]*Task
	schedule retryHeap
	items    map[string]*retryItem
}

type retryItem struct {
	task  *Task
	due   time.Time
	index int
}

type retryHeap []*retryItem

func (h retryHeap) Len() int { return len(h) }

func (h retryHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].task.ID < h[j].task.ID
	}
	return h[i].due.Before(h[j].due)
}

func (h retryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *retryHeap) Push(x any) {
	item := x.(*retryItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *retryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

func newRetryTable() *retryTable {
	return &retryTable{
		entries: make(map[string]*Task),
		items:   make(map[string]*retryItem),
	}
}

// put inserts or replaces a task. Only RETRY_WAITING tasks with a
// NextRetryAt are scheduled for promotion.
func (rt *retryTable) put(t *Task) {
	rt.entries[t.ID] = t

	waiting := t.Status == StatusRetryWaiting && t.NextRetryAt != nil
	item, scheduled := rt.items[t.ID]
	switch {
	case waiting && scheduled:
		item.task = t
		item.due = *t.NextRetryAt
		heap.Fix(&rt.schedule, item.index)
	case waiting:
		item = &retryItem{task: t, due: *t.NextRetryAt}
		heap.Push(&rt.schedule, item)
		rt.items[t.ID] = item
	case scheduled:
		heap.Remove(&rt.schedule, item.index)
		delete(rt.items, t.ID)
	}
}

func (rt *retryTable) get(id string) (*Task, bool) {
	t, ok := rt.entries[id]
	return t, ok
}

func (rt *retryTable) remove(id string) (*Task, bool) {
	t, ok := rt.entries[id]
	if !ok {
		return nil, false
	}
	delete(rt.entries, id)
	if item, scheduled := rt.items[id]; scheduled {
		heap.Remove(&rt.schedule, item.index)
		delete(rt.items, id)
	}
	return t, true
}

// popDue removes and returns every scheduled task due at or before now,
// earliest first
func (rt *retryTable) popDue(now time.Time) []*Task {
	var due []*Task
	for rt.schedule.Len() > 0 && !rt.schedule[0].due.After(now) {
		item := heap.Pop(&rt.schedule).(*retryItem)
		delete(rt.items, item.task.ID)
		delete(rt.entries, item.task.ID)
		due = append(due, item.task)
	}
	return due
}

// nextDue returns the earliest scheduled retry time
func (rt *retryTable) nextDue() (time.Time, bool) {
	if rt.schedule.Len() == 0 {
		return time.Time{}, false
	}
	return rt.schedule[0].due, true
}

// removeWhere drops every entry matching pred and returns them
func (rt *retryTable) removeWhere(pred func(*Task) bool) []*Task {
	var removed []*Task
	for id, t := range rt.entries {
		if pred(t) {
			rt.remove(id)
			removed = append(removed, t)
		}
	}
	return removed
}

func (rt *retryTable) len() int {
	return len(rt.entries)
}

// snapshot returns copies of all entries ordered by NextRetryAt, entries
// without a retry time last
func (rt *retryTable) snapshot() []Task {
	out := make([]Task, 0, len(rt.entries))
	for _, t := range rt.entries {
		out = append(out, t.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].NextRetryAt, out[j].NextRetryAt
		switch {
		case a == nil && b == nil:
			return out[i].ID < out[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return out[i].ID < out[j].ID
		default:
			return a.Before(*b)
		}
	})
	return out
}
