package buffer

import (
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

// HeldItem is an item parked until the block with root Missing is applied.
type HeldItem struct {
	Item    lean.QueueItem
	Missing lean.Root
	Since   time.Time
	// Escalated is set once the item has been reported as a gap.
	Escalated bool
}

// Backlog holds queue items whose dependency is not part of the chain state
// yet. It is bounded: once full, adding an item evicts the item that has been
// held the longest.
//
// Backlog is safe for concurrent use.
type Backlog struct {
	mu        sync.Mutex
	capacity  int
	items     *simplelru.LRU[lean.Root, *HeldItem]
	byMissing map[lean.Root]map[lean.Root]struct{}
}

func NewBacklog(capacity int) (*Backlog, error) {
	b := &Backlog{
		capacity:  capacity,
		byMissing: make(map[lean.Root]map[lean.Root]struct{}),
	}
	// eviction is driven manually so the evicted item can be reported
	items, err := simplelru.NewLRU[lean.Root, *HeldItem](capacity, nil)
	if err != nil {
		return nil, err
	}
	b.items = items
	return b, nil
}

// Add holds item until missing is applied. It returns false if the item is
// already held. When the backlog is full, the oldest held items are removed
// and returned.
func (b *Backlog) Add(item lean.QueueItem, missing lean.Root, now time.Time) (bool, []HeldItem) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := item.Key()
	if b.items.Contains(key) {
		return false, nil
	}

	var evicted []HeldItem
	for b.items.Len() >= b.capacity {
		_, oldest, ok := b.items.RemoveOldest()
		if !ok {
			break
		}
		b.unindex(oldest)
		evicted = append(evicted, *oldest)
	}

	held := &HeldItem{Item: item, Missing: missing, Since: now}
	b.items.Add(key, held)
	children, ok := b.byMissing[missing]
	if !ok {
		children = make(map[lean.Root]struct{})
		b.byMissing[missing] = children
	}
	children[key] = struct{}{}
	return true, evicted
}

// Release removes and returns all items waiting for root, oldest first.
func (b *Backlog) Release(root lean.Root) []lean.QueueItem {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys, ok := b.byMissing[root]
	if !ok {
		return nil
	}
	delete(b.byMissing, root)

	held := make([]*HeldItem, 0, len(keys))
	for key := range keys {
		if item, ok := b.items.Peek(key); ok {
			held = append(held, item)
			b.items.Remove(key)
		}
	}
	sort.SliceStable(held, func(i, j int) bool { return held[i].Since.Before(held[j].Since) })

	released := make([]lean.QueueItem, 0, len(held))
	for _, item := range held {
		released = append(released, item.Item)
	}
	return released
}

// Expired returns the items held longer than maxHold which have not been
// escalated yet, oldest first, and marks them escalated. They stay held.
func (b *Backlog) Expired(now time.Time, maxHold time.Duration) []HeldItem {
	b.mu.Lock()
	defer b.mu.Unlock()

	var expired []HeldItem
	// Keys is ordered oldest to newest
	for _, key := range b.items.Keys() {
		item, ok := b.items.Peek(key)
		if !ok || item.Escalated || now.Sub(item.Since) < maxHold {
			continue
		}
		item.Escalated = true
		expired = append(expired, *item)
	}
	return expired
}

// Has reports whether an item with the given key is held.
func (b *Backlog) Has(key lean.Root) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.items.Contains(key)
}

// Waiting reports whether any item is held on root.
func (b *Backlog) Waiting(root lean.Root) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.byMissing[root]
	return ok
}

func (b *Backlog) Size() uint {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint(b.items.Len())
}

func (b *Backlog) unindex(item *HeldItem) {
	children, ok := b.byMissing[item.Missing]
	if !ok {
		return
	}
	delete(children, item.Item.Key())
	if len(children) == 0 {
		delete(b.byMissing, item.Missing)
	}
}
