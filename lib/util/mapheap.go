// Package util
//
// This file provides a priority queue with key-based access. The matchmaker
// uses it as its waiting queue: the key is a session id, the priority is the
// arrival sequence number, so the minimum is always the longest-waiting
// session and a session that disconnects while waiting can be removed by key.
//
// Time Complexity:
//   - O(log n) for priority operations (Push, Pop, Update)
//   - O(1) for key-based lookups and existence checks
//   - O(log n) for key-based removal
//
// Concurrency Considerations:
//   - This implementation is not thread-safe
//   - For concurrent use, external synchronization should be applied
//
// Example usage:
//
//	waiting := NewMapHeap()
//
//	waiting.AddItem(sessionA, 1)
//	waiting.AddItem(sessionB, 2)
//
//	// session A disconnected before being paired
//	waiting.RemoveByKey(sessionA)
//
//	first, ok := waiting.PopMin()
package util

import (
	"container/heap"
	"strconv"
)

// Item is one entry of a MapHeap
type Item struct {
	Key      uint64 // Unique identifier for the item
	Priority uint64 // Lower values are popped first
	index    int    // Index in the heap, maintained by heap package
}

func (i *Item) String() string {
	return "{Key: " + strconv.FormatUint(i.Key, 10) + ", Priority: " + strconv.FormatUint(i.Priority, 10) + "}"
}

// MapHeap is a min-heap by priority that also supports access by key
type MapHeap struct {
	items    []*Item          // The actual heap slice
	itemsMap map[uint64]*Item // Map for O(1) access by key
}

// NewMapHeap creates a new, initialized and empty MapHeap
func NewMapHeap() *MapHeap {
	mh := &MapHeap{
		items:    make([]*Item, 0),
		itemsMap: make(map[uint64]*Item),
	}
	heap.Init(mh)
	return mh
}

// --------------------------------------------------------------------------
// heap.Interface
// --------------------------------------------------------------------------

// Len returns the number of items in the queue (part of heap.Interface)
func (mh *MapHeap) Len() int { return len(mh.items) }

// Less compares items by priority, ties are broken by key (part of heap.Interface)
func (mh *MapHeap) Less(i, j int) bool {
	if mh.items[i].Priority == mh.items[j].Priority {
		return mh.items[i].Key < mh.items[j].Key
	}
	return mh.items[i].Priority < mh.items[j].Priority
}

// Swap exchanges items at positions i and j (part of heap.Interface)
func (mh *MapHeap) Swap(i, j int) {
	mh.items[i], mh.items[j] = mh.items[j], mh.items[i]
	mh.items[i].index = i
	mh.items[j].index = j
}

// Push adds an item to the heap (part of heap.Interface, use AddItem instead)
func (mh *MapHeap) Push(x interface{}) {
	n := len(mh.items)
	item := x.(*Item)
	item.index = n
	mh.items = append(mh.items, item)
	mh.itemsMap[item.Key] = item
}

// Pop removes and returns the last item (part of heap.Interface, use PopMin instead)
func (mh *MapHeap) Pop() interface{} {
	old := mh.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // avoid memory leak
	item.index = -1 // for safety
	mh.items = old[:n-1]
	delete(mh.itemsMap, item.Key)
	return item
}

// --------------------------------------------------------------------------
// Key-based API
// --------------------------------------------------------------------------

// AddItem adds a new item to the queue or updates the priority of an existing one
func (mh *MapHeap) AddItem(key, priority uint64) {
	if item, exists := mh.itemsMap[key]; exists {
		item.Priority = priority
		heap.Fix(mh, item.index)
		return
	}
	heap.Push(mh, &Item{
		Key:      key,
		Priority: priority,
	})
}

// PopMin removes and returns the item with the lowest priority
func (mh *MapHeap) PopMin() (Item, bool) {
	if len(mh.items) == 0 {
		return Item{}, false
	}
	item := heap.Pop(mh).(*Item)
	return *item, true
}

// RemoveByKey removes an item by its key and returns its priority
func (mh *MapHeap) RemoveByKey(key uint64) (uint64, bool) {
	item, exists := mh.itemsMap[key]
	if !exists {
		return 0, false
	}
	heap.Remove(mh, item.index)
	return item.Priority, true
}

// Peek returns the item with the lowest priority without removing it
func (mh *MapHeap) Peek() (Item, bool) {
	if len(mh.items) == 0 {
		return Item{}, false
	}
	return *mh.items[0], true
}

// Contains checks if a key exists in the queue
func (mh *MapHeap) Contains(key uint64) bool {
	_, exists := mh.itemsMap[key]
	return exists
}
