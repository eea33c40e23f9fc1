// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cashflow

import (
	"sort"

	"github.com/penny-vault/pvcashflow/dates"
)

// EventList is an ordered sequence of events with a current-index
// cursor. When SortOnAdd is enabled the list keeps itself sorted by
// (event date, sort order); batch loaders disable it, add, and
// re-enable to sort once.
type EventList struct {
	events    []*Event
	current   int
	sortOnAdd bool
	dirty     bool
}

// NewEventList returns an empty list with sort-on-add enabled.
func NewEventList() *EventList {
	return &EventList{sortOnAdd: true}
}

// Count returns the number of events.
func (list *EventList) Count() int { return len(list.events) }

// Add appends an event, sorting if the list maintains order.
func (list *EventList) Add(ev *Event) {
	list.events = append(list.events, ev)
	if list.sortOnAdd {
		list.Sort()
	} else {
		list.dirty = true
	}
}

// Get returns the event at index.
func (list *EventList) Get(index int) (*Event, error) {
	if index < 0 || index >= len(list.events) {
		return nil, NewError(ErrIndex, "event index %d out of range", index)
	}
	return list.events[index], nil
}

// Current returns the event under the cursor.
func (list *EventList) Current() (*Event, error) {
	return list.Get(list.current)
}

// CurrentIndex returns the cursor position.
func (list *EventList) CurrentIndex() int { return list.current }

// SetCurrent moves the cursor.
func (list *EventList) SetCurrent(index int) error {
	if index < 0 || index >= len(list.events) {
		return NewError(ErrIndex, "cannot select event %d of %d", index, len(list.events))
	}
	list.current = index
	return nil
}

// SelectName moves the cursor to the first event with the given name.
func (list *EventList) SelectName(name string) error {
	for i, ev := range list.events {
		if ev.EventName == name {
			list.current = i
			return nil
		}
	}
	return NewError(ErrIndex, "no event named %q", name)
}

// Remove deletes the event at index; the cursor clamps to the new
// bounds.
func (list *EventList) Remove(index int) error {
	if index < 0 || index >= len(list.events) {
		return NewError(ErrIndex, "cannot remove event %d of %d", index, len(list.events))
	}
	list.events = append(list.events[:index], list.events[index+1:]...)
	if list.current >= len(list.events) && list.current > 0 {
		list.current = len(list.events) - 1
	}
	return nil
}

// Events returns the underlying slice for iteration; callers must not
// reorder it.
func (list *EventList) Events() []*Event { return list.events }

// SortOnAdd reports the sort-on-add flag.
func (list *EventList) SortOnAdd() bool { return list.sortOnAdd }

// SetSortOnAdd toggles automatic sorting. Re-enabling it sorts the
// list if additions were made while it was off.
func (list *EventList) SetSortOnAdd(enabled bool) {
	list.sortOnAdd = enabled
	if enabled && list.dirty {
		list.Sort()
	}
}

// Sort stable-sorts by (event date, sort order).
func (list *EventList) Sort() {
	sort.SliceStable(list.events, func(i, j int) bool {
		if list.events[i].EventDate != list.events[j].EventDate {
			return list.events[i].EventDate < list.events[j].EventDate
		}
		return list.events[i].SortOrder < list.events[j].SortOrder
	})
	list.dirty = false
}

// Clone deep-copies the list; the cursor and flags carry over.
func (list *EventList) Clone() *EventList {
	clone := &EventList{
		events:    make([]*Event, 0, len(list.events)),
		current:   list.current,
		sortOnAdd: list.sortOnAdd,
		dirty:     list.dirty,
	}
	for _, ev := range list.events {
		clone.events = append(clone.events, ev.Clone())
	}
	return clone
}

// CursorGuard snapshots a list cursor so nested operations can
// restore it on every exit path.
type CursorGuard struct {
	restore func()
}

// SaveCursor captures the event list cursor.
func (list *EventList) SaveCursor() CursorGuard {
	saved := list.current
	return CursorGuard{restore: func() {
		if saved < len(list.events) {
			list.current = saved
		} else if len(list.events) > 0 {
			list.current = len(list.events) - 1
		} else {
			list.current = 0
		}
	}}
}

// Restore puts the saved cursor back; safe to call from defer.
func (guard CursorGuard) Restore() {
	if guard.restore != nil {
		guard.restore()
	}
}

// LastDate returns the event date of the final entry, or zero for an
// empty list.
func (list *EventList) LastDate() dates.Date {
	if len(list.events) == 0 {
		return 0
	}
	return list.events[len(list.events)-1].EventDate
}
