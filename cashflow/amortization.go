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
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AmortizationRow is one flattened occurrence of an event plus the
// values the balancer computes for it.
type AmortizationRow struct {
	EventDate dates.Date `json:"eventDate"`
	OrigDate  dates.Date `json:"origDate"`
	SortOrder int        `json:"sortOrder"`

	Value            decimal.Decimal `json:"value"`
	ValueExpr        string          `json:"valueExpr"`
	ValueExprBalance bool            `json:"valueExprBalance"`

	Intervals int             `json:"intervals"`
	Frequency dates.Frequency `json:"frequency"`
	EOM       bool            `json:"eom"`

	Extension   Extension    `json:"-"`
	Descriptors []Descriptor `json:"descriptors,omitempty"`

	// Computed by the balancer.
	Interest          decimal.Decimal `json:"interest"`
	SLInterest        decimal.Decimal `json:"slInterest"`
	AccBalance        decimal.Decimal `json:"accBalance"`
	Balance           decimal.Decimal `json:"balance"`
	ValueToInterest   decimal.Decimal `json:"valueToInterest"`
	ValueToPrincipal  decimal.Decimal `json:"valueToPrincipal"`
	PrincipalIncrease decimal.Decimal `json:"principalIncrease"`
	PrincipalDecrease decimal.Decimal `json:"principalDecrease"`

	// EventSequence counts occurrences emitted from the same event;
	// StatSequence counts principal-statistic rows seen so far.
	EventSequence int `json:"eventSequence"`
	StatSequence  int `json:"statSequence"`

	// ListEventIndex points back at the event the row was expanded
	// from.
	ListEventIndex int `json:"listEventIndex"`

	// Rollup marks synthetic aggregate rows produced by schedule
	// output.
	Rollup bool `json:"rollup,omitempty"`
}

// Clone deep-copies the row.
func (row *AmortizationRow) Clone() *AmortizationRow {
	clone := *row
	if row.Extension != nil {
		clone.Extension = row.Extension.Clone()
	}
	clone.Descriptors = append([]Descriptor(nil), row.Descriptors...)
	return &clone
}

// ExtensionType returns the kind of the row's extension.
func (row *AmortizationRow) ExtensionType() ExtensionType {
	if row.Extension == nil {
		return ExtensionCurrentValue
	}
	return row.Extension.Kind()
}

// MarshalZerologObject logs the computed values of a row.
func (row *AmortizationRow) MarshalZerologObject(e *zerolog.Event) {
	e.Str("EventDate", row.EventDate.String())
	e.Str("Type", row.ExtensionType().String())
	e.Str("Value", row.Value.String())
	e.Str("Interest", row.Interest.String())
	e.Str("Balance", row.Balance.String())
}

// AmortizationList is the ordered, flattened schedule produced by
// expansion; like EventList it carries a cursor restored around
// nested operations.
type AmortizationList struct {
	rows    []*AmortizationRow
	current int
}

// NewAmortizationList returns an empty schedule.
func NewAmortizationList() *AmortizationList {
	return &AmortizationList{}
}

// Count returns the number of rows.
func (list *AmortizationList) Count() int { return len(list.rows) }

// Add appends a row without sorting; expansion sorts once at the end.
func (list *AmortizationList) Add(row *AmortizationRow) {
	list.rows = append(list.rows, row)
}

// Get returns the row at index.
func (list *AmortizationList) Get(index int) (*AmortizationRow, error) {
	if index < 0 || index >= len(list.rows) {
		return nil, NewError(ErrIndex, "amortization index %d out of range", index)
	}
	return list.rows[index], nil
}

// Current returns the row under the cursor.
func (list *AmortizationList) Current() (*AmortizationRow, error) {
	return list.Get(list.current)
}

// CurrentIndex returns the cursor position.
func (list *AmortizationList) CurrentIndex() int { return list.current }

// SetCurrent moves the cursor.
func (list *AmortizationList) SetCurrent(index int) error {
	if index < 0 || index >= len(list.rows) {
		return NewError(ErrIndex, "cannot select amortization row %d of %d", index, len(list.rows))
	}
	list.current = index
	return nil
}

// Rows returns the underlying slice for iteration.
func (list *AmortizationList) Rows() []*AmortizationRow { return list.rows }

// RemoveLeading drops the first n rows.
func (list *AmortizationList) RemoveLeading(n int) {
	if n <= 0 {
		return
	}
	if n > len(list.rows) {
		n = len(list.rows)
	}
	list.rows = list.rows[n:]
	list.current -= n
	if list.current < 0 {
		list.current = 0
	}
}

// Sort stable-sorts by (event date, sort order).
func (list *AmortizationList) Sort() {
	sort.SliceStable(list.rows, func(i, j int) bool {
		if list.rows[i].EventDate != list.rows[j].EventDate {
			return list.rows[i].EventDate < list.rows[j].EventDate
		}
		return list.rows[i].SortOrder < list.rows[j].SortOrder
	})
}

// Clone deep-copies the schedule.
func (list *AmortizationList) Clone() *AmortizationList {
	clone := &AmortizationList{
		rows:    make([]*AmortizationRow, 0, len(list.rows)),
		current: list.current,
	}
	for _, row := range list.rows {
		clone.rows = append(clone.rows, row.Clone())
	}
	return clone
}

// SaveCursor captures the schedule cursor for restore-on-exit.
func (list *AmortizationList) SaveCursor() CursorGuard {
	saved := list.current
	return CursorGuard{restore: func() {
		if saved < len(list.rows) {
			list.current = saved
		} else if len(list.rows) > 0 {
			list.current = len(list.rows) - 1
		} else {
			list.current = 0
		}
	}}
}
