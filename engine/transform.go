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
package engine

import (
	"github.com/penny-vault/pvcashflow/cashflow"
	"github.com/penny-vault/pvcashflow/dates"
	"github.com/rs/zerolog/log"
)

// InterestEventAction selects which side's interest events a merge
// keeps.
type InterestEventAction int

const (
	InterestAll InterestEventAction = iota
	InterestLeft
	InterestRight
	InterestNone
)

// eventFromRow lifts an amortization row back into a one-occurrence
// event.
func eventFromRow(row *cashflow.AmortizationRow) *cashflow.Event {
	ev := &cashflow.Event{
		EventDate:        row.EventDate,
		OrigDate:         row.OrigDate,
		SortOrder:        row.SortOrder,
		Value:            row.Value,
		ValueExpr:        row.ValueExpr,
		ValueExprBalance: row.ValueExprBalance,
		Periods:          1,
		Intervals:        row.Intervals,
		Frequency:        row.Frequency,
		EOM:              row.EOM,
		Descriptors:      append([]cashflow.Descriptor(nil), row.Descriptors...),
	}
	if row.Extension != nil {
		ev.Extension = row.Extension.Clone()
	}
	return ev
}

// ensureBalanced expands and balances a cashflow when its derived
// schedule is stale.
func (eng *CalcEngine) ensureBalanced(cf *Cashflow) error {
	if cf.AmList != nil && cf.LastResult != nil {
		return nil
	}
	amList, err := eng.Expand(cf, false)
	if err != nil {
		return err
	}
	result, err := eng.balancePass(cf, amList, false, false)
	if err != nil {
		return err
	}
	cf.AmList = amList
	cf.LastResult = result
	return nil
}

// CombineCashflow merges the selected cashflow's amortization list
// with another cashflow's into a new cashflow. Only principal- and
// interest-change rows survive; identical same-date rows collapse
// (principal values sum, interest rows must match on every
// attribute). Ties favor the selected cashflow.
func (eng *CalcEngine) CombineCashflow(name2, newName, newGroup string) (*cashflow.BalanceResult, error) {
	cf1, err := eng.Current()
	if err != nil {
		return nil, err
	}
	cf2, err := eng.GetCashflow(name2)
	if err != nil {
		return nil, err
	}
	if err := eng.ensureBalanced(cf1); err != nil {
		return nil, err
	}
	if err := eng.ensureBalanced(cf2); err != nil {
		return nil, err
	}

	rows1 := cf1.AmList.Rows()
	rows2 := cf2.AmList.Rows()
	events := cashflow.NewEventList()
	events.SetSortOnAdd(false)

	keep := func(row *cashflow.AmortizationRow) bool {
		kind := row.ExtensionType()
		return kind == cashflow.ExtensionPrincipalChange || kind == cashflow.ExtensionInterestChange
	}

	i, j := 0, 0
	for i < len(rows1) || j < len(rows2) {
		switch {
		case i < len(rows1) && !keep(rows1[i]):
			i++
		case j < len(rows2) && !keep(rows2[j]):
			j++
		case j >= len(rows2):
			events.Add(eventFromRow(rows1[i]))
			i++
		case i >= len(rows1):
			events.Add(eventFromRow(rows2[j]))
			j++
		default:
			row1 := rows1[i]
			row2 := rows2[j]
			if row1.EventDate == row2.EventDate && row1.ExtensionType() == row2.ExtensionType() &&
				row1.Extension.Equal(row2.Extension) {
				merged := eventFromRow(row1)
				if row1.ExtensionType() == cashflow.ExtensionPrincipalChange {
					merged.Value = row1.Value.Add(row2.Value)
				}
				events.Add(merged)
				i++
				j++
				continue
			}
			if row1.EventDate < row2.EventDate ||
				(row1.EventDate == row2.EventDate && int(row1.ExtensionType()) <= int(row2.ExtensionType())) {
				events.Add(eventFromRow(row1))
				i++
			} else {
				events.Add(eventFromRow(row2))
				j++
			}
		}
	}

	events.SetSortOnAdd(true)
	return eng.adoptNewCashflow(newName, newGroup, events)
}

// MergeCashflow merges two event lists into a new cashflow, keeping
// only principal- and interest-change events. The interest action
// suppresses interest events from either side.
func (eng *CalcEngine) MergeCashflow(name2, newName, newGroup string, action InterestEventAction) (*cashflow.BalanceResult, error) {
	cf1, err := eng.Current()
	if err != nil {
		return nil, err
	}
	cf2, err := eng.GetCashflow(name2)
	if err != nil {
		return nil, err
	}
	if cf1.Events.Count() == 0 && cf2.Events.Count() == 0 {
		return nil, cashflow.NewError(cashflow.ErrElement, "both event lists are empty")
	}

	keep := func(ev *cashflow.Event, left bool) bool {
		switch ev.ExtensionType() {
		case cashflow.ExtensionPrincipalChange:
			return true
		case cashflow.ExtensionInterestChange:
			switch action {
			case InterestAll:
				return true
			case InterestLeft:
				return left
			case InterestRight:
				return !left
			}
			return false
		}
		return false
	}

	events := cashflow.NewEventList()
	events.SetSortOnAdd(false)

	list1 := cf1.Events.Events()
	list2 := cf2.Events.Events()
	i, j := 0, 0
	for i < len(list1) || j < len(list2) {
		switch {
		case i < len(list1) && !keep(list1[i], true):
			i++
		case j < len(list2) && !keep(list2[j], false):
			j++
		case j >= len(list2):
			events.Add(list1[i].Clone())
			i++
		case i >= len(list1):
			events.Add(list2[j].Clone())
			j++
		default:
			ev1 := list1[i]
			ev2 := list2[j]
			if ev1.EventDate < ev2.EventDate ||
				(ev1.EventDate == ev2.EventDate && ev1.SortOrder <= ev2.SortOrder) {
				events.Add(ev1.Clone())
				i++
			} else {
				events.Add(ev2.Clone())
				j++
			}
		}
	}

	events.SetSortOnAdd(true)
	return eng.adoptNewCashflow(newName, newGroup, events)
}

// NormalizeCashflow consolidates adjacent identical principal rows of
// the selected cashflow's schedule into single events, merging their
// descriptors, and carries statistic events through.
func (eng *CalcEngine) NormalizeCashflow() (*cashflow.EventList, error) {
	cf, err := eng.Current()
	if err != nil {
		return nil, err
	}
	if err := eng.ensureBalanced(cf); err != nil {
		return nil, err
	}

	events := cashflow.NewEventList()
	events.SetSortOnAdd(false)

	var last *cashflow.Event
	for _, row := range cf.AmList.Rows() {
		ev := eventFromRow(row)
		if last != nil && last.ExtensionType() == cashflow.ExtensionPrincipalChange &&
			ev.ExtensionType() == cashflow.ExtensionPrincipalChange &&
			last.EventDate == ev.EventDate && last.Extension.Equal(ev.Extension) &&
			last.ValueExpr == ev.ValueExpr {
			last.Value = last.Value.Add(ev.Value)
			last.Descriptors = mergeDescriptors(last.Descriptors, ev.Descriptors)
			continue
		}
		events.Add(ev)
		last = ev
	}

	events.SetSortOnAdd(true)
	return events, nil
}

// mergeDescriptors unions two descriptor lists, keeping the first
// occurrence of each (group, name) pair.
func mergeDescriptors(a, b []cashflow.Descriptor) []cashflow.Descriptor {
	merged := append([]cashflow.Descriptor(nil), a...)
	for _, desc := range b {
		found := false
		for _, existing := range merged {
			if existing.Group == desc.Group && existing.Name == desc.Name {
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, desc)
		}
	}
	return merged
}

// SplitCashflow splits recurring principal events of the selected
// cashflow wherever another active event interrupts their run. With
// allEvents false only the selected event splits.
func (eng *CalcEngine) SplitCashflow(allEvents bool) (*cashflow.BalanceResult, error) {
	cf, err := eng.Current()
	if err != nil {
		return nil, err
	}
	if cf.Events.Count() == 0 {
		return nil, cashflow.NewError(cashflow.ErrElement, "event list is empty")
	}

	guard := cf.Events.SaveCursor()
	defer guard.Restore()

	var targets []*cashflow.Event
	if allEvents {
		for _, ev := range cf.Events.Events() {
			if ev.ExtensionType() == cashflow.ExtensionPrincipalChange && ev.Periods > 1 {
				targets = append(targets, ev)
			}
		}
	} else {
		ev, err := cf.Events.Current()
		if err != nil {
			return nil, err
		}
		if ev.ExtensionType() != cashflow.ExtensionPrincipalChange || ev.Periods <= 1 {
			return nil, cashflow.NewError(cashflow.ErrIndex, "selected event cannot be split")
		}
		targets = append(targets, ev)
	}

	cf.Events.SetSortOnAdd(false)
	for _, target := range targets {
		eng.splitEvent(cf, target)
	}
	cf.Events.SetSortOnAdd(true)
	cf.Touch()

	return eng.BalanceCashflow()
}

// splitEvent rewrites target to its first uninterrupted segment and
// appends one copy per remaining segment.
func (eng *CalcEngine) splitEvent(cf *Cashflow, target *cashflow.Event) {
	origDate := target.OrigDate
	if origDate == 0 {
		origDate = target.EventDate
	}
	intervals := target.Intervals
	if intervals < 1 {
		intervals = 1
	}

	// Occurrence dates of the recurring event.
	occurrences := make([]dates.Date, 0, target.Periods)
	cursor := target.EventDate
	for k := 0; k < target.Periods; k++ {
		occurrences = append(occurrences, cursor)
		cursor = dates.AdvanceDate(origDate, cursor, target.Frequency, intervals, target.EOM)
	}

	// Dates of other events that interrupt the run.
	var cuts []dates.Date
	for _, other := range cf.Events.Events() {
		if other == target || other.ExtensionType() == cashflow.ExtensionStatisticValue {
			continue
		}
		if other.EventDate > occurrences[0] && other.EventDate <= occurrences[len(occurrences)-1] {
			cuts = append(cuts, other.EventDate)
		}
	}
	if len(cuts) == 0 {
		return
	}

	// Period count per segment.
	segments := []int{}
	segStart := 0
	for k := 1; k < len(occurrences); k++ {
		for _, cut := range cuts {
			if occurrences[k-1] < cut && cut <= occurrences[k] {
				segments = append(segments, k-segStart)
				segStart = k
				break
			}
		}
	}
	segments = append(segments, len(occurrences)-segStart)
	if len(segments) <= 1 {
		return
	}

	target.Periods = segments[0]
	nextIndex := segments[0]
	for _, count := range segments[1:] {
		clone := target.Clone()
		clone.Periods = count
		clone.EventDate = occurrences[nextIndex]
		clone.OrigDate = origDate
		cf.Events.Add(clone)
		nextIndex += count
	}
}

// TransformCashflow produces a new cashflow from the rows on one side
// of the present-value marker; the marker becomes a principal event
// carrying the net balance at that row. Without a marker every row
// transforms.
func (eng *CalcEngine) TransformCashflow(newName, newGroup string, afterPv, omitInterest bool) (*cashflow.BalanceResult, error) {
	cf, err := eng.Current()
	if err != nil {
		return nil, err
	}
	if err := eng.ensureBalanced(cf); err != nil {
		return nil, err
	}

	rows := cf.AmList.Rows()
	markerIndex := -1
	for i, row := range rows {
		if cv, ok := row.Extension.(*cashflow.CurrentValue); ok && cv.Present {
			markerIndex = i
			break
		}
	}

	events := cashflow.NewEventList()
	events.SetSortOnAdd(false)

	for i, row := range rows {
		if markerIndex >= 0 {
			if i == markerIndex {
				// The marker converts into a principal change seeded
				// with the net balance observed at that row.
				net := row.Balance.Sub(row.AccBalance)
				prinType := cashflow.PrincipalPositive
				if net.Sign() < 0 {
					prinType = cashflow.PrincipalNegative
					net = net.Neg()
				}
				marker := eventFromRow(row)
				marker.Value = net
				marker.ValueExpr = ""
				marker.ValueExprBalance = false
				marker.Extension = &cashflow.PrincipalChange{PrinType: prinType}
				events.Add(marker)
				continue
			}
			if afterPv && i < markerIndex {
				continue
			}
			if !afterPv && i > markerIndex {
				continue
			}
		}
		if omitInterest && row.ExtensionType() == cashflow.ExtensionInterestChange {
			continue
		}
		events.Add(eventFromRow(row))
	}

	events.SetSortOnAdd(true)
	return eng.adoptNewCashflow(newName, newGroup, events)
}

// adoptNewCashflow registers a transformed event list as a new
// cashflow and balances it.
func (eng *CalcEngine) adoptNewCashflow(newName, newGroup string, events *cashflow.EventList) (*cashflow.BalanceResult, error) {
	if events.Count() == 0 {
		return nil, cashflow.NewError(cashflow.ErrElement, "transform produced no events")
	}
	cf := eng.AddCashflow(newName, newGroup)
	cf.Events = events
	result, err := eng.BalanceCashflow()
	if err != nil {
		return nil, err
	}
	log.Info().Str("Cashflow", newName).Int("Events", events.Count()).Msg("created transformed cashflow")
	return result, nil
}
