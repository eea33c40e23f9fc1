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
	"github.com/penny-vault/pvcashflow/dates"
	"github.com/shopspring/decimal"
)

// StatisticAccumulator tracks running deltas between a statistic
// event and its final occurrence.
type StatisticAccumulator struct {
	Name        string
	LastDate    dates.Date
	ElemAmIndex int

	PrincipalIncrease decimal.Decimal
	PrincipalDecrease decimal.Decimal
	Interest          decimal.Decimal
	SLInterest        decimal.Decimal
	ValueToInterest   decimal.Decimal
	ValueToPrincipal  decimal.Decimal
}

// ResetValues zeroes the accumulated deltas but keeps the name and
// position markers.
func (acc *StatisticAccumulator) ResetValues() {
	acc.PrincipalIncrease = decimal.Zero
	acc.PrincipalDecrease = decimal.Zero
	acc.Interest = decimal.Zero
	acc.SLInterest = decimal.Zero
	acc.ValueToInterest = decimal.Zero
	acc.ValueToPrincipal = decimal.Zero
}

// StatisticDelta is one row's contribution, applied to every active
// accumulator.
type StatisticDelta struct {
	PrincipalIncrease decimal.Decimal
	PrincipalDecrease decimal.Decimal
	Interest          decimal.Decimal
	SLInterest        decimal.Decimal
	ValueToInterest   decimal.Decimal
	ValueToPrincipal  decimal.Decimal
}

// StatisticHelper is the set of named accumulators active during a
// balance pass. Names are unique; a final statistic event removes its
// accumulator. The helper is private to one pass and must not be
// shared across concurrent calls.
type StatisticHelper struct {
	active map[string]*StatisticAccumulator
	order  []string
}

// NewStatisticHelper returns an empty helper.
func NewStatisticHelper() *StatisticHelper {
	return &StatisticHelper{active: make(map[string]*StatisticAccumulator)}
}

// Count returns the number of active accumulators.
func (helper *StatisticHelper) Count() int { return len(helper.active) }

// Get returns the accumulator with the given name, or nil.
func (helper *StatisticHelper) Get(name string) *StatisticAccumulator {
	return helper.active[name]
}

// Open creates a new accumulator; if one already exists under the
// name its markers are refreshed instead.
func (helper *StatisticHelper) Open(name string, lastDate dates.Date, amIndex int) *StatisticAccumulator {
	if acc, ok := helper.active[name]; ok {
		acc.LastDate = lastDate
		acc.ElemAmIndex = amIndex
		return acc
	}
	acc := &StatisticAccumulator{Name: name, LastDate: lastDate, ElemAmIndex: amIndex}
	helper.active[name] = acc
	helper.order = append(helper.order, name)
	return acc
}

// Close removes the accumulator and returns it, or nil when absent.
func (helper *StatisticHelper) Close(name string) *StatisticAccumulator {
	acc, ok := helper.active[name]
	if !ok {
		return nil
	}
	delete(helper.active, name)
	for i, activeName := range helper.order {
		if activeName == name {
			helper.order = append(helper.order[:i], helper.order[i+1:]...)
			break
		}
	}
	return acc
}

// Apply adds a row's delta into every active accumulator.
func (helper *StatisticHelper) Apply(delta StatisticDelta) {
	for _, acc := range helper.active {
		acc.PrincipalIncrease = acc.PrincipalIncrease.Add(delta.PrincipalIncrease)
		acc.PrincipalDecrease = acc.PrincipalDecrease.Add(delta.PrincipalDecrease)
		acc.Interest = acc.Interest.Add(delta.Interest)
		acc.SLInterest = acc.SLInterest.Add(delta.SLInterest)
		acc.ValueToInterest = acc.ValueToInterest.Add(delta.ValueToInterest)
		acc.ValueToPrincipal = acc.ValueToPrincipal.Add(delta.ValueToPrincipal)
	}
}

// ResetAll zeroes every active accumulator; used when a principal
// event resets the balance outright.
func (helper *StatisticHelper) ResetAll() {
	for _, acc := range helper.active {
		acc.ResetValues()
	}
}

// Names returns the active accumulator names in creation order.
func (helper *StatisticHelper) Names() []string {
	return append([]string(nil), helper.order...)
}

// Reset drops every accumulator, readying the helper for a fresh
// pass.
func (helper *StatisticHelper) Reset() {
	helper.active = make(map[string]*StatisticAccumulator)
	helper.order = nil
}
