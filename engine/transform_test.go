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
	"testing"

	"github.com/penny-vault/pvcashflow/cashflow"
	"github.com/penny-vault/pvcashflow/dates"
)

func TestCombineCashflowMergesIdenticalRows(t *testing.T) {
	eng := testEngine(t)

	build := func(name, principal string) {
		cf := eng.AddCashflow(name, "tests")
		cf.Events.SetSortOnAdd(false)
		cf.Events.Add(principalEvent(20200101, 0, cashflow.PrincipalIncrease, principal))
		cf.Events.Add(interestEvent(20200101, 1, "6.00", cashflow.MethodActuarial, dates.BasisPeriodic, dates.Frequency1Month, 360))
		cf.Events.Add(paymentEvent(20200201, 0, "50", 2))
		cf.Events.SetSortOnAdd(true)
	}
	build("combine-a", "1000")
	build("combine-b", "500")

	if _, err := eng.SelectCashflow("combine-a"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.CombineCashflow("combine-b", "combined", "tests"); err != nil {
		t.Fatal(err)
	}

	combined, err := eng.GetCashflow("combined")
	if err != nil {
		t.Fatal(err)
	}
	events := combined.Events.Events()

	// identical same-date rows merged: one principal, one interest,
	// two payments
	if len(events) != 4 {
		t.Fatalf("combined has %d events, want 4", len(events))
	}
	assertDecimal(t, events[0].Value, "1500", "merged principal")
	assertDecimal(t, events[2].Value, "100", "merged payment")
	if events[1].ExtensionType() != cashflow.ExtensionInterestChange {
		t.Error("interest change should survive the combine")
	}
}

func TestMergeCashflowInterestAction(t *testing.T) {
	eng := testEngine(t)

	cf1 := eng.AddCashflow("merge-a", "tests")
	cf1.Events.SetSortOnAdd(false)
	cf1.Events.Add(principalEvent(20200101, 0, cashflow.PrincipalIncrease, "1000"))
	cf1.Events.Add(interestEvent(20200101, 1, "6.00", cashflow.MethodActuarial, dates.BasisPeriodic, dates.Frequency1Month, 360))
	cf1.Events.SetSortOnAdd(true)

	cf2 := eng.AddCashflow("merge-b", "tests")
	cf2.Events.SetSortOnAdd(false)
	cf2.Events.Add(principalEvent(20200115, 0, cashflow.PrincipalIncrease, "500"))
	cf2.Events.Add(interestEvent(20200115, 1, "9.00", cashflow.MethodActuarial, dates.BasisPeriodic, dates.Frequency1Month, 360))
	cf2.Events.SetSortOnAdd(true)

	if _, err := eng.SelectCashflow("merge-a"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.MergeCashflow("merge-b", "merged", "tests", InterestLeft); err != nil {
		t.Fatal(err)
	}

	merged, err := eng.GetCashflow("merged")
	if err != nil {
		t.Fatal(err)
	}

	interestCount := 0
	for _, ev := range merged.Events.Events() {
		if ev.ExtensionType() == cashflow.ExtensionInterestChange {
			interestCount++
			assertDecimal(t, ev.Value, "6.00", "surviving interest rate")
		}
	}
	if interestCount != 1 {
		t.Errorf("merged kept %d interest events, want 1 (left only)", interestCount)
	}
	if merged.Events.Count() != 3 {
		t.Errorf("merged has %d events, want 3", merged.Events.Count())
	}
}

func TestMergeExpandLaw(t *testing.T) {
	// expanding the merge of two lists matches the stable merge of
	// the separate expansions, restricted to principal and interest
	// rows
	eng := testEngine(t)

	cf1 := eng.AddCashflow("law-a", "tests")
	cf1.Events.Add(paymentEvent(20200101, 0, "100", 3))

	cf2 := eng.AddCashflow("law-b", "tests")
	cf2.Events.Add(paymentEvent(20200115, 0, "200", 2))

	am1, err := eng.Expand(cf1, false)
	if err != nil {
		t.Fatal(err)
	}
	am2, err := eng.Expand(cf2, false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := eng.SelectCashflow("law-a"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.MergeCashflow("law-b", "law-merged", "tests", InterestAll); err != nil {
		t.Fatal(err)
	}
	merged, err := eng.GetCashflow("law-merged")
	if err != nil {
		t.Fatal(err)
	}
	mergedAm, err := eng.Expand(merged, false)
	if err != nil {
		t.Fatal(err)
	}

	if mergedAm.Count() != am1.Count()+am2.Count() {
		t.Fatalf("merged expansion has %d rows, want %d", mergedAm.Count(), am1.Count()+am2.Count())
	}
	for i := 1; i < mergedAm.Count(); i++ {
		if mergedAm.Rows()[i].EventDate < mergedAm.Rows()[i-1].EventDate {
			t.Fatal("merged expansion is not date ordered")
		}
	}
}

func TestTransformCashflowBeforePresentValue(t *testing.T) {
	eng := testEngine(t)
	cf := eng.AddCashflow("pv", "tests")
	cf.Events.SetSortOnAdd(false)
	cf.Events.Add(principalEvent(20200101, 0, cashflow.PrincipalPositive, "100000"))
	cf.Events.Add(interestEvent(20200101, 1, "6.00", cashflow.MethodActuarial, dates.BasisPeriodic, dates.Frequency1Month, 360))
	cf.Events.Add(paymentEvent(20200201, 0, "8606.64", 12))
	cf.Events.Add(&cashflow.Event{
		EventDate: 20200615,
		OrigDate:  20200615,
		Periods:   1,
		Intervals: 1,
		SortOrder: 1,
		Extension: &cashflow.CurrentValue{Present: true},
	})
	cf.Events.SetSortOnAdd(true)

	if _, err := eng.TransformCashflow("pv-before", "tests", false, false); err != nil {
		t.Fatal(err)
	}

	source, err := eng.GetCashflow("pv")
	if err != nil {
		t.Fatal(err)
	}
	var markerBalance string
	for _, row := range source.AmList.Rows() {
		if cv, ok := row.Extension.(*cashflow.CurrentValue); ok && cv.Present {
			markerBalance = row.Balance.Sub(row.AccBalance).String()
		}
	}
	if markerBalance == "" {
		t.Fatal("present-value marker not found in source schedule")
	}

	transformed, err := eng.GetCashflow("pv-before")
	if err != nil {
		t.Fatal(err)
	}
	events := transformed.Events.Events()

	var markerEvent *cashflow.Event
	for _, ev := range events {
		if ev.EventDate > 20200615 {
			t.Errorf("event at %d survived a before-marker carve", ev.EventDate)
		}
		if ev.EventDate == 20200615 {
			markerEvent = ev
		}
	}
	if markerEvent == nil {
		t.Fatal("marker principal event missing")
	}
	if markerEvent.ExtensionType() != cashflow.ExtensionPrincipalChange {
		t.Fatal("marker should convert to a principal change")
	}
	assertDecimal(t, markerEvent.Value, markerBalance, "marker value")
}

func TestSplitCashflow(t *testing.T) {
	eng := testEngine(t)
	cf := eng.AddCashflow("split", "tests")
	cf.Events.SetSortOnAdd(false)
	cf.Events.Add(principalEvent(20200101, 0, cashflow.PrincipalPositive, "100000"))
	cf.Events.Add(interestEvent(20200101, 1, "6.00", cashflow.MethodActuarial, dates.BasisPeriodic, dates.Frequency1Month, 360))
	cf.Events.Add(paymentEvent(20200201, 0, "8606.64", 12))
	// a rate change interrupts the payment run mid-year
	cf.Events.Add(interestEvent(20200615, 0, "7.00", cashflow.MethodActuarial, dates.BasisPeriodic, dates.Frequency1Month, 360))
	cf.Events.SetSortOnAdd(true)

	// select the payment run
	found := false
	for i, ev := range cf.Events.Events() {
		if ev.ExtensionType() == cashflow.ExtensionPrincipalChange && ev.Periods > 1 {
			if err := cf.Events.SetCurrent(i); err != nil {
				t.Fatal(err)
			}
			found = true
			break
		}
	}
	if !found {
		t.Fatal("payment run not found")
	}

	if _, err := eng.SplitCashflow(false); err != nil {
		t.Fatal(err)
	}

	var segments []*cashflow.Event
	totalPeriods := 0
	for _, ev := range cf.Events.Events() {
		if pc, ok := ev.Extension.(*cashflow.PrincipalChange); ok && pc.BalanceStatistics {
			segments = append(segments, ev)
			totalPeriods += ev.Periods
		}
	}
	if len(segments) != 2 {
		t.Fatalf("split produced %d segments, want 2", len(segments))
	}
	if totalPeriods != 12 {
		t.Errorf("split total periods = %d, want 12", totalPeriods)
	}
	if segments[0].Periods != 5 {
		t.Errorf("first segment periods = %d, want 5", segments[0].Periods)
	}
	if segments[1].EventDate != 20200701 {
		t.Errorf("second segment starts %d, want 20200701", segments[1].EventDate)
	}
}

func TestNormalizeCashflowConsolidates(t *testing.T) {
	eng := testEngine(t)
	cf := eng.AddCashflow("normalize", "tests")
	cf.Events.SetSortOnAdd(false)
	twin := principalEvent(20200101, 0, cashflow.PrincipalIncrease, "250")
	twin.Descriptors = []cashflow.Descriptor{{Group: "g", Name: "a", Value: "1"}}
	cf.Events.Add(twin)
	other := principalEvent(20200101, 0, cashflow.PrincipalIncrease, "750")
	other.Descriptors = []cashflow.Descriptor{{Group: "g", Name: "b", Value: "2"}}
	cf.Events.Add(other)
	cf.Events.SetSortOnAdd(true)

	events, err := eng.NormalizeCashflow()
	if err != nil {
		t.Fatal(err)
	}
	if events.Count() != 1 {
		t.Fatalf("normalize produced %d events, want 1", events.Count())
	}
	merged := events.Events()[0]
	assertDecimal(t, merged.Value, "1000", "consolidated value")
	if len(merged.Descriptors) != 2 {
		t.Errorf("consolidated descriptors = %d, want 2", len(merged.Descriptors))
	}
}
