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

func TestExpandRecurringEvent(t *testing.T) {
	eng := testEngine(t)
	cf := loanCashflow(t, eng, dates.BasisPeriodic, "599.55", 360)

	amList, err := eng.Expand(cf, false)
	if err != nil {
		t.Fatal(err)
	}
	if amList.Count() != 362 {
		t.Fatalf("expanded %d rows, want 362", amList.Count())
	}

	rows := amList.Rows()
	if rows[0].EventDate != 20200101 || rows[1].EventDate != 20200101 {
		t.Error("expansion lost the start-date rows")
	}
	if rows[2].EventDate != 20200201 {
		t.Errorf("first payment at %d, want 20200201", rows[2].EventDate)
	}
	if last := rows[len(rows)-1].EventDate; last != 20500101 {
		t.Errorf("last payment at %d, want 20500101", last)
	}
	if rows[2].ListEventIndex != 2 {
		t.Errorf("payment back-pointer = %d, want 2", rows[2].ListEventIndex)
	}
	if rows[5].EventSequence != 3 {
		t.Errorf("payment sequence = %d, want 3", rows[5].EventSequence)
	}
}

func TestExpandSkipMask(t *testing.T) {
	eng := testEngine(t)
	cf := eng.AddCashflow("skip", "tests")
	ev := paymentEvent(20200101, 0, "100", 12)
	// every second occurrence is skipped
	ev.SkipMask = 0b10
	ev.SkipMaskLen = 2
	cf.Events.Add(ev)

	amList, err := eng.Expand(cf, false)
	if err != nil {
		t.Fatal(err)
	}
	if amList.Count() != 6 {
		t.Fatalf("expanded %d rows, want 6", amList.Count())
	}
	wantDates := []dates.Date{20200101, 20200301, 20200501, 20200701, 20200901, 20201101}
	for i, row := range amList.Rows() {
		if row.EventDate != wantDates[i] {
			t.Errorf("row %d at %d, want %d", i, row.EventDate, wantDates[i])
		}
	}
}

func TestExpandPeriodsClampAndExpression(t *testing.T) {
	eng := testEngine(t)
	cf := eng.AddCashflow("periods", "tests")
	ev := paymentEvent(20200101, 0, "100", 0)
	cf.Events.Add(ev)

	amList, err := eng.Expand(cf, false)
	if err != nil {
		t.Fatal(err)
	}
	if amList.Count() != 1 {
		t.Fatalf("zero periods should clamp to one row, got %d", amList.Count())
	}

	ev.Periods = 6
	ev.PeriodsExpr = "intPeriods * 2"
	cf.Touch()
	amList, err = eng.Expand(cf, false)
	if err != nil {
		t.Fatal(err)
	}
	if amList.Count() != 12 {
		t.Fatalf("period expression should double the count, got %d", amList.Count())
	}
}

func TestExpandValueExpression(t *testing.T) {
	eng := testEngine(t)
	cf := eng.AddCashflow("value-expr", "tests")
	ev := paymentEvent(20200101, 0, "100", 3)
	ev.ValueExpr = "decValue + intSequence"
	cf.Events.Add(ev)

	amList, err := eng.Expand(cf, false)
	if err != nil {
		t.Fatal(err)
	}
	wants := []string{"100", "101", "102"}
	for i, row := range amList.Rows() {
		assertDecimal(t, row.Value, wants[i], "row value")
		assertDecimal(t, row.PrincipalDecrease, wants[i], "row principal decrease")
	}
}

func TestExpandStatisticForcesSingle(t *testing.T) {
	eng := testEngine(t)
	cf := eng.AddCashflow("stat", "tests")
	ev := &cashflow.Event{
		EventDate:   20200101,
		OrigDate:    20200101,
		Periods:     12,
		Intervals:   1,
		Frequency:   dates.Frequency1Month,
		SkipMask:    0b1,
		SkipMaskLen: 1,
		Extension:   &cashflow.StatisticValue{Name: "year"},
	}
	cf.Events.Add(ev)

	amList, err := eng.Expand(cf, false)
	if err != nil {
		t.Fatal(err)
	}
	if amList.Count() != 1 {
		t.Fatalf("statistic events expand to one row, got %d", amList.Count())
	}

	// optimized expansion drops statistic rows entirely
	amList, err = eng.Expand(cf, true)
	if err != nil {
		t.Fatal(err)
	}
	if amList.Count() != 0 {
		t.Fatalf("optimized expansion should drop statistic rows, got %d", amList.Count())
	}
}

func TestExpandInterestFrequencyOverride(t *testing.T) {
	eng := testEngine(t)
	cf := eng.AddCashflow("freq-override", "tests")
	ev := interestEvent(20200101, 0, "6.00", cashflow.MethodActuarial, dates.BasisPeriodic, dates.Frequency1Month, 360)
	ev.Extension.(*cashflow.InterestChange).InterestFrequency = dates.Frequency3Months
	ev.Periods = 2
	cf.Events.Add(ev)

	amList, err := eng.Expand(cf, false)
	if err != nil {
		t.Fatal(err)
	}
	rows := amList.Rows()
	if rows[0].Frequency != dates.Frequency3Months {
		t.Errorf("row frequency = %s, want 3-months", rows[0].Frequency)
	}
	if rows[1].EventDate != 20200401 {
		t.Errorf("second occurrence at %d, want 20200401", rows[1].EventDate)
	}
}

func TestExpandDescriptorEvaluation(t *testing.T) {
	eng := testEngine(t)
	cf := eng.AddCashflow("descriptors", "tests")
	ev := paymentEvent(20200101, 0, "250", 1)
	ev.Descriptors = []cashflow.Descriptor{
		{Group: "report", Name: "total", Expression: "decValue * intPeriods"},
		{Group: "report", Name: "broken", Expression: "decMissing + 1"},
	}
	cf.Events.Add(ev)

	if _, err := eng.Expand(cf, false); err != nil {
		t.Fatal(err)
	}
	if got := ev.Descriptors[0].Value; got != "250" {
		t.Errorf("descriptor value = %q, want 250", got)
	}
	if got := ev.Descriptors[1].Value; len(got) < 6 || got[:6] != "error:" {
		t.Errorf("failed descriptor should carry an inline error, got %q", got)
	}
}
