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

func TestCreateCashflowOutputRollup(t *testing.T) {
	eng := testEngine(t)
	loanCashflow(t, eng, dates.BasisPeriodic, "8606.64", 12)
	mustBalance(t, eng)

	output, err := eng.CreateCashflowOutput(true, false, false, false)
	if err != nil {
		t.Fatal(err)
	}

	// principal, interest change, and one rollup for the payment run
	if output.Count() != 3 {
		t.Fatalf("rollup output has %d rows, want 3", output.Count())
	}
	rollup := output.Rows()[2]
	if !rollup.Rollup {
		t.Fatal("payment run should compress to a rollup row")
	}

	cf, _ := eng.Current()
	wantInterest := cf.LastResult.Interest
	if !rollup.Interest.Equal(wantInterest) {
		t.Errorf("rollup interest = %s, want %s", rollup.Interest.String(), wantInterest.String())
	}
	if !rollup.Balance.Equal(cf.LastResult.Balance) {
		t.Errorf("rollup balance = %s, want %s", rollup.Balance.String(), cf.LastResult.Balance.String())
	}
	wantDecrease := dec(t, "8606.64").Mul(dec(t, "12"))
	if !rollup.PrincipalDecrease.Equal(wantDecrease) {
		t.Errorf("rollup principal decrease = %s, want %s", rollup.PrincipalDecrease.String(), wantDecrease.String())
	}
}

func TestCreateCashflowOutputRoundTrip(t *testing.T) {
	eng := testEngine(t)
	loanCashflow(t, eng, dates.BasisPeriodic, "8606.64", 12)
	mustBalance(t, eng)

	output, err := eng.CreateCashflowOutput(true, true, false, false)
	if err != nil {
		t.Fatal(err)
	}

	// filtering the rollup rows back out must reproduce the original
	// schedule
	cf, _ := eng.Current()
	details := []*cashflow.AmortizationRow{}
	for _, row := range output.Rows() {
		if !row.Rollup {
			details = append(details, row)
		}
	}
	if len(details) != cf.AmList.Count() {
		t.Fatalf("details = %d rows, want %d", len(details), cf.AmList.Count())
	}
	for i, row := range details {
		orig := cf.AmList.Rows()[i]
		if row.EventDate != orig.EventDate || !row.Balance.Equal(orig.Balance) || !row.Interest.Equal(orig.Interest) {
			t.Fatalf("detail row %d diverges from the original schedule", i)
		}
	}
}

func TestCreateCashflowOutputOmitsStatistics(t *testing.T) {
	eng := testEngine(t)
	cf := eng.AddCashflow("output-stats", "tests")
	cf.Events.SetSortOnAdd(false)
	cf.Events.Add(principalEvent(20200101, 0, cashflow.PrincipalPositive, "1000"))
	cf.Events.Add(&cashflow.Event{
		EventDate: 20200601,
		OrigDate:  20200601,
		Periods:   1,
		Intervals: 1,
		Extension: &cashflow.StatisticValue{Name: "mid"},
	})
	cf.Events.SetSortOnAdd(true)
	mustBalance(t, eng)

	output, err := eng.CreateCashflowOutput(true, false, false, true)
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range output.Rows() {
		if row.ExtensionType() == cashflow.ExtensionStatisticValue {
			t.Fatal("statistic rows should be omitted")
		}
	}
}

func TestCreateCashflowOutputNoRollups(t *testing.T) {
	eng := testEngine(t)
	loanCashflow(t, eng, dates.BasisPeriodic, "8606.64", 12)
	mustBalance(t, eng)

	output, err := eng.CreateCashflowOutput(false, true, false, false)
	if err != nil {
		t.Fatal(err)
	}
	cf, _ := eng.Current()
	if output.Count() != cf.AmList.Count() {
		t.Fatalf("without rollups output has %d rows, want %d", output.Count(), cf.AmList.Count())
	}
}
