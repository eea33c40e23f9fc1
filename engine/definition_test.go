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
	"os"
	"path/filepath"
	"testing"

	"github.com/penny-vault/pvcashflow/cashflow"
	"github.com/penny-vault/pvcashflow/dates"
)

const loanDefinition = `
name = "mortgage"
group = "loans"

[preferences]
decimal_digits = 2

[[events]]
event_date = 20200101
value = "100000"
[events.principal_change]
type = "positive"

[[events]]
event_date = 20200101
sort_order = 1
rate = "6.00"
frequency = "1-month"
[events.interest_change]
method = "actuarial"
day_count_basis = "periodic"
days_in_year = 360

[[events]]
event_date = 20200201
value = "8606.64"
periods = 12
frequency = "1-month"
[events.principal_change]
type = "decrease"
balance_statistics = true
`

func TestLoadDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mortgage.toml")
	if err := os.WriteFile(path, []byte(loanDefinition), 0o644); err != nil {
		t.Fatal(err)
	}

	def, err := LoadDefinition(path)
	if err != nil {
		t.Fatal(err)
	}
	if def.Name != "mortgage" || def.Group != "loans" {
		t.Fatalf("definition metadata = %q/%q", def.Name, def.Group)
	}
	if len(def.Events) != 3 {
		t.Fatalf("definition has %d events, want 3", len(def.Events))
	}

	eng := testEngine(t)
	cf, err := eng.AddDefinition(def)
	if err != nil {
		t.Fatal(err)
	}
	if cf.Preferences.DecimalDigits != 2 {
		t.Errorf("preferences decimal digits = %d", cf.Preferences.DecimalDigits)
	}

	events := cf.Events.Events()
	if events[0].ExtensionType() != cashflow.ExtensionPrincipalChange {
		t.Error("first event should be a principal change")
	}
	ic, ok := events[1].Extension.(*cashflow.InterestChange)
	if !ok {
		t.Fatal("second event should be an interest change")
	}
	if ic.DayCountBasis != dates.BasisPeriodic || ic.DaysInYear != 360 {
		t.Errorf("interest change parsed as %+v", ic)
	}
	assertDecimal(t, events[1].Value, "6.00", "rate carried through the rate field")

	result, err := eng.BalanceCashflow()
	if err != nil {
		t.Fatal(err)
	}
	assertApprox(t, result.Balance, "0", "0.10", "loaded loan terminal balance")
}

func TestDefinitionRejectsBadDate(t *testing.T) {
	def := &EventDef{EventDate: 20201301, Value: "1"}
	if _, err := def.ToEvent(); err == nil {
		t.Fatal("expected a date error for month 13")
	}
}

func TestDefinitionSkipMask(t *testing.T) {
	def := &EventDef{
		EventDate: 20200101,
		Value:     "100",
		Periods:   12,
		Frequency: "1-month",
		SkipMask:  "01",
		Type:      "principal-change",
		PrinType:  "decrease",
	}
	ev, err := def.ToEvent()
	if err != nil {
		t.Fatal(err)
	}
	if ev.SkipMaskLen != 2 || ev.SkipMask != 0b10 {
		t.Errorf("skip mask parsed as len=%d bits=%b", ev.SkipMaskLen, ev.SkipMask)
	}

	eng := testEngine(t)
	cf := eng.AddCashflow("skip-def", "tests")
	cf.Events.Add(ev)
	amList, err := eng.Expand(cf, false)
	if err != nil {
		t.Fatal(err)
	}
	if amList.Count() != 6 {
		t.Errorf("mask 01 over 12 periods = %d rows, want 6", amList.Count())
	}
}

func TestDefinitionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mortgage.toml")
	if err := os.WriteFile(path, []byte(loanDefinition), 0o644); err != nil {
		t.Fatal(err)
	}
	def, err := LoadDefinition(path)
	if err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(t.TempDir(), "saved.toml")
	if err := def.SaveDefinition(outPath); err != nil {
		t.Fatal(err)
	}
	reloaded, err := LoadDefinition(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(reloaded.Events) != len(def.Events) {
		t.Fatalf("round trip lost events: %d != %d", len(reloaded.Events), len(def.Events))
	}
	if reloaded.Events[2].Periods != 12 || reloaded.Events[2].PrincipalChange == nil {
		t.Error("round trip lost event attributes")
	}
}
