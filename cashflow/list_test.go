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
	"testing"

	"github.com/penny-vault/pvcashflow/dates"
	"github.com/shopspring/decimal"
)

func TestSortOnAdd(t *testing.T) {
	list := NewEventList()
	list.Add(&Event{EventDate: 20200301, Extension: &CurrentValue{}})
	list.Add(&Event{EventDate: 20200101, Extension: &CurrentValue{}})
	list.Add(&Event{EventDate: 20200201, Extension: &CurrentValue{}})

	dates := []int{}
	for _, ev := range list.Events() {
		dates = append(dates, int(ev.EventDate))
	}
	want := []int{20200101, 20200201, 20200301}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("sorted dates = %v, want %v", dates, want)
		}
	}
}

func TestSortStableBySortOrder(t *testing.T) {
	list := NewEventList()
	list.SetSortOnAdd(false)
	list.Add(&Event{EventDate: 20200101, SortOrder: 2, EventName: "second"})
	list.Add(&Event{EventDate: 20200101, SortOrder: 1, EventName: "first"})
	list.Add(&Event{EventDate: 20200101, SortOrder: 1, EventName: "first-again"})
	list.SetSortOnAdd(true)

	names := []string{}
	for _, ev := range list.Events() {
		names = append(names, ev.EventName)
	}
	want := []string{"first", "first-again", "second"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("sorted names = %v, want %v", names, want)
		}
	}
}

func TestCursorGuardRestores(t *testing.T) {
	list := NewEventList()
	for i := 0; i < 5; i++ {
		list.Add(&Event{EventDate: dates.Date(20200101 + i)})
	}
	if err := list.SetCurrent(3); err != nil {
		t.Fatal(err)
	}

	guard := list.SaveCursor()
	if err := list.SetCurrent(0); err != nil {
		t.Fatal(err)
	}
	guard.Restore()

	if list.CurrentIndex() != 3 {
		t.Errorf("cursor = %d after restore, want 3", list.CurrentIndex())
	}
}

func TestSelectName(t *testing.T) {
	list := NewEventList()
	list.Add(&Event{EventDate: 20200101, EventName: "open"})
	list.Add(&Event{EventDate: 20200201, EventName: "payment"})

	if err := list.SelectName("payment"); err != nil {
		t.Fatal(err)
	}
	ev, err := list.Current()
	if err != nil {
		t.Fatal(err)
	}
	if ev.EventName != "payment" {
		t.Errorf("selected %q, want payment", ev.EventName)
	}

	if err := list.SelectName("missing"); err == nil {
		t.Error("expected an index error for a missing name")
	}
}

func TestCloneIsDeep(t *testing.T) {
	list := NewEventList()
	list.Add(&Event{
		EventDate: 20200101,
		Value:     decimal.New(100, 0),
		Extension: &PrincipalChange{PrinType: PrincipalIncrease},
	})

	clone := list.Clone()
	clone.Events()[0].Value = decimal.New(999, 0)
	clone.Events()[0].Extension.(*PrincipalChange).PrinType = PrincipalDecrease

	orig := list.Events()[0]
	if !orig.Value.Equal(decimal.New(100, 0)) {
		t.Error("clone shares the value with the original")
	}
	if orig.Extension.(*PrincipalChange).PrinType != PrincipalIncrease {
		t.Error("clone shares the extension with the original")
	}
}

func TestAmortizationRemoveLeading(t *testing.T) {
	list := NewAmortizationList()
	for i := 0; i < 4; i++ {
		list.Add(&AmortizationRow{EventDate: dates.Date(20200101 + i)})
	}
	list.RemoveLeading(2)
	if list.Count() != 2 {
		t.Fatalf("count = %d after RemoveLeading(2), want 2", list.Count())
	}
	if got := list.Rows()[0].EventDate; got != 20200103 {
		t.Errorf("first row = %d, want 20200103", got)
	}
}
