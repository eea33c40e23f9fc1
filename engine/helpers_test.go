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
	"github.com/penny-vault/pvcashflow/decmath"
	"github.com/shopspring/decimal"
)

func testEngine(t *testing.T) *CalcEngine {
	t.Helper()
	eng := New()
	if err := eng.Init("en-US"); err != nil {
		t.Fatal(err)
	}
	return eng
}

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(value)
}

func principalEvent(date dates.Date, sortOrder int, prinType cashflow.PrincipalType, value string) *cashflow.Event {
	return &cashflow.Event{
		EventDate: date,
		OrigDate:  date,
		SortOrder: sortOrder,
		Value:     decimal.RequireFromString(value),
		Periods:   1,
		Intervals: 1,
		Extension: &cashflow.PrincipalChange{PrinType: prinType},
	}
}

func interestEvent(date dates.Date, sortOrder int, rate string, method cashflow.InterestMethod,
	basis dates.DayCountBasis, freq dates.Frequency, daysInYear int) *cashflow.Event {
	return &cashflow.Event{
		EventDate: date,
		OrigDate:  date,
		SortOrder: sortOrder,
		Value:     decimal.RequireFromString(rate),
		Periods:   1,
		Intervals: 1,
		Frequency: freq,
		Extension: &cashflow.InterestChange{
			Method:        method,
			DayCountBasis: basis,
			DaysInYear:    daysInYear,
			RoundBalance:  decmath.RoundBankers,
		},
	}
}

func paymentEvent(date dates.Date, sortOrder int, value string, periods int) *cashflow.Event {
	return &cashflow.Event{
		EventDate: date,
		OrigDate:  date,
		SortOrder: sortOrder,
		Value:     decimal.RequireFromString(value),
		Periods:   periods,
		Intervals: 1,
		Frequency: dates.Frequency1Month,
		Extension: &cashflow.PrincipalChange{
			PrinType:          cashflow.PrincipalDecrease,
			BalanceStatistics: true,
		},
	}
}

// loanCashflow builds the canonical monthly loan: principal at the
// start, a rate effective the same day, and a run of level payments
// beginning one month later.
func loanCashflow(t *testing.T, eng *CalcEngine, basis dates.DayCountBasis, payment string, periods int) *Cashflow {
	t.Helper()
	cf := eng.AddCashflow("test-loan", "tests")
	cf.Events.SetSortOnAdd(false)
	cf.Events.Add(principalEvent(20200101, 0, cashflow.PrincipalPositive, "100000"))
	cf.Events.Add(interestEvent(20200101, 1, "6.00", cashflow.MethodActuarial, basis, dates.Frequency1Month, 360))
	cf.Events.Add(paymentEvent(20200201, 0, payment, periods))
	cf.Events.SetSortOnAdd(true)
	return cf
}

func mustBalance(t *testing.T, eng *CalcEngine) *cashflow.BalanceResult {
	t.Helper()
	result, err := eng.BalanceCashflow()
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func assertDecimal(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", label, got.String(), want)
	}
}

func assertApprox(t *testing.T, got decimal.Decimal, want, tolerance string, label string) {
	t.Helper()
	gap := got.Sub(decimal.RequireFromString(want)).Abs()
	if gap.GreaterThan(decimal.RequireFromString(tolerance)) {
		t.Errorf("%s = %s, want %s (±%s)", label, got.String(), want, tolerance)
	}
}
