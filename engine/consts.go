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

import "github.com/shopspring/decimal"

const (
	// DefaultDecimalDigits is the precision monetary values round to
	// unless a cashflow overrides it.
	DefaultDecimalDigits = 2

	// MaxDisplayDecimalDigits bounds solver output precision; the
	// minimum solver step is one unit past it.
	MaxDisplayDecimalDigits = 6

	// DefaultDaysInYear applies when an interest event does not set
	// its own day-count denominator.
	DefaultDaysInYear = 360

	// DefaultFiscalYearStart is January 1st as MMDD.
	DefaultFiscalYearStart = 101

	maxIterationsCalcInterest  = 400
	maxIterationsCalcPrincipal = 400
	maxIterationsCalcPeriods   = 400
	maxIterationsCalcYield     = 400

	maxCalcPeriods = 9999
)

var (
	maxCalcPrincipal = decimal.RequireFromString("9999999999999")
	maxCalcInterest  = decimal.RequireFromString("9999")
	dec100           = decimal.New(100, 0)
)

// minSolverStep is the smallest fractional adjustment a solver makes:
// one digit past the display precision.
func minSolverStep() decimal.Decimal {
	return decimal.New(1, -(MaxDisplayDecimalDigits + 1))
}
