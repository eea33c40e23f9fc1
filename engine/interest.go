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
	"github.com/penny-vault/pvcashflow/decmath"
	"github.com/shopspring/decimal"
)

// interestState is the active accrual configuration adopted from the
// most recent interest-change row.
type interestState struct {
	method             cashflow.InterestMethod
	basis              dates.DayCountBasis
	daysInYear         int
	frequency          dates.Frequency
	effectiveFrequency dates.Frequency
	nominalRate        decimal.Decimal // percent
	roundBalance       decmath.RoundType
	roundDecimalDigits decimal.Decimal
}

func defaultInterestState() interestState {
	return interestState{
		method:       cashflow.MethodActuarial,
		basis:        dates.BasisPeriodic,
		daysInYear:   DefaultDaysInYear,
		frequency:    dates.Frequency1Month,
		roundBalance: decmath.RoundBankers,
	}
}

// adopt installs the configuration carried by an interest-change row.
func (state *interestState) adopt(ic *cashflow.InterestChange, rate decimal.Decimal, rowFreq dates.Frequency) {
	state.method = ic.Method
	state.basis = ic.DayCountBasis
	state.daysInYear = ic.DaysInYear
	if state.daysInYear == 0 {
		state.daysInYear = DefaultDaysInYear
	}
	state.effectiveFrequency = ic.EffectiveFrequency
	if ic.InterestFrequency != dates.FrequencyNone {
		state.frequency = ic.InterestFrequency
	} else if rowFreq != dates.FrequencyNone {
		state.frequency = rowFreq
	}
	state.nominalRate = rate
	state.roundBalance = ic.RoundBalance
	state.roundDecimalDigits = ic.RoundDecimalDigits
}

// interestResult carries the outcome of accruing one interval.
type interestResult struct {
	interest   decimal.Decimal
	slInterest decimal.Decimal
	// shortCircuit is set when a non-negative balance has not yet
	// completed a whole compounding period; the caller must not
	// advance the last-interest date.
	shortCircuit bool
}

// computeInterest accrues interest over [lastInterestDate, eventDate]
// under the active state. The interval is decomposed into whole
// compounding periods walked back from eventDate plus at most one
// stub at the start. Both compounded (actuarial) and straight-line
// interest are computed as positive magnitudes; the balancer applies
// them with the balance's own sign.
func computeInterest(state interestState, lastInterestDate, eventDate dates.Date,
	balance, slBalance decimal.Decimal, eom bool, origDate dates.Date) interestResult {

	if eventDate <= lastInterestDate || state.nominalRate.IsZero() {
		return interestResult{interest: decimal.Zero, slInterest: decimal.Zero}
	}

	rate := state.nominalRate.Div(dec100)
	rate = dates.ConvertEffective(rate, state.effectiveFrequency, state.frequency, state.daysInYear)
	periodsInYear := dates.IntervalsInYear(state.frequency, state.daysInYear)
	periodicRate := rate.Div(decimal.NewFromInt(int64(periodsInYear)))

	// Continuous compounding composes across any span, so the whole
	// interval is one sub-period.
	if state.frequency == dates.FrequencyContinuous {
		dcf := dates.DayCountFactor(lastInterestDate.ToSerial(), eventDate.ToSerial(),
			state.basis, state.daysInYear, periodsInYear)
		growth := decmath.Exp(rate.Mul(dcf)).Sub(decimal.New(1, 0))
		return interestResult{
			interest:   balance.Abs().Mul(growth),
			slInterest: slBalance.Abs().Mul(growth),
		}
	}

	// Walk backward one frequency step at a time until we reach or
	// pass the last interest date; any remainder becomes the stub at
	// the beginning of the interval.
	boundaries := []dates.Date{eventDate}
	cursor := eventDate
	for cursor > lastInterestDate {
		prev := dates.AdvanceDateSigned(origDate, cursor, state.frequency, -1, eom)
		if prev >= cursor {
			// Frequency does not move the date; treat the whole span
			// as a single stub.
			break
		}
		cursor = prev
		if cursor > lastInterestDate {
			boundaries = append(boundaries, cursor)
		}
	}
	stub := cursor != lastInterestDate

	// First-positive short circuit: an asset balance earns nothing
	// until a whole compounding period has elapsed.
	if balance.Sign() >= 0 && stub && len(boundaries) == 1 {
		return interestResult{interest: decimal.Zero, slInterest: decimal.Zero, shortCircuit: true}
	}

	// Reverse into ascending sub-period boundaries starting at the
	// last interest date.
	ascending := make([]dates.Date, 0, len(boundaries)+1)
	ascending = append(ascending, lastInterestDate)
	for i := len(boundaries) - 1; i >= 0; i-- {
		ascending = append(ascending, boundaries[i])
	}

	workBalance := balance.Abs()
	slWork := slBalance.Abs()
	startBalance := workBalance
	simpleSum := decimal.Zero
	slSum := decimal.Zero

	for i := 1; i < len(ascending); i++ {
		from := ascending[i-1]
		to := ascending[i]
		isStub := stub && i == 1
		dcf := dates.DayCountFactor(from.ToSerial(), to.ToSerial(), state.basis, state.daysInYear, periodsInYear)

		var delta, slDelta decimal.Decimal
		switch {
		case state.frequency == dates.FrequencyContinuous:
			growth := decmath.Exp(rate.Mul(dcf)).Sub(decimal.New(1, 0))
			delta = workBalance.Mul(growth)
			slDelta = slWork.Mul(growth)
		case (state.basis == dates.BasisPeriodic || state.basis == dates.BasisRuleOf78) && !isStub:
			delta = workBalance.Mul(periodicRate)
			slDelta = slWork.Mul(periodicRate)
		default:
			delta = workBalance.Mul(rate).Mul(dcf)
			slDelta = slWork.Mul(rate).Mul(dcf)
		}

		if state.method == cashflow.MethodActuarial {
			workBalance = workBalance.Add(delta)
		} else {
			simpleSum = simpleSum.Add(delta)
		}
		slSum = slSum.Add(slDelta)
	}

	return interestResult{
		interest:   workBalance.Sub(startBalance).Add(simpleSum),
		slInterest: slSum,
	}
}

// roundInterest applies the active rounding policy to an interest
// amount. A fractional round-decimal-digits value rounds to that
// fraction; otherwise the amount rounds at the cashflow's digit
// precision under the configured round type (banker's by default).
func (state interestState) roundInterest(value decimal.Decimal, decimalDigits int) decimal.Decimal {
	if state.roundDecimalDigits.Sign() > 0 && state.roundDecimalDigits.LessThan(decimal.New(1, 0)) {
		return decmath.RoundFraction(value, state.roundDecimalDigits, state.roundBalance)
	}

	digits := decimalDigits
	if state.roundDecimalDigits.GreaterThanOrEqual(decimal.New(1, 0)) {
		digits = int(state.roundDecimalDigits.IntPart())
	}

	if state.roundBalance == decmath.RoundNone {
		return value
	}
	return decmath.Round(value, digits, state.roundBalance)
}
