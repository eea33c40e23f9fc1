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
package dates

import "github.com/shopspring/decimal"

// ratePrecision is the working precision for rate conversions; final
// rounding happens at the call site with the cashflow's own digits.
const ratePrecision = 16

var one = decimal.New(1, 0)

// NominalToEffective converts an annual nominal rate (as a fraction)
// compounded at freq into the equivalent annual effective rate.
// Continuous compounding uses exp(rate) - 1.
func NominalToEffective(rate decimal.Decimal, freq Frequency, daysInYear int) decimal.Decimal {
	if freq == FrequencyContinuous {
		exp, err := rate.ExpTaylor(ratePrecision)
		if err != nil {
			return rate
		}
		return exp.Sub(one)
	}

	intervals := decimal.NewFromInt(int64(IntervalsInYear(freq, daysInYear)))
	compounded, err := one.Add(rate.Div(intervals)).PowWithPrecision(intervals, ratePrecision)
	if err != nil {
		return rate
	}
	return compounded.Sub(one)
}

// EffectiveToNominal converts an annual effective rate into the
// nominal rate that, compounded at freq, reproduces it. Continuous
// compounding uses ln(1 + rate).
func EffectiveToNominal(rate decimal.Decimal, freq Frequency, daysInYear int) decimal.Decimal {
	if freq == FrequencyContinuous {
		ln, err := one.Add(rate).Ln(ratePrecision)
		if err != nil {
			return rate
		}
		return ln
	}

	intervals := decimal.NewFromInt(int64(IntervalsInYear(freq, daysInYear)))
	root, err := one.Add(rate).PowWithPrecision(one.Div(intervals), ratePrecision)
	if err != nil {
		return rate
	}
	return root.Sub(one).Mul(intervals)
}

// NominalToPeriodic returns the rate applied to one compounding
// period of freq.
func NominalToPeriodic(rate decimal.Decimal, freq Frequency, daysInYear int) decimal.Decimal {
	return rate.Div(decimal.NewFromInt(int64(IntervalsInYear(freq, daysInYear))))
}

// PeriodicToNominal scales a per-period rate back to an annual
// nominal rate.
func PeriodicToNominal(rate decimal.Decimal, freq Frequency, daysInYear int) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(IntervalsInYear(freq, daysInYear))))
}

// NominalToDaily converts an annual nominal rate to a daily rate.
func NominalToDaily(rate decimal.Decimal, daysInYear int) decimal.Decimal {
	return rate.Div(decimal.NewFromInt(int64(daysInYear)))
}

// DailyToNominal converts a daily rate to an annual nominal rate.
func DailyToNominal(rate decimal.Decimal, daysInYear int) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(daysInYear)))
}

// ConvertEffective translates a rate quoted with an effective
// compounding frequency into the nominal rate for the schedule's
// compounding frequency. When the two frequencies match, the rate is
// returned unchanged.
func ConvertEffective(rate decimal.Decimal, effectiveFreq, scheduleFreq Frequency, daysInYear int) decimal.Decimal {
	if effectiveFreq == FrequencyNone || effectiveFreq == scheduleFreq {
		return rate
	}
	annual := NominalToEffective(rate, effectiveFreq, daysInYear)
	return EffectiveToNominal(annual, scheduleFreq, daysInYear)
}
