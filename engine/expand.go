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
	"fmt"

	"github.com/penny-vault/pvcashflow/cashflow"
	"github.com/penny-vault/pvcashflow/dates"
	"github.com/shopspring/decimal"
)

// Expand lowers an event list into a sorted amortization list. When
// optimize is set, descriptor evaluation is skipped and statistic
// events are not emitted; solvers use this mode for their inner
// balance passes.
func (eng *CalcEngine) Expand(cf *Cashflow, optimize bool) (*cashflow.AmortizationList, error) {
	if cf == nil || cf.Events == nil {
		return nil, cashflow.NewError(cashflow.ErrElement, "no event list to expand")
	}

	amList := cashflow.NewAmortizationList()

	for eventIndex, ev := range cf.Events.Events() {
		periods, err := eng.resolvePeriods(ev)
		if err != nil {
			return nil, err
		}

		intervals := ev.Intervals
		if intervals < 1 {
			intervals = 1
		}

		amFrequency := ev.Frequency
		if ic, ok := ev.Extension.(*cashflow.InterestChange); ok && ic.InterestFrequency != dates.FrequencyNone {
			amFrequency = ic.InterestFrequency
		}

		skipMask := ev.SkipMask
		skipMaskLen := ev.SkipMaskLen

		isStatistic := ev.ExtensionType() == cashflow.ExtensionStatisticValue
		if isStatistic {
			periods = 1
			skipMask = 0
			skipMaskLen = 0
		}

		if !optimize {
			eng.evaluateDescriptors(ev, periods, intervals)
		}

		origDate := ev.OrigDate
		if origDate == 0 {
			origDate = ev.EventDate
		}
		eventDate := ev.EventDate
		sequence := 0

		for k := 0; k < periods; k++ {
			include := skipMaskLen == 0 || skipMask&(1<<(k%skipMaskLen)) == 0
			if isStatistic && optimize {
				include = false
			}

			if include {
				row := &cashflow.AmortizationRow{
					EventDate:        eventDate,
					OrigDate:         origDate,
					SortOrder:        ev.SortOrder,
					Value:            ev.Value,
					ValueExpr:        ev.ValueExpr,
					ValueExprBalance: ev.ValueExprBalance,
					Intervals:        intervals,
					Frequency:        amFrequency,
					EOM:              ev.EOM,
					Descriptors:      append([]cashflow.Descriptor(nil), ev.Descriptors...),
					EventSequence:    sequence,
					ListEventIndex:   eventIndex,
				}
				if ev.Extension != nil {
					row.Extension = ev.Extension.Clone()
				}

				if ev.ValueExpr != "" && !ev.ValueExprBalance {
					value, err := eng.evaluateValueExpr(ev, sequence)
					if err != nil {
						return nil, err
					}
					row.Value = value
				}

				if pc, ok := row.Extension.(*cashflow.PrincipalChange); ok {
					switch pc.PrinType {
					case cashflow.PrincipalDecrease, cashflow.PrincipalNegative:
						row.PrincipalDecrease = row.Value
					default:
						row.PrincipalIncrease = row.Value
					}
				}

				amList.Add(row)
				sequence++
			}

			next, err := eng.nextEventDate(ev, origDate, eventDate, amFrequency, intervals, k)
			if err != nil {
				return nil, err
			}
			eventDate = next
		}
	}

	amList.Sort()
	return amList, nil
}

// resolvePeriods returns the event's period count, evaluating the
// period expression when present. Zero clamps to one so every event
// emits at least one row.
func (eng *CalcEngine) resolvePeriods(ev *cashflow.Event) (int, error) {
	periods := ev.Periods
	if ev.PeriodsExpr != "" {
		eval := eng.NewEvaluator()
		eval.Init(ev.Descriptors, ev.Parameters, ev.PeriodsExpr)
		eval.SetSymbolInteger("intPeriods", ev.Periods)
		result, err := eval.Evaluate()
		if err != nil {
			return 0, cashflow.WrapError(cashflow.ErrExpression, err, "periods expression failed")
		}
		periods = result.AsInteger()
	}
	if periods < 1 {
		periods = 1
	}
	return periods, nil
}

// evaluateValueExpr computes the row value for an eagerly evaluated
// value expression.
func (eng *CalcEngine) evaluateValueExpr(ev *cashflow.Event, sequence int) (decimal.Decimal, error) {
	eval := eng.NewEvaluator()
	eval.Init(ev.Descriptors, ev.Parameters, ev.ValueExpr)
	eval.SetSymbolDecimal("decValue", ev.Value)
	eval.SetSymbolInteger("intSequence", sequence)
	result, err := eval.Evaluate()
	if err != nil {
		return decimal.Zero, cashflow.WrapError(cashflow.ErrExpression, err, "value expression failed")
	}
	return result.AsDecimal(), nil
}

// nextEventDate advances an occurrence date by one frequency step,
// honoring a date expression when the event carries one. A date
// expression returning zero is a date failure.
func (eng *CalcEngine) nextEventDate(ev *cashflow.Event, origDate, current dates.Date,
	freq dates.Frequency, intervals, sequence int) (dates.Date, error) {

	advanced := dates.AdvanceDate(origDate, current, freq, intervals, ev.EOM)
	if ev.DateExpr == "" {
		return advanced, nil
	}

	eval := eng.NewEvaluator()
	eval.Init(ev.Descriptors, ev.Parameters, ev.DateExpr)
	eval.SetSymbolInteger("intDate", int(current))
	eval.SetSymbolInteger("intNewDate", int(advanced))
	eval.SetSymbolInteger("intIntervals", intervals)
	eval.SetSymbolInteger("intSequence", sequence)
	eval.SetSymbolString("strFrequency", freq.String())
	result, err := eval.Evaluate()
	if err != nil {
		return 0, cashflow.WrapError(cashflow.ErrExpression, err, "date expression failed")
	}
	next := dates.Date(result.AsInteger())
	if next == 0 {
		return 0, cashflow.NewError(cashflow.ErrDate, "date expression returned 0 at sequence %d", sequence)
	}
	return next, nil
}

// evaluateDescriptors evaluates every expression descriptor on the
// event, writing failures inline into the descriptor value rather
// than failing the cashflow.
func (eng *CalcEngine) evaluateDescriptors(ev *cashflow.Event, periods, intervals int) {
	eomVal := 0
	if ev.EOM {
		eomVal = 1
	}
	for i := range ev.Descriptors {
		desc := &ev.Descriptors[i]
		if desc.Expression == "" {
			continue
		}
		eval := eng.NewEvaluator()
		eval.Init(ev.Descriptors, ev.Parameters, desc.Expression)
		eval.SetSymbolInteger("intDate", int(ev.EventDate))
		eval.SetSymbolDecimal("decValue", ev.Value)
		eval.SetSymbolInteger("intPeriods", periods)
		eval.SetSymbolInteger("intIntervals", intervals)
		eval.SetSymbolString("strFrequency", ev.Frequency.String())
		eval.SetSymbolInteger("intEOM", eomVal)
		eval.SetSymbolInteger("intFiscalYearStart", eng.FiscalYearStart)
		result, err := eval.Evaluate()
		if err != nil {
			desc.Value = fmt.Sprintf("error: %v", err)
			continue
		}
		desc.Value = result.AsString()
	}
}
