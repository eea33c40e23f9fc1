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
	"github.com/shopspring/decimal"
)

// balanceOptions steer one balance pass.
type balanceOptions struct {
	includeAuxPassive bool
	ruleOf78Pass      bool
	optimize          bool
	// prevResult supplies the totals a Rule-of-78 allocation pass
	// distributes.
	prevResult *cashflow.BalanceResult
}

// runBalance walks the amortization list in order, applying interest,
// principal adjustments, accrued-balance bookkeeping, and statistic
// accumulation, and returns a fresh BalanceResult. The statistic
// helper is reset on entry and handed back mutated.
func (eng *CalcEngine) runBalance(cf *Cashflow, amList *cashflow.AmortizationList,
	stats *cashflow.StatisticHelper, opts balanceOptions) (*cashflow.BalanceResult, error) {

	if amList == nil || amList.Count() == 0 {
		return nil, cashflow.NewError(cashflow.ErrElement, "amortization list is empty")
	}
	if stats == nil {
		stats = cashflow.NewStatisticHelper()
	}
	stats.Reset()

	guard := amList.SaveCursor()
	defer guard.Restore()

	digits := eng.digitsFor(cf)
	result := cashflow.NewBalanceResult()
	state := defaultInterestState()

	balance := decimal.Zero
	slBalance := decimal.Zero
	accBalance := decimal.Zero
	var lastInterestDate dates.Date

	// Rule-of-78 allocation inputs from the prior pass.
	var totalInterest decimal.Decimal
	totalPrinStats := 0
	if opts.ruleOf78Pass && opts.prevResult != nil {
		totalInterest = opts.prevResult.Interest
		totalPrinStats = opts.prevResult.PrinTotal
	}

	rows := amList.Rows()
	for i, row := range rows {
		priorBalance := balance
		priorAcc := accBalance
		priorLast := lastInterestDate

		// Interest preamble.
		interest := decimal.Zero
		slInterest := decimal.Zero
		if lastInterestDate != 0 && row.EventDate > lastInterestDate {
			pc, isPrincipal := row.Extension.(*cashflow.PrincipalChange)
			if opts.ruleOf78Pass && isPrincipal && pc.BalanceStatistics && totalPrinStats > 0 {
				remaining := totalPrinStats - result.PrinTotal
				weightSum := decimal.NewFromInt(int64(totalPrinStats) * int64(totalPrinStats+1) / 2)
				interest = totalInterest.Mul(decimal.NewFromInt(int64(remaining))).Div(weightSum)
				lastInterestDate = row.EventDate
			} else {
				accrued := computeInterest(state, lastInterestDate, row.EventDate, balance, slBalance, row.EOM, row.OrigDate)
				interest = accrued.interest
				slInterest = accrued.slInterest
				if !accrued.shortCircuit {
					lastInterestDate = row.EventDate
				}
			}
		}

		interest = state.roundInterest(interest, digits)
		slInterest = state.roundInterest(slInterest, digits)

		// Late value evaluation: the expression sees the interest the
		// row just earned.
		if !opts.optimize && row.ValueExprBalance && row.ValueExpr != "" {
			if err := eng.evaluateLateValue(row, balance, interest, slInterest, accBalance); err != nil {
				return nil, err
			}
		}

		// Fold the row's interest into the running state.
		if state.method == cashflow.MethodSimpleInterest {
			accBalance = accBalance.Add(interest)
			if accBalance.Sign() > 0 {
				result.AccBalanceSeen = true
			}
		} else if balance.Sign() < 0 {
			balance = balance.Sub(interest)
		} else {
			balance = balance.Add(interest)
		}

		restore := false
		skipAggregate := false
		valueToInterest := decimal.Zero
		valueToPrincipal := decimal.Zero
		prinIncrease := decimal.Zero
		prinDecrease := decimal.Zero

		switch ext := row.Extension.(type) {
		case *cashflow.CurrentValue:
			if ext.Passive && !ext.Present {
				restore = true
				skipAggregate = true
			} else if ext.Present && !result.CvPresentSeen {
				result.CvPresentSeen = true
				result.CurFirstPvIndex = i
			}

		case *cashflow.InterestChange:
			state.adopt(ext, row.Value, row.Frequency)
			if state.method == cashflow.MethodActuarial && accBalance.Sign() != 0 {
				if balance.Sign() < 0 {
					balance = balance.Sub(accBalance)
				} else {
					balance = balance.Add(accBalance)
				}
				accBalance = decimal.Zero
			}
			slBalance = balance
			if result.IntFirstIndex == cashflow.UnsetIndex {
				result.IntFirstIndex = i
			}
			result.IntLastIndex = i
			if ext.DayCountBasis == dates.BasisRuleOf78 {
				result.RuleOf78Seen = true
			}
			if lastInterestDate == 0 {
				lastInterestDate = row.EventDate
			}

		case *cashflow.StatisticValue:
			acc := stats.Get(ext.Name)
			switch {
			case ext.Final && acc != nil:
				row.PrincipalIncrease = acc.PrincipalIncrease
				row.PrincipalDecrease = acc.PrincipalDecrease
				valueToInterest = acc.ValueToInterest
				valueToPrincipal = acc.ValueToPrincipal
				interest = acc.Interest
				slInterest = acc.SLInterest
				stats.Close(ext.Name)
				restore = true
			case ext.Final:
				// Final with nothing open leaves the running state
				// alone and records nothing.
			case acc != nil:
				acc.LastDate = row.EventDate
				acc.ElemAmIndex = i
				restore = true
			default:
				stats.Open(ext.Name, row.EventDate, i)
				restore = true
			}
			skipAggregate = true

		case *cashflow.PrincipalChange:
			passiveAux := ext.Auxiliary && ext.AuxPassive && !opts.includeAuxPassive
			prinValue := row.Value

			switch ext.PrinType {
			case cashflow.PrincipalPositive, cashflow.PrincipalNegative:
				if !passiveAux {
					if ext.PrinType == cashflow.PrincipalPositive {
						balance = prinValue
					} else {
						balance = prinValue.Neg()
					}
					interest = decimal.Zero
					slInterest = decimal.Zero
					accBalance = decimal.Zero
					stats.ResetAll()
					prinIncrease = prinValue
					if ext.PrinType == cashflow.PrincipalNegative {
						prinIncrease = decimal.Zero
						prinDecrease = prinValue
					} else {
						valueToPrincipal = prinValue
					}
				}

			case cashflow.PrincipalIncrease:
				switch {
				case state.method == cashflow.MethodSimpleInterest && balance.Sign() < 0:
					if ext.PrincipalFirst {
						balance = balance.Add(prinValue)
						if balance.Sign() > 0 {
							absorb := decimal.Min(accBalance, balance)
							balance = balance.Sub(absorb)
							accBalance = accBalance.Sub(absorb)
							valueToInterest = absorb
						}
						valueToPrincipal = prinValue.Sub(valueToInterest)
					} else {
						origValue := prinValue
						applied := prinValue.Sub(accBalance)
						if applied.Sign() < 0 {
							applied = decimal.Zero
						}
						valueToInterest = origValue.Sub(applied)
						accBalance = accBalance.Sub(origValue)
						if accBalance.Sign() < 0 {
							accBalance = decimal.Zero
						}
						balance = balance.Add(applied)
						valueToPrincipal = applied
						prinValue = applied
					}
				case state.method == cashflow.MethodActuarial && balance.Sign() < 0:
					balance = balance.Add(prinValue)
					valueToInterest = decimal.Min(interest, prinValue)
					prinValue = prinValue.Sub(interest)
					if prinValue.Sign() < 0 {
						prinValue = decimal.Zero
					}
					valueToPrincipal = prinValue
				default:
					balance = balance.Add(prinValue)
					valueToPrincipal = prinValue
				}
				// aggregates always carry the raw event value, even
				// when part of it absorbed accrued interest
				prinIncrease = row.Value

			case cashflow.PrincipalDecrease:
				balance = balance.Sub(prinValue)
				prinDecrease = prinValue
			}

			if passiveAux {
				restore = true
				skipAggregate = true
			} else {
				if result.PrinFirstIndex == cashflow.UnsetIndex &&
					(ext.PrinType == cashflow.PrincipalNegative || ext.PrinType == cashflow.PrincipalDecrease) {
					result.Polarity = -1
				}

				result.PrinIncrease = result.PrinIncrease.Add(prinIncrease)
				result.PrinDecrease = result.PrinDecrease.Add(prinDecrease)
				if ext.Auxiliary {
					if ext.AuxPassive {
						result.AuxPassiveIncrease = result.AuxPassiveIncrease.Add(prinIncrease)
						result.AuxPassiveDecrease = result.AuxPassiveDecrease.Add(prinDecrease)
					} else {
						result.AuxActiveIncrease = result.AuxActiveIncrease.Add(prinIncrease)
						result.AuxActiveDecrease = result.AuxActiveDecrease.Add(prinDecrease)
					}
				}

				if result.PrinFirstIndex == cashflow.UnsetIndex {
					result.PrinFirstIndex = i
				}
				if result.CvPresentSeen && result.PrinFirstPvIndex == cashflow.UnsetIndex {
					result.PrinFirstPvIndex = i
				}
				if ext.BalanceStatistics {
					if result.PrinFirstStatIndex == cashflow.UnsetIndex {
						result.PrinFirstStatIndex = i
					}
					if result.CvPresentSeen && result.PrinFirstStatPvIndex == cashflow.UnsetIndex {
						result.PrinFirstStatPvIndex = i
					}
					result.PrinLastStatIndex = i
					result.PrinTotal++
					if result.CvPresentSeen {
						result.PrinPresent++
					}
				}
				result.PrinLastIndex = i

				row.PrincipalIncrease = prinIncrease
				row.PrincipalDecrease = prinDecrease
			}
		}

		if !skipAggregate {
			result.Interest = result.Interest.Add(interest)
			result.SLInterest = result.SLInterest.Add(slInterest)
			if result.CvPresentSeen {
				result.InterestPresent = result.InterestPresent.Add(interest)
				result.SLInterestPresent = result.SLInterestPresent.Add(slInterest)
			}
			stats.Apply(cashflow.StatisticDelta{
				PrincipalIncrease: prinIncrease,
				PrincipalDecrease: prinDecrease,
				Interest:          interest,
				SLInterest:        slInterest,
				ValueToInterest:   valueToInterest,
				ValueToPrincipal:  valueToPrincipal,
			})
		}

		if accBalance.Sign() > 0 {
			result.AccBalanceSeen = true
		}

		// Record the observed values into the row, then undo the
		// running-state changes for reporting-only rows.
		row.Interest = interest
		row.SLInterest = slInterest
		row.AccBalance = accBalance
		row.Balance = balance
		row.ValueToInterest = valueToInterest
		row.ValueToPrincipal = valueToPrincipal
		row.StatSequence = result.PrinTotal

		if restore {
			balance = priorBalance
			accBalance = priorAcc
			lastInterestDate = priorLast
		}
	}

	result.Balance = balance
	result.AccBalance = accBalance
	result.BalanceDate = rows[len(rows)-1].EventDate

	if !result.CvPresentSeen {
		result.InterestPresent = result.Interest
		result.SLInterestPresent = result.SLInterest
		result.PrinPresent = result.PrinTotal
		if result.PrinFirstStatPvIndex == cashflow.UnsetIndex {
			result.PrinFirstStatPvIndex = result.PrinFirstStatIndex
		}
		if result.PrinFirstPvIndex == cashflow.UnsetIndex {
			result.PrinFirstPvIndex = result.PrinFirstIndex
		}
	}

	eng.stripLeadingStatistics(amList, result)

	return result, nil
}

// stripLeadingStatistics drops statistic rows that precede every
// substantive row and shifts the recorded indices back to match.
// Only indices that were actually assigned are adjusted.
func (eng *CalcEngine) stripLeadingStatistics(amList *cashflow.AmortizationList, result *cashflow.BalanceResult) {
	lead := 0
	for _, row := range amList.Rows() {
		if row.ExtensionType() != cashflow.ExtensionStatisticValue {
			break
		}
		lead++
	}
	if lead == 0 || lead == amList.Count() {
		return
	}

	shift := func(index *int) {
		if *index == cashflow.UnsetIndex {
			return
		}
		*index -= lead
		if *index < 0 {
			*index = 0
		}
	}
	shift(&result.PrinFirstIndex)
	shift(&result.PrinFirstPvIndex)
	shift(&result.PrinFirstStatIndex)
	shift(&result.PrinFirstStatPvIndex)
	shift(&result.PrinLastIndex)
	shift(&result.PrinLastStatIndex)
	shift(&result.CurFirstPvIndex)
	shift(&result.IntFirstIndex)
	shift(&result.IntLastIndex)

	amList.RemoveLeading(lead)
}

// evaluateLateValue resolves a balance-dependent value expression;
// the bindings expose the row's computed interest and the balance as
// it would stand after applying it.
func (eng *CalcEngine) evaluateLateValue(row *cashflow.AmortizationRow,
	balance, interest, slInterest, accBalance decimal.Decimal) error {

	eval := eng.NewEvaluator()
	eval.Init(row.Descriptors, nil, row.ValueExpr)
	eval.SetSymbolDecimal("decValue", row.Value)
	eval.SetSymbolDecimal("decInterest", interest)
	eval.SetSymbolDecimal("decSLInterest", slInterest)
	eval.SetSymbolDecimal("decAccBalance", accBalance)
	eval.SetSymbolDecimal("decBalance", balance.Add(interest))
	eval.SetSymbolInteger("intSequence", row.EventSequence)
	value, err := eval.Evaluate()
	if err != nil {
		return cashflow.WrapError(cashflow.ErrExpression, err, "balance value expression failed")
	}
	row.Value = value.AsDecimal()
	return nil
}
