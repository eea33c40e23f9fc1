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
	"github.com/penny-vault/pvcashflow/decmath"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// balancePass expands nothing; it balances the given list, running
// the Rule-of-78 allocation pass when the first pass flags it.
func (eng *CalcEngine) balancePass(cf *Cashflow, amList *cashflow.AmortizationList,
	includeAuxPassive, optimize bool) (*cashflow.BalanceResult, error) {

	result, err := eng.runBalance(cf, amList, cf.Stats, balanceOptions{
		includeAuxPassive: includeAuxPassive,
		optimize:          optimize,
	})
	if err != nil {
		return nil, err
	}
	if result.RuleOf78Seen {
		result, err = eng.runBalance(cf, amList, cf.Stats, balanceOptions{
			includeAuxPassive: includeAuxPassive,
			ruleOf78Pass:      true,
			optimize:          optimize,
			prevResult:        result,
		})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// BalanceCashflow re-expands and balances the selected cashflow; the
// schedule and result are stored on the cashflow.
func (eng *CalcEngine) BalanceCashflow() (*cashflow.BalanceResult, error) {
	cf, err := eng.Current()
	if err != nil {
		return nil, err
	}

	guard := cf.Events.SaveCursor()
	defer guard.Restore()

	amList, err := eng.Expand(cf, false)
	if err != nil {
		return nil, err
	}

	result, err := eng.balancePass(cf, amList, false, false)
	if err != nil {
		return nil, err
	}

	cf.AmList = amList
	cf.LastResult = result
	log.Debug().Object("BalanceResult", result).Str("Cashflow", cf.Name).Msg("balanced cashflow")
	return result, nil
}

// setAllIndexValues patches the value of every amortization row
// expanded from the given event.
func setAllIndexValues(amList *cashflow.AmortizationList, eventIndex int, value decimal.Decimal) {
	for _, row := range amList.Rows() {
		if row.ListEventIndex != eventIndex {
			continue
		}
		row.Value = value
		if pc, ok := row.Extension.(*cashflow.PrincipalChange); ok {
			switch pc.PrinType {
			case cashflow.PrincipalDecrease, cashflow.PrincipalNegative:
				row.PrincipalDecrease = value
			default:
				row.PrincipalIncrease = value
			}
		}
	}
}

// setAllInterestValues patches the rate of every interest-change row.
func setAllInterestValues(amList *cashflow.AmortizationList, value decimal.Decimal) {
	for _, row := range amList.Rows() {
		if row.ExtensionType() == cashflow.ExtensionInterestChange {
			row.Value = value
		}
	}
}

// solveConfig parameterizes the shared bisection skeleton.
type solveConfig struct {
	maxIterations     int
	maxValue          decimal.Decimal
	failType          cashflow.ErrType
	includeAuxPassive bool
	optimize          bool
}

// installFunc applies a candidate parameter and returns the
// amortization list to balance; it may patch rows in place or
// re-expand.
type installFunc func(candidate decimal.Decimal) (*cashflow.AmortizationList, error)

// solveDecimal is the shared root finder: probe the residual slope,
// expand the step until the target is bracketed, then halve toward
// it. Terminates on an exact hit, a saturated parameter, a step below
// the display-precision floor while on the correct side, or the
// iteration cap.
func (eng *CalcEngine) solveDecimal(cf *Cashflow, target, initial decimal.Decimal,
	install installFunc, cfg solveConfig) (decimal.Decimal, *cashflow.BalanceResult, error) {

	digits := eng.digitsFor(cf)
	minStep := minSolverStep()

	evalAt := func(candidate decimal.Decimal) (decimal.Decimal, *cashflow.BalanceResult, error) {
		amList, err := install(candidate)
		if err != nil {
			return decimal.Zero, nil, err
		}
		result, err := eng.balancePass(cf, amList, cfg.includeAuxPassive, cfg.optimize)
		if err != nil {
			return decimal.Zero, nil, err
		}
		return decmath.RoundBankersDigits(result.FinalBalance(), digits), result, nil
	}

	value := initial
	if value.Sign() <= 0 {
		value = decimal.New(1, 0)
	}

	balance, result, err := evalAt(value)
	if err != nil {
		return decimal.Zero, nil, err
	}
	if balance.Equal(target) {
		return value, result, nil
	}

	// Probe which way the terminal balance moves as the parameter
	// grows.
	probeStep := decimal.Max(value.Abs().Div(decimal.New(10, 0)), decimal.New(1, 0))
	probeBalance, _, err := evalAt(value.Add(probeStep))
	if err != nil {
		return decimal.Zero, nil, err
	}
	slopeUp := probeBalance.GreaterThan(balance)
	if probeBalance.Equal(balance) {
		// Flat response: the parameter does not reach the balance.
		return decimal.Zero, nil, cashflow.NewError(cfg.failType, "parameter does not affect the balance")
	}

	correctSide := func(bal decimal.Decimal) bool {
		if result != nil && result.Polarity < 0 {
			return bal.LessThanOrEqual(target)
		}
		return bal.GreaterThanOrEqual(target)
	}

	adjustUp := func(bal decimal.Decimal) bool {
		if slopeUp {
			return bal.LessThan(target)
		}
		return bal.GreaterThan(target)
	}

	step := probeStep
	bracketed := false
	lastUp := adjustUp(balance)

	for iterations := 0; iterations <= cfg.maxIterations; iterations++ {
		up := adjustUp(balance)
		if up != lastUp {
			bracketed = true
		}
		lastUp = up

		if bracketed {
			step = step.Div(decimal.New(2, 0))
		} else {
			step = step.Mul(decimal.New(2, 0))
		}

		if step.LessThan(minStep) {
			if correctSide(balance) {
				break
			}
			step = minStep
		}

		if up {
			value = value.Add(step)
		} else {
			value = value.Sub(step)
		}
		if value.GreaterThan(cfg.maxValue) {
			return decimal.Zero, nil, cashflow.NewError(cfg.failType, "parameter saturated at %s", cfg.maxValue)
		}
		if value.Sign() < 0 {
			value = minStep
		}

		balance, result, err = evalAt(value)
		if err != nil {
			return decimal.Zero, nil, err
		}
		if balance.Equal(target) {
			break
		}
	}

	// Round to display precision and confirm the rounded parameter
	// still lands on the correct side; nudge one smallest fraction if
	// rounding pushed it over.
	value = decmath.RoundBankersDigits(value, MaxDisplayDecimalDigits)
	balance, result, err = evalAt(value)
	if err != nil {
		return decimal.Zero, nil, err
	}
	if !balance.Equal(target) && !correctSide(balance) {
		if adjustUp(balance) {
			value = value.Add(minStep)
		} else {
			value = value.Sub(minStep)
		}
		balance, result, err = evalAt(value)
		if err != nil {
			return decimal.Zero, nil, err
		}
		_ = balance
	}

	if value.Sign() <= 0 || value.GreaterThanOrEqual(cfg.maxValue) {
		return decimal.Zero, nil, cashflow.NewError(cfg.failType, "solver did not converge")
	}
	return value, result, nil
}

// CalculateValue solves the selected event's value so the terminal
// balance equals target; interest-change events solve for their rate,
// all other events for their principal amount.
func (eng *CalcEngine) CalculateValue(target decimal.Decimal) (*cashflow.BalanceResult, error) {
	cf, err := eng.Current()
	if err != nil {
		return nil, err
	}
	ev, err := cf.Events.Current()
	if err != nil {
		return nil, err
	}
	if ev.ExtensionType() == cashflow.ExtensionInterestChange {
		return eng.calculateInterest(cf, target)
	}
	return eng.calculatePrincipal(cf, target)
}

// CalculateYield solves the rate applied across every interest event
// so the terminal balance equals target (the cashflow's APR).
func (eng *CalcEngine) CalculateYield(target decimal.Decimal) (*cashflow.BalanceResult, error) {
	cf, err := eng.Current()
	if err != nil {
		return nil, err
	}

	guard := cf.Events.SaveCursor()
	defer guard.Restore()

	amList, err := eng.Expand(cf, true)
	if err != nil {
		return nil, err
	}

	// Warm-up pass so auxiliary passive events participate in the
	// polarity and cursor state the solver sees.
	if _, err := eng.balancePass(cf, amList, true, false); err != nil {
		return nil, err
	}

	initial := decimal.New(5, 0)
	if first := firstInterestRate(amList); !first.IsZero() {
		initial = first
	}

	install := func(candidate decimal.Decimal) (*cashflow.AmortizationList, error) {
		setAllInterestValues(amList, candidate)
		return amList, nil
	}

	rate, result, err := eng.solveDecimal(cf, target, initial, install, solveConfig{
		maxIterations:     maxIterationsCalcYield,
		maxValue:          maxCalcInterest,
		failType:          cashflow.ErrCalcInterest,
		includeAuxPassive: true,
		optimize:          true,
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range cf.Events.Events() {
		if ev.ExtensionType() == cashflow.ExtensionInterestChange {
			ev.Value = rate
		}
	}
	cf.AmList = amList
	cf.LastResult = result
	return result, nil
}

func firstInterestRate(amList *cashflow.AmortizationList) decimal.Decimal {
	for _, row := range amList.Rows() {
		if row.ExtensionType() == cashflow.ExtensionInterestChange {
			return row.Value
		}
	}
	return decimal.Zero
}

// calculateInterest solves the selected interest-change event's rate.
func (eng *CalcEngine) calculateInterest(cf *Cashflow, target decimal.Decimal) (*cashflow.BalanceResult, error) {
	ev, err := cf.Events.Current()
	if err != nil {
		return nil, err
	}
	if ev.ExtensionType() != cashflow.ExtensionInterestChange {
		return nil, cashflow.NewError(cashflow.ErrIndex, "selected event is not an interest change")
	}
	eventIndex := cf.Events.CurrentIndex()

	guard := cf.Events.SaveCursor()
	defer guard.Restore()

	amList, err := eng.Expand(cf, true)
	if err != nil {
		return nil, err
	}

	install := func(candidate decimal.Decimal) (*cashflow.AmortizationList, error) {
		ev.Value = candidate
		setAllIndexValues(amList, eventIndex, candidate)
		return amList, nil
	}

	initial := ev.Value
	rate, result, err := eng.solveDecimal(cf, target, initial, install, solveConfig{
		maxIterations: maxIterationsCalcInterest,
		maxValue:      maxCalcInterest,
		failType:      cashflow.ErrCalcInterest,
	})
	if err != nil {
		return nil, err
	}

	ev.Value = rate
	cf.AmList = amList
	cf.LastResult = result
	return result, nil
}

// calculatePrincipal solves the selected principal event's value.
func (eng *CalcEngine) calculatePrincipal(cf *Cashflow, target decimal.Decimal) (*cashflow.BalanceResult, error) {
	ev, err := cf.Events.Current()
	if err != nil {
		return nil, err
	}
	eventIndex := cf.Events.CurrentIndex()

	guard := cf.Events.SaveCursor()
	defer guard.Restore()

	reExpand := ev.ValueExpr != "" && !ev.ValueExprBalance

	install := func(candidate decimal.Decimal) (*cashflow.AmortizationList, error) {
		ev.Value = candidate
		if reExpand {
			return eng.Expand(cf, true)
		}
		if cf.AmList == nil {
			amList, err := eng.Expand(cf, true)
			if err != nil {
				return nil, err
			}
			cf.AmList = amList
		}
		setAllIndexValues(cf.AmList, eventIndex, candidate)
		return cf.AmList, nil
	}

	// A single-occurrence static value at the end of the schedule is
	// exactly determined by one balance pass.
	if eventIndex == cf.Events.Count()-1 && ev.Periods <= 1 && ev.ValueExpr == "" {
		return eng.simpleCalcPrincipal(cf, ev, target, install)
	}

	cf.AmList = nil
	value, result, err := eng.solveDecimal(cf, target, ev.Value, install, solveConfig{
		maxIterations: maxIterationsCalcPrincipal,
		maxValue:      maxCalcPrincipal,
		failType:      cashflow.ErrCalcPrincipal,
	})
	if err != nil {
		return nil, err
	}

	ev.Value = value
	cf.LastResult = result
	return result, nil
}

// simpleCalcPrincipal handles the degenerate last-event case: the
// answer is the gap between the target and the balance with a zero
// candidate.
func (eng *CalcEngine) simpleCalcPrincipal(cf *Cashflow, ev *cashflow.Event,
	target decimal.Decimal, install installFunc) (*cashflow.BalanceResult, error) {

	amList, err := install(decimal.Zero)
	if err != nil {
		return nil, err
	}
	result, err := eng.balancePass(cf, amList, false, false)
	if err != nil {
		return nil, err
	}

	balance := result.FinalBalance()
	value := target.Sub(balance)
	if pc, ok := ev.Extension.(*cashflow.PrincipalChange); ok {
		if pc.PrinType == cashflow.PrincipalDecrease || pc.PrinType == cashflow.PrincipalNegative {
			value = balance.Sub(target)
		}
	}
	value = decmath.RoundBankersDigits(value, eng.digitsFor(cf))
	if value.Sign() == 0 {
		return nil, cashflow.NewError(cashflow.ErrCalcPrincipal, "solved principal is zero")
	}

	amList, err = install(value)
	if err != nil {
		return nil, err
	}
	result, err = eng.balancePass(cf, amList, false, false)
	if err != nil {
		return nil, err
	}

	ev.Value = value
	cf.AmList = amList
	cf.LastResult = result
	return result, nil
}

// CalculatePeriods solves the selected event's period count so the
// terminal balance equals target; periods move in whole steps.
func (eng *CalcEngine) CalculatePeriods(target decimal.Decimal) (*cashflow.BalanceResult, error) {
	cf, err := eng.Current()
	if err != nil {
		return nil, err
	}
	ev, err := cf.Events.Current()
	if err != nil {
		return nil, err
	}

	guard := cf.Events.SaveCursor()
	defer guard.Restore()

	// An interest change with a static value expands to a single row
	// no matter the period count.
	if ev.ExtensionType() == cashflow.ExtensionInterestChange && ev.ValueExpr == "" {
		ev.Periods = 1
		result, err := eng.BalanceCashflow()
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	digits := eng.digitsFor(cf)
	evalAt := func(periods int) (decimal.Decimal, *cashflow.BalanceResult, error) {
		ev.Periods = periods
		amList, err := eng.Expand(cf, true)
		if err != nil {
			return decimal.Zero, nil, err
		}
		result, err := eng.balancePass(cf, amList, false, true)
		if err != nil {
			return decimal.Zero, nil, err
		}
		return decmath.RoundBankersDigits(result.FinalBalance(), digits), result, nil
	}

	periods := ev.Periods
	if periods < 1 {
		periods = 1
	}

	balance, result, err := evalAt(periods)
	if err != nil {
		return nil, err
	}

	probeBalance, _, err := evalAt(periods + 1)
	if err != nil {
		return nil, err
	}
	slopeUp := probeBalance.GreaterThan(balance)
	if probeBalance.Equal(balance) {
		return nil, cashflow.NewError(cashflow.ErrCalcPeriods, "period count does not affect the balance")
	}

	adjustUp := func(bal decimal.Decimal) bool {
		if slopeUp {
			return bal.LessThan(target)
		}
		return bal.GreaterThan(target)
	}

	step := 1
	bracketed := false
	lastUp := adjustUp(balance)
	best := periods
	bestGap := balance.Sub(target).Abs()

	for iterations := 0; iterations <= maxIterationsCalcPeriods; iterations++ {
		if balance.Equal(target) {
			best = periods
			break
		}
		up := adjustUp(balance)
		if up != lastUp {
			bracketed = true
		}
		lastUp = up

		if bracketed {
			step /= 2
			if step < 1 {
				break
			}
		} else {
			step *= 2
		}

		if up {
			periods += step
		} else {
			periods -= step
		}
		if periods < 1 {
			periods = 1
		}
		if periods > maxCalcPeriods {
			return nil, cashflow.NewError(cashflow.ErrCalcPeriods, "period count saturated at %d", maxCalcPeriods)
		}

		balance, result, err = evalAt(periods)
		if err != nil {
			return nil, err
		}
		if gap := balance.Sub(target).Abs(); gap.LessThan(bestGap) {
			bestGap = gap
			best = periods
		}
	}

	balance, result, err = evalAt(best)
	if err != nil {
		return nil, err
	}
	_ = balance
	_ = result

	ev.Periods = best
	amList, err := eng.Expand(cf, false)
	if err != nil {
		return nil, err
	}
	finalResult, err := eng.balancePass(cf, amList, false, false)
	if err != nil {
		return nil, err
	}
	cf.AmList = amList
	cf.LastResult = finalResult
	return finalResult, nil
}
