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

// Package engine implements the amortization and cashflow calculation
// engine: event expansion, interest accrual, balancing, solvers, and
// cashflow transforms behind a single facade.
package engine

import (
	"github.com/alphadose/haxmap"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/penny-vault/pvcashflow/cashflow"
	"github.com/rs/zerolog/log"
)

// Preferences are per-cashflow overrides of the engine's global
// settings; zero values fall back to the engine defaults.
type Preferences struct {
	DecimalDigits   int `json:"decimalDigits" toml:"decimal_digits"`
	FiscalYearStart int `json:"fiscalYearStart" toml:"fiscal_year_start"`
}

// Cashflow owns an event list and the derived amortization schedule
// plus balance result. Touch clears the derived members; mutating the
// event list does not clear them by itself.
type Cashflow struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Group string    `json:"group"`

	Preferences Preferences `json:"preferences"`

	Events     *cashflow.EventList
	AmList     *cashflow.AmortizationList
	LastResult *cashflow.BalanceResult
	Stats      *cashflow.StatisticHelper
}

// Touch invalidates the derived schedule and result after an event
// mutation.
func (cf *Cashflow) Touch() {
	cf.AmList = nil
	cf.LastResult = nil
}

// CalcEngine is the calculation manager: it owns the open cashflows,
// global precision settings, and the evaluator factory. All entry
// points are synchronous; the registry is the only structure safe for
// concurrent use.
type CalcEngine struct {
	cashflows *haxmap.Map[string, *Cashflow]
	current   *Cashflow

	DecimalDigits   int
	FiscalYearStart int
	Locale          string

	// NewEvaluator builds the expression evaluator used for value,
	// period, date, and descriptor expressions.
	NewEvaluator func() cashflow.Evaluator
}

// New returns an engine with default precision settings and the
// reference symbol evaluator.
func New() *CalcEngine {
	return &CalcEngine{
		cashflows:       haxmap.New[string, *Cashflow](),
		DecimalDigits:   DefaultDecimalDigits,
		FiscalYearStart: DefaultFiscalYearStart,
		NewEvaluator:    func() cashflow.Evaluator { return cashflow.NewSymbolEvaluator() },
	}
}

// Init installs the locale and fills in default precision settings
// that are still zero; non-zero settings are kept. Locale resource
// loading itself happens outside the engine.
func (eng *CalcEngine) Init(locale string) error {
	eng.Locale = locale
	if eng.DecimalDigits == 0 {
		eng.DecimalDigits = DefaultDecimalDigits
	}
	if eng.FiscalYearStart == 0 {
		eng.FiscalYearStart = DefaultFiscalYearStart
	}
	log.Debug().Str("Locale", locale).Msg("engine initialized")
	return nil
}

// AddCashflow registers a new, empty cashflow and selects it. The
// registry key is the slug of the name.
func (eng *CalcEngine) AddCashflow(name, group string) *Cashflow {
	cf := &Cashflow{
		ID:     uuid.New(),
		Name:   name,
		Group:  group,
		Events: cashflow.NewEventList(),
		Stats:  cashflow.NewStatisticHelper(),
		Preferences: Preferences{
			DecimalDigits:   eng.DecimalDigits,
			FiscalYearStart: eng.FiscalYearStart,
		},
	}
	eng.cashflows.Set(slug.Make(name), cf)
	eng.current = cf
	return cf
}

// GetCashflow looks a cashflow up by name (or its slug).
func (eng *CalcEngine) GetCashflow(name string) (*Cashflow, error) {
	if cf, ok := eng.cashflows.Get(slug.Make(name)); ok {
		return cf, nil
	}
	return nil, cashflow.NewError(cashflow.ErrCfName, "cashflow %q not found", name)
}

// SelectCashflow makes the named cashflow current.
func (eng *CalcEngine) SelectCashflow(name string) (*Cashflow, error) {
	cf, err := eng.GetCashflow(name)
	if err != nil {
		return nil, err
	}
	eng.current = cf
	return cf, nil
}

// RemoveCashflow drops a cashflow from the registry.
func (eng *CalcEngine) RemoveCashflow(name string) {
	key := slug.Make(name)
	if eng.current != nil && slug.Make(eng.current.Name) == key {
		eng.current = nil
	}
	eng.cashflows.Del(key)
}

// Current returns the selected cashflow.
func (eng *CalcEngine) Current() (*Cashflow, error) {
	if eng.current == nil {
		return nil, cashflow.NewError(cashflow.ErrIndex, "no cashflow selected")
	}
	return eng.current, nil
}

// Names returns the registered cashflow slugs.
func (eng *CalcEngine) Names() []string {
	names := make([]string, 0, int(eng.cashflows.Len()))
	eng.cashflows.ForEach(func(key string, _ *Cashflow) bool {
		names = append(names, key)
		return true
	})
	return names
}

// digitsFor resolves the decimal precision for a cashflow.
func (eng *CalcEngine) digitsFor(cf *Cashflow) int {
	if cf != nil && cf.Preferences.DecimalDigits > 0 {
		return cf.Preferences.DecimalDigits
	}
	return eng.DecimalDigits
}
