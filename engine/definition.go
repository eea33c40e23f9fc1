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
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvcashflow/cashflow"
	"github.com/penny-vault/pvcashflow/dates"
	"github.com/penny-vault/pvcashflow/decmath"
	"github.com/shopspring/decimal"
)

// Definition is the TOML wire form of a cashflow: metadata,
// preferences, and the authored event list.
type Definition struct {
	Name        string        `toml:"name"`
	Group       string        `toml:"group"`
	Preferences Preferences   `toml:"preferences"`
	Events      []EventDef    `toml:"events"`
	Templates   TemplateGroup `toml:"templates,omitempty"`
}

// EventDef is one authored event. The extension is selected by which
// of the four sub-tables is present.
type EventDef struct {
	EventDate int    `toml:"event_date" csv:"event_date"`
	SortOrder int    `toml:"sort_order" csv:"sort_order"`
	Value     string `toml:"value" csv:"value"`
	ValueExpr string `toml:"value_expr" csv:"value_expr"`
	// ValueExprBalance defers the value expression until the row's
	// interest is known.
	ValueExprBalance bool   `toml:"value_expr_balance" csv:"value_expr_balance"`
	Periods          int    `toml:"periods" csv:"periods"`
	PeriodsExpr      string `toml:"periods_expr" csv:"periods_expr"`
	DateExpr         string `toml:"date_expr" csv:"date_expr"`
	Intervals        int    `toml:"intervals" csv:"intervals"`
	Frequency        string `toml:"frequency" csv:"frequency"`
	// SkipMask is a string of 0s and 1s; a 1 skips the matching
	// occurrence, repeating over the mask length.
	SkipMask  string `toml:"skip_mask" csv:"skip_mask"`
	EOM       bool   `toml:"eom" csv:"eom"`
	EventName string `toml:"event_name" csv:"event_name"`
	NextName  string `toml:"next_name" csv:"next_name"`

	// CSV imports carry the extension inline.
	Type          string `toml:"type" csv:"type"`
	PrinType      string `toml:"prin_type" csv:"prin_type"`
	Method        string `toml:"method" csv:"method"`
	DayCountBasis string `toml:"day_count_basis" csv:"day_count_basis"`
	DaysInYear    int    `toml:"days_in_year" csv:"days_in_year"`
	Rate          string `toml:"rate" csv:"rate"`

	PrincipalChange *principalChangeDef `toml:"principal_change,omitempty" csv:"-"`
	InterestChange  *interestChangeDef  `toml:"interest_change,omitempty" csv:"-"`
	CurrentValue    *currentValueDef    `toml:"current_value,omitempty" csv:"-"`
	StatisticValue  *statisticValueDef  `toml:"statistic_value,omitempty" csv:"-"`
}

type principalChangeDef struct {
	Type              string `toml:"type"`
	EOM               bool   `toml:"eom"`
	PrincipalFirst    bool   `toml:"principal_first"`
	BalanceStatistics bool   `toml:"balance_statistics"`
	Auxiliary         bool   `toml:"auxiliary"`
	AuxPassive        bool   `toml:"aux_passive"`
}

type interestChangeDef struct {
	Method             string `toml:"method"`
	DayCountBasis      string `toml:"day_count_basis"`
	DaysInYear         int    `toml:"days_in_year"`
	EffectiveFrequency string `toml:"effective_frequency"`
	InterestFrequency  string `toml:"interest_frequency"`
	RoundBalance       string `toml:"round_balance"`
	RoundDecimalDigits string `toml:"round_decimal_digits"`
}

type currentValueDef struct {
	EOM     bool `toml:"eom"`
	Passive bool `toml:"passive"`
	Present bool `toml:"present"`
}

type statisticValueDef struct {
	Name  string `toml:"name"`
	EOM   bool   `toml:"eom"`
	Final bool   `toml:"final"`
}

// LoadDefinition reads a cashflow definition file.
func LoadDefinition(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, cashflow.WrapError(cashflow.ErrCashflow, err, "cannot read definition %s", path)
	}
	var def Definition
	if err := toml.Unmarshal(raw, &def); err != nil {
		return nil, cashflow.WrapError(cashflow.ErrCashflow, err, "cannot parse definition %s", path)
	}
	return &def, nil
}

// AddDefinition materializes a definition as a registered cashflow.
func (eng *CalcEngine) AddDefinition(def *Definition) (*Cashflow, error) {
	cf := eng.AddCashflow(def.Name, def.Group)
	if def.Preferences.DecimalDigits > 0 {
		cf.Preferences.DecimalDigits = def.Preferences.DecimalDigits
	}
	if def.Preferences.FiscalYearStart > 0 {
		cf.Preferences.FiscalYearStart = def.Preferences.FiscalYearStart
	}

	cf.Events.SetSortOnAdd(false)
	for i := range def.Events {
		ev, err := def.Events[i].ToEvent()
		if err != nil {
			return nil, err
		}
		cf.Events.Add(ev)
	}
	cf.Events.SetSortOnAdd(true)

	// Templates marked for initial add seed the event list at the
	// cashflow's start date.
	if startDate := firstEventDate(cf.Events); startDate != 0 {
		for i := range def.Templates.Templates {
			template := &def.Templates.Templates[i]
			if !template.InitialAd {
				continue
			}
			if _, err := eng.Instantiate(cf, &def.Templates, template.Name, startDate); err != nil {
				return nil, err
			}
		}
	}
	return cf, nil
}

func firstEventDate(events *cashflow.EventList) dates.Date {
	if events.Count() == 0 {
		return 0
	}
	return events.Events()[0].EventDate
}

// ToEvent converts the wire form into an engine event.
func (def *EventDef) ToEvent() (*cashflow.Event, error) {
	eventDate := dates.Date(def.EventDate)
	if !eventDate.Valid() {
		return nil, cashflow.NewError(cashflow.ErrDate, "bad event date %d", def.EventDate)
	}

	value := decimal.Zero
	if def.Value != "" {
		parsed, err := decimal.NewFromString(def.Value)
		if err != nil {
			return nil, cashflow.WrapError(cashflow.ErrCashflow, err, "bad value %q", def.Value)
		}
		value = parsed
	}
	if def.Rate != "" {
		parsed, err := decimal.NewFromString(def.Rate)
		if err != nil {
			return nil, cashflow.WrapError(cashflow.ErrCashflow, err, "bad rate %q", def.Rate)
		}
		value = parsed
	}

	ev := &cashflow.Event{
		EventDate:        eventDate,
		OrigDate:         eventDate,
		SortOrder:        def.SortOrder,
		Value:            value,
		ValueExpr:        def.ValueExpr,
		ValueExprBalance: def.ValueExprBalance,
		Periods:          def.Periods,
		PeriodsExpr:      def.PeriodsExpr,
		DateExpr:         def.DateExpr,
		Intervals:        def.Intervals,
		Frequency:        dates.ParseFrequency(def.Frequency),
		EOM:              def.EOM,
		EventName:        def.EventName,
		NextName:         def.NextName,
	}

	for i, ch := range def.SkipMask {
		if ch == '1' {
			ev.SkipMask |= 1 << i
		}
	}
	ev.SkipMaskLen = len(def.SkipMask)

	ext, err := def.extension(value)
	if err != nil {
		return nil, err
	}
	ev.Extension = ext
	return ev, nil
}

// extension builds the tagged extension from whichever sub-table (or
// inline CSV fields) the definition carries.
func (def *EventDef) extension(value decimal.Decimal) (cashflow.Extension, error) {
	switch {
	case def.PrincipalChange != nil:
		return &cashflow.PrincipalChange{
			PrinType:          cashflow.ParsePrincipalType(def.PrincipalChange.Type),
			EOM:               def.PrincipalChange.EOM,
			PrincipalFirst:    def.PrincipalChange.PrincipalFirst,
			BalanceStatistics: def.PrincipalChange.BalanceStatistics,
			Auxiliary:         def.PrincipalChange.Auxiliary,
			AuxPassive:        def.PrincipalChange.AuxPassive,
		}, nil
	case def.InterestChange != nil:
		ic := &cashflow.InterestChange{
			Method:             cashflow.ParseInterestMethod(def.InterestChange.Method),
			DayCountBasis:      dates.ParseDayCountBasis(def.InterestChange.DayCountBasis),
			DaysInYear:         def.InterestChange.DaysInYear,
			EffectiveFrequency: dates.ParseFrequency(def.InterestChange.EffectiveFrequency),
			InterestFrequency:  dates.ParseFrequency(def.InterestChange.InterestFrequency),
			RoundBalance:       decmath.RoundBankers,
		}
		if def.InterestChange.RoundBalance != "" {
			ic.RoundBalance = decmath.ParseRoundType(def.InterestChange.RoundBalance)
		}
		if def.InterestChange.RoundDecimalDigits != "" {
			digits, err := decimal.NewFromString(def.InterestChange.RoundDecimalDigits)
			if err != nil {
				return nil, cashflow.WrapError(cashflow.ErrCashflow, err, "bad round_decimal_digits")
			}
			ic.RoundDecimalDigits = digits
		}
		return ic, nil
	case def.CurrentValue != nil:
		return &cashflow.CurrentValue{
			EOM:     def.CurrentValue.EOM,
			Passive: def.CurrentValue.Passive,
			Present: def.CurrentValue.Present,
		}, nil
	case def.StatisticValue != nil:
		return &cashflow.StatisticValue{
			Name:  def.StatisticValue.Name,
			EOM:   def.StatisticValue.EOM,
			Final: def.StatisticValue.Final,
		}, nil
	}

	// Inline CSV form.
	switch strings.TrimSpace(def.Type) {
	case cashflow.ExtensionPrincipalChange.String():
		return &cashflow.PrincipalChange{PrinType: cashflow.ParsePrincipalType(def.PrinType)}, nil
	case cashflow.ExtensionInterestChange.String():
		return &cashflow.InterestChange{
			Method:        cashflow.ParseInterestMethod(def.Method),
			DayCountBasis: dates.ParseDayCountBasis(def.DayCountBasis),
			DaysInYear:    def.DaysInYear,
			RoundBalance:  decmath.RoundBankers,
		}, nil
	case cashflow.ExtensionStatisticValue.String():
		return &cashflow.StatisticValue{Name: def.EventName}, nil
	case cashflow.ExtensionCurrentValue.String(), "":
		return &cashflow.CurrentValue{}, nil
	}
	return nil, cashflow.NewError(cashflow.ErrCashflow, "unknown event type %q", def.Type)
}

// SaveDefinition writes the definition in TOML form.
func (def *Definition) SaveDefinition(path string) error {
	raw, err := toml.Marshal(def)
	if err != nil {
		return cashflow.WrapError(cashflow.ErrCashflow, err, "cannot marshal definition")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return cashflow.WrapError(cashflow.ErrCashflow, err, "cannot write definition %s", path)
	}
	return nil
}
