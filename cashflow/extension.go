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
	"github.com/penny-vault/pvcashflow/dates"
	"github.com/penny-vault/pvcashflow/decmath"
	"github.com/shopspring/decimal"
)

// ExtensionType identifies the concrete shape of an event extension.
// The numeric order is the tie-break order used when two rows share a
// date: current values report first, rate changes apply before
// principal moves, statistics trail.
type ExtensionType int

const (
	ExtensionCurrentValue ExtensionType = iota
	ExtensionInterestChange
	ExtensionPrincipalChange
	ExtensionStatisticValue
)

var extensionNames = map[ExtensionType]string{
	ExtensionCurrentValue:    "current-value",
	ExtensionInterestChange:  "interest-change",
	ExtensionPrincipalChange: "principal-change",
	ExtensionStatisticValue:  "statistic-value",
}

func (et ExtensionType) String() string {
	if name, ok := extensionNames[et]; ok {
		return name
	}
	return "current-value"
}

// PrincipalType selects how a principal-change event moves the
// balance.
type PrincipalType int

const (
	// PrincipalIncrease adds the event value to the balance.
	PrincipalIncrease PrincipalType = iota
	// PrincipalDecrease subtracts the event value from the balance.
	PrincipalDecrease
	// PrincipalPositive sets the balance to the event value.
	PrincipalPositive
	// PrincipalNegative sets the balance to the negated event value.
	PrincipalNegative
)

var principalNames = map[PrincipalType]string{
	PrincipalIncrease: "increase",
	PrincipalDecrease: "decrease",
	PrincipalPositive: "positive",
	PrincipalNegative: "negative",
}

func (pt PrincipalType) String() string {
	if name, ok := principalNames[pt]; ok {
		return name
	}
	return "increase"
}

// ParsePrincipalType converts a principal-type name to its value.
func ParsePrincipalType(name string) PrincipalType {
	for pt, ptName := range principalNames {
		if ptName == name {
			return pt
		}
	}
	return PrincipalIncrease
}

// MarshalText implements encoding.TextMarshaler.
func (pt PrincipalType) MarshalText() ([]byte, error) {
	return []byte(pt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (pt *PrincipalType) UnmarshalText(text []byte) error {
	*pt = ParsePrincipalType(string(text))
	return nil
}

// InterestMethod selects whether interest compounds into the balance
// or accrues into a separate accrued balance.
type InterestMethod int

const (
	// MethodActuarial compounds interest on the running balance.
	MethodActuarial InterestMethod = iota
	// MethodSimpleInterest accrues interest into AccBalance without
	// compounding.
	MethodSimpleInterest
)

func (im InterestMethod) String() string {
	if im == MethodSimpleInterest {
		return "simple-interest"
	}
	return "actuarial"
}

// ParseInterestMethod converts a method name to its value.
func ParseInterestMethod(name string) InterestMethod {
	if name == "simple-interest" {
		return MethodSimpleInterest
	}
	return MethodActuarial
}

// MarshalText implements encoding.TextMarshaler.
func (im InterestMethod) MarshalText() ([]byte, error) {
	return []byte(im.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (im *InterestMethod) UnmarshalText(text []byte) error {
	*im = ParseInterestMethod(string(text))
	return nil
}

// Extension is the tagged variant attached to every event. Transforms
// treat extensions opaquely except when merging same-kind rows.
type Extension interface {
	Kind() ExtensionType
	Clone() Extension
	// Equal reports whether two extensions carry identical attributes;
	// used when deciding whether same-date rows can merge.
	Equal(other Extension) bool
}

// PrincipalChange adjusts the running principal balance.
type PrincipalChange struct {
	PrinType PrincipalType `json:"type" toml:"type"`
	EOM      bool          `json:"eom" toml:"eom"`
	// PrincipalFirst applies the principal movement before absorbing
	// any accrued interest.
	PrincipalFirst bool `json:"principalFirst" toml:"principal_first"`
	// BalanceStatistics marks the row as a member of the principal
	// statistic population (payments, for Rule of 78 weighting).
	BalanceStatistics bool `json:"balanceStatistics" toml:"balance_statistics"`
	Auxiliary         bool `json:"auxiliary" toml:"auxiliary"`
	AuxPassive        bool `json:"auxPassive" toml:"aux_passive"`
}

func (pc *PrincipalChange) Kind() ExtensionType { return ExtensionPrincipalChange }

func (pc *PrincipalChange) Clone() Extension {
	clone := *pc
	return &clone
}

func (pc *PrincipalChange) Equal(other Extension) bool {
	otherPc, ok := other.(*PrincipalChange)
	return ok && *pc == *otherPc
}

// InterestChange installs a new rate and accrual configuration from
// its date forward.
type InterestChange struct {
	Method        InterestMethod      `json:"method" toml:"method"`
	DayCountBasis dates.DayCountBasis `json:"dayCountBasis" toml:"day_count_basis"`
	DaysInYear    int                 `json:"daysInYear" toml:"days_in_year"`
	// EffectiveFrequency, when set, is the compounding frequency the
	// quoted rate is effective at; the engine translates it to the
	// schedule frequency.
	EffectiveFrequency dates.Frequency `json:"effectiveFrequency" toml:"effective_frequency"`
	// InterestFrequency overrides the event frequency for sub-period
	// compounding.
	InterestFrequency  dates.Frequency   `json:"interestFrequency" toml:"interest_frequency"`
	RoundBalance       decmath.RoundType `json:"roundBalance" toml:"round_balance"`
	RoundDecimalDigits decimal.Decimal   `json:"roundDecimalDigits" toml:"round_decimal_digits"`
}

func (ic *InterestChange) Kind() ExtensionType { return ExtensionInterestChange }

func (ic *InterestChange) Clone() Extension {
	clone := *ic
	return &clone
}

func (ic *InterestChange) Equal(other Extension) bool {
	otherIc, ok := other.(*InterestChange)
	if !ok {
		return false
	}
	return ic.Method == otherIc.Method &&
		ic.DayCountBasis == otherIc.DayCountBasis &&
		ic.DaysInYear == otherIc.DaysInYear &&
		ic.EffectiveFrequency == otherIc.EffectiveFrequency &&
		ic.InterestFrequency == otherIc.InterestFrequency &&
		ic.RoundBalance == otherIc.RoundBalance &&
		ic.RoundDecimalDigits.Equal(otherIc.RoundDecimalDigits)
}

// CurrentValue observes the balance for reporting; passive
// observations leave the running state untouched.
type CurrentValue struct {
	EOM     bool `json:"eom" toml:"eom"`
	Passive bool `json:"passive" toml:"passive"`
	// Present marks the row as the present-value anchor of the
	// schedule.
	Present bool `json:"present" toml:"present"`
}

func (cv *CurrentValue) Kind() ExtensionType { return ExtensionCurrentValue }

func (cv *CurrentValue) Clone() Extension {
	clone := *cv
	return &clone
}

func (cv *CurrentValue) Equal(other Extension) bool {
	otherCv, ok := other.(*CurrentValue)
	return ok && *cv == *otherCv
}

// StatisticValue opens, refreshes, or (when Final) closes a named
// statistic accumulator.
type StatisticValue struct {
	Name  string `json:"name" toml:"name"`
	EOM   bool   `json:"eom" toml:"eom"`
	Final bool   `json:"final" toml:"final"`
}

func (sv *StatisticValue) Kind() ExtensionType { return ExtensionStatisticValue }

func (sv *StatisticValue) Clone() Extension {
	clone := *sv
	return &clone
}

func (sv *StatisticValue) Equal(other Extension) bool {
	otherSv, ok := other.(*StatisticValue)
	return ok && *sv == *otherSv
}
