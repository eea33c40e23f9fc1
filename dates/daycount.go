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

// DayCountBasis selects how the fraction of a year between two dates
// is measured when accruing interest.
type DayCountBasis int

const (
	BasisPeriodic DayCountBasis = iota
	BasisRuleOf78
	BasisActualActual
	BasisActual365
	BasisActual360
	Basis30360
	Basis30E360
)

var basisNames = map[DayCountBasis]string{
	BasisPeriodic:     "periodic",
	BasisRuleOf78:     "rule-of-78",
	BasisActualActual: "actual-actual",
	BasisActual365:    "actual-365",
	BasisActual360:    "actual-360",
	Basis30360:        "30-360",
	Basis30E360:       "30e-360",
}

func (basis DayCountBasis) String() string {
	if name, ok := basisNames[basis]; ok {
		return name
	}
	return "periodic"
}

// ParseDayCountBasis converts a basis name to its enumerated value.
// Unknown names map to BasisPeriodic.
func ParseDayCountBasis(name string) DayCountBasis {
	for basis, basisName := range basisNames {
		if basisName == name {
			return basis
		}
	}
	return BasisPeriodic
}

// MarshalText implements encoding.TextMarshaler.
func (basis DayCountBasis) MarshalText() ([]byte, error) {
	return []byte(basis.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (basis *DayCountBasis) UnmarshalText(text []byte) error {
	*basis = ParseDayCountBasis(string(text))
	return nil
}

// DayCountFactor returns the fraction of a year between two day
// serials under the given basis. Periodic bases (including Rule of
// 78) always count one unit per period regardless of the actual days
// elapsed; the remaining bases measure days against the year length.
func DayCountFactor(serialFrom, serialTo int, basis DayCountBasis, daysInYear, periodsInYear int) decimal.Decimal {
	switch basis {
	case BasisPeriodic, BasisRuleOf78:
		return decimal.New(1, 0).Div(decimal.NewFromInt(int64(periodsInYear)))
	case BasisActual365:
		return decimal.NewFromInt(int64(serialTo - serialFrom)).Div(decimal.NewFromInt(365))
	case BasisActual360:
		return decimal.NewFromInt(int64(serialTo - serialFrom)).Div(decimal.NewFromInt(360))
	case Basis30360, Basis30E360:
		days := days30360(SerialToDate(serialFrom), SerialToDate(serialTo), basis == Basis30E360)
		return decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(360))
	}
	return decimal.NewFromInt(int64(serialTo - serialFrom)).Div(decimal.NewFromInt(int64(daysInYear)))
}

// days30360 counts days between two dates under the 30/360 bond
// convention (or the European 30E/360 variant).
func days30360(from, to Date, european bool) int {
	d1 := from.Day()
	d2 := to.Day()

	if european {
		if d1 == 31 {
			d1 = 30
		}
		if d2 == 31 {
			d2 = 30
		}
	} else {
		if d1 == 31 || (from.Month() == 2 && from.EndOfMonth()) {
			d1 = 30
		}
		if d2 == 31 && d1 == 30 {
			d2 = 30
		}
	}

	return (to.Year()-from.Year())*360 + (to.Month()-from.Month())*30 + d2 - d1
}
