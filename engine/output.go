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
)

// CreateCashflowOutput builds the reporting schedule for the selected
// cashflow. Runs of structurally identical, periodically spaced rows
// collapse into single rollup rows; details follow their rollup when
// requested.
func (eng *CalcEngine) CreateCashflowOutput(includeRollups, includeDetails, compressDescriptor, omitStatisticEvents bool) (*cashflow.AmortizationList, error) {
	cf, err := eng.Current()
	if err != nil {
		return nil, err
	}
	if err := eng.ensureBalanced(cf); err != nil {
		return nil, err
	}

	output := cashflow.NewAmortizationList()
	rows := cf.AmList.Rows()

	i := 0
	for i < len(rows) {
		row := rows[i]
		if omitStatisticEvents && row.ExtensionType() == cashflow.ExtensionStatisticValue {
			i++
			continue
		}

		runEnd := i
		if includeRollups {
			for runEnd+1 < len(rows) && rollupCompatible(rows[runEnd], rows[runEnd+1], compressDescriptor) {
				runEnd++
			}
		}

		if runEnd > i {
			rollup := row.Clone()
			rollup.Rollup = true
			for k := i + 1; k <= runEnd; k++ {
				next := rows[k]
				rollup.Interest = rollup.Interest.Add(next.Interest)
				rollup.SLInterest = rollup.SLInterest.Add(next.SLInterest)
				rollup.ValueToInterest = rollup.ValueToInterest.Add(next.ValueToInterest)
				rollup.ValueToPrincipal = rollup.ValueToPrincipal.Add(next.ValueToPrincipal)
				rollup.PrincipalIncrease = rollup.PrincipalIncrease.Add(next.PrincipalIncrease)
				rollup.PrincipalDecrease = rollup.PrincipalDecrease.Add(next.PrincipalDecrease)
			}
			rollup.AccBalance = rows[runEnd].AccBalance
			rollup.Balance = rows[runEnd].Balance
			output.Add(rollup)

			if includeDetails {
				for k := i; k <= runEnd; k++ {
					output.Add(rows[k].Clone())
				}
			}
		} else {
			output.Add(row.Clone())
		}
		i = runEnd + 1
	}

	return output, nil
}

// rollupCompatible reports whether next continues a rollup run begun
// by row: same shape, same values, and spaced exactly one frequency
// step apart.
func rollupCompatible(row, next *cashflow.AmortizationRow, compressDescriptor bool) bool {
	if row.ExtensionType() != next.ExtensionType() {
		return false
	}
	if row.Extension != nil && !row.Extension.Equal(next.Extension) {
		return false
	}
	if row.ValueExpr != next.ValueExpr || row.ValueExprBalance != next.ValueExprBalance {
		return false
	}
	if row.ValueExpr == "" && !row.Value.Equal(next.Value) {
		return false
	}
	if row.Intervals != next.Intervals || row.Frequency != next.Frequency {
		return false
	}
	if !compressDescriptor && !descriptorsEqual(row.Descriptors, next.Descriptors) {
		return false
	}

	origDate := row.OrigDate
	if origDate == 0 {
		origDate = row.EventDate
	}
	expected := dates.AdvanceDate(origDate, row.EventDate, row.Frequency, row.Intervals, row.EOM)
	return next.EventDate == expected
}

func descriptorsEqual(a, b []cashflow.Descriptor) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
