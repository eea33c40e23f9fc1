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
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// UnsetIndex marks a BalanceResult cursor that was never assigned.
const UnsetIndex = -1

// BalanceResult aggregates one balance pass over an amortization
// list.
type BalanceResult struct {
	// Interest totals; the Present variants cover rows at or after
	// the present-value marker.
	Interest          decimal.Decimal `json:"interest"`
	InterestPresent   decimal.Decimal `json:"interestPresent"`
	SLInterest        decimal.Decimal `json:"slInterest"`
	SLInterestPresent decimal.Decimal `json:"slInterestPresent"`

	// Principal movement totals.
	PrinIncrease decimal.Decimal `json:"prinIncrease"`
	PrinDecrease decimal.Decimal `json:"prinDecrease"`

	// Auxiliary buckets, split by whether the event was passive.
	AuxActiveIncrease  decimal.Decimal `json:"auxActiveIncrease"`
	AuxActiveDecrease  decimal.Decimal `json:"auxActiveDecrease"`
	AuxPassiveIncrease decimal.Decimal `json:"auxPassiveIncrease"`
	AuxPassiveDecrease decimal.Decimal `json:"auxPassiveDecrease"`

	// Counts of principal-statistic rows, total and from the
	// present-value marker forward.
	PrinTotal   int `json:"prinTotal"`
	PrinPresent int `json:"prinPresent"`

	// Index cursors into the amortization list; UnsetIndex when the
	// corresponding row class never appeared.
	PrinFirstIndex       int `json:"prinFirstIndex"`
	PrinFirstPvIndex     int `json:"prinFirstPvIndex"`
	PrinFirstStatIndex   int `json:"prinFirstStatIndex"`
	PrinFirstStatPvIndex int `json:"prinFirstStatPvIndex"`
	PrinLastIndex        int `json:"prinLastIndex"`
	PrinLastStatIndex    int `json:"prinLastStatIndex"`
	CurFirstPvIndex      int `json:"curFirstPvIndex"`
	IntFirstIndex        int `json:"intFirstIndex"`
	IntLastIndex         int `json:"intLastIndex"`

	Balance     decimal.Decimal `json:"balance"`
	AccBalance  decimal.Decimal `json:"accBalance"`
	BalanceDate dates.Date      `json:"balanceDate"`

	// Polarity is +1 for an asset cashflow, -1 when the first
	// principal row decreases the balance.
	Polarity int `json:"polarity"`

	RuleOf78Seen   bool `json:"ruleOf78Seen"`
	AccBalanceSeen bool `json:"accBalanceSeen"`
	CvPresentSeen  bool `json:"cvPresentSeen"`
}

// NewBalanceResult returns a result with every cursor unset and
// positive polarity.
func NewBalanceResult() *BalanceResult {
	return &BalanceResult{
		PrinFirstIndex:       UnsetIndex,
		PrinFirstPvIndex:     UnsetIndex,
		PrinFirstStatIndex:   UnsetIndex,
		PrinFirstStatPvIndex: UnsetIndex,
		PrinLastIndex:        UnsetIndex,
		PrinLastStatIndex:    UnsetIndex,
		CurFirstPvIndex:      UnsetIndex,
		IntFirstIndex:        UnsetIndex,
		IntLastIndex:         UnsetIndex,
		Polarity:             1,
	}
}

// FinalBalance folds the accrued balance into the running balance,
// signed to match it.
func (result *BalanceResult) FinalBalance() decimal.Decimal {
	if result.Balance.Sign() < 0 {
		return result.Balance.Sub(result.AccBalance)
	}
	return result.Balance.Add(result.AccBalance)
}

// MarshalZerologObject logs the headline aggregates.
func (result *BalanceResult) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Balance", result.Balance.String())
	e.Str("AccBalance", result.AccBalance.String())
	e.Str("Interest", result.Interest.String())
	e.Str("BalanceDate", result.BalanceDate.String())
	e.Int("Polarity", result.Polarity)
	e.Int("PrinTotal", result.PrinTotal)
}
