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

// Statistics is the summary block derived after a balance pass; it
// feeds library summaries and the CLI info display.
type Statistics struct {
	EventCount        int             `json:"eventCount"`
	AmortizationCount int             `json:"amortizationCount"`
	FirstDate         dates.Date      `json:"firstDate"`
	LastDate          dates.Date      `json:"lastDate"`
	Interest          decimal.Decimal `json:"interest"`
	SLInterest        decimal.Decimal `json:"slInterest"`
	PrinIncrease      decimal.Decimal `json:"prinIncrease"`
	PrinDecrease      decimal.Decimal `json:"prinDecrease"`
	Balance           decimal.Decimal `json:"balance"`
}

// DeriveStatistics summarizes a balanced cashflow.
func DeriveStatistics(events *EventList, amList *AmortizationList, result *BalanceResult) Statistics {
	stats := Statistics{}
	if events != nil {
		stats.EventCount = events.Count()
		if events.Count() > 0 {
			stats.FirstDate = events.Events()[0].EventDate
		}
		stats.LastDate = events.LastDate()
	}
	if amList != nil {
		stats.AmortizationCount = amList.Count()
		if rows := amList.Rows(); len(rows) > 0 {
			stats.LastDate = rows[len(rows)-1].EventDate
		}
	}
	if result != nil {
		stats.Interest = result.Interest
		stats.SLInterest = result.SLInterest
		stats.PrinIncrease = result.PrinIncrease
		stats.PrinDecrease = result.PrinDecrease
		stats.Balance = result.Balance
	}
	return stats
}

// MarshalZerologObject logs the summary block.
func (stats Statistics) MarshalZerologObject(e *zerolog.Event) {
	e.Int("EventCount", stats.EventCount)
	e.Int("AmortizationCount", stats.AmortizationCount)
	e.Str("Interest", stats.Interest.String())
	e.Str("Balance", stats.Balance.String())
}
