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

// Package exchange maintains the exchange-rate table consulted when a
// cashflow's events are quoted in a different currency than its
// reports. The engine itself never fetches rates; callers load a
// table from a file or URL and hand it in.
package exchange

import (
	"os"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// RateTable maps "FROM/TO" currency pairs to multipliers.
type RateTable struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// NewRateTable returns an empty table with the given base currency.
func NewRateTable(base string) *RateTable {
	return &RateTable{Base: base, Rates: make(map[string]decimal.Decimal)}
}

// Set installs the rate converting one unit of from into to.
func (table *RateTable) Set(from, to string, rate decimal.Decimal) {
	table.Rates[from+"/"+to] = rate
}

// Convert applies the table to a value; identical currencies and
// missing pairs convert at par. Missing direct pairs fall back to the
// inverse pair.
func (table *RateTable) Convert(value decimal.Decimal, from, to string) decimal.Decimal {
	if from == to || table == nil {
		return value
	}
	if rate, ok := table.Rates[from+"/"+to]; ok {
		return value.Mul(rate)
	}
	if inverse, ok := table.Rates[to+"/"+from]; ok && !inverse.IsZero() {
		return value.Div(inverse)
	}
	log.Warn().Str("From", from).Str("To", to).Msg("no exchange rate for currency pair")
	return value
}

// LoadFile reads a rate table from a JSON file.
func LoadFile(path string) (*RateTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var table RateTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, err
	}
	if table.Rates == nil {
		table.Rates = make(map[string]decimal.Decimal)
	}
	return &table, nil
}

// Fetch downloads a rate table from a JSON endpoint.
func Fetch(url string) (*RateTable, error) {
	var table RateTable

	client := resty.New()
	resp, err := client.R().
		SetResult(&table).
		Get(url)
	if err != nil {
		log.Error().Err(err).Str("Url", url).Msg("downloading exchange rates failed")
		return nil, err
	}

	if resp.StatusCode() >= 300 {
		log.Error().Int("StatusCode", resp.StatusCode()).Str("Url", url).Msg("downloading exchange rates returned error status code")
		return nil, os.ErrInvalid
	}

	if table.Rates == nil {
		table.Rates = make(map[string]decimal.Decimal)
	}
	return &table, nil
}
