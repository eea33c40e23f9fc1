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

package cmd

import (
	"context"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/penny-vault/pvcashflow/cashflow"
	"github.com/penny-vault/pvcashflow/engine"
	"github.com/penny-vault/pvcashflow/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// newEngine builds a calculation engine configured from viper.
func newEngine() *engine.CalcEngine {
	eng := engine.New()
	if err := eng.Init(viper.GetString("engine.locale")); err != nil {
		log.Fatal().Err(err).Msg("could not initialize engine")
	}
	if digits := viper.GetInt("engine.decimal_digits"); digits > 0 {
		eng.DecimalDigits = digits
	}
	if fiscal := viper.GetInt("engine.fiscal_year_start"); fiscal > 0 {
		eng.FiscalYearStart = fiscal
	}
	return eng
}

// loadDefinition resolves a cashflow argument: a path to a TOML
// definition file, or the slug of a cashflow stored in the library.
func loadDefinition(ctx context.Context, nameOrPath string) *engine.Definition {
	if _, err := os.Stat(nameOrPath); err == nil {
		def, err := engine.LoadDefinition(nameOrPath)
		if err != nil {
			log.Fatal().Err(err).Str("Path", nameOrPath).Msg("could not load cashflow definition")
		}
		return def
	}

	myLibrary, err := library.NewFromDB(ctx, viper.GetString("db.url"))
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to library")
	}
	defer myLibrary.Close()

	def, err := myLibrary.LoadCashflow(ctx, nameOrPath)
	if err != nil {
		log.Fatal().Err(err).Str("Cashflow", nameOrPath).Msg("cashflow not found on disk or in library")
	}
	return def
}

// loadCashflow materializes a definition into an engine and selects
// it.
func loadCashflow(ctx context.Context, nameOrPath string) (*engine.CalcEngine, *engine.Cashflow) {
	eng := newEngine()
	def := loadDefinition(ctx, nameOrPath)
	cf, err := eng.AddDefinition(def)
	if err != nil {
		log.Fatal().Err(err).Msg("could not build cashflow from definition")
	}
	return eng, cf
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// renderSchedule draws an amortization list as a terminal table.
func renderSchedule(amList *cashflow.AmortizationList) string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == 0 {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers("DATE", "TYPE", "VALUE", "INTEREST", "ACCRUED", "BALANCE")

	for _, row := range amList.Rows() {
		rowType := row.ExtensionType().String()
		if row.Rollup {
			rowType = "rollup"
		}
		tbl.Row(
			row.EventDate.String(),
			rowType,
			row.Value.StringFixed(2),
			row.Interest.StringFixed(2),
			row.AccBalance.StringFixed(2),
			row.Balance.StringFixed(2),
		)
	}

	return tbl.Render()
}

// saveToLibrary persists the definition and (optionally) the balanced
// schedule when a database is configured and --save was requested.
func saveToLibrary(ctx context.Context, def *engine.Definition, cf *engine.Cashflow) {
	dbURL := viper.GetString("db.url")
	if dbURL == "" {
		log.Warn().Msg("no db.url configured; skipping library save")
		return
	}

	myLibrary, err := library.NewFromDB(ctx, dbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to library")
	}
	defer myLibrary.Close()

	if err := myLibrary.SaveCashflow(ctx, def); err != nil {
		log.Fatal().Err(err).Msg("could not save cashflow definition")
	}
	if cf.AmList != nil && cf.LastResult != nil {
		if err := myLibrary.SaveSchedule(ctx, cf.Name, cf.AmList, cf.LastResult); err != nil {
			log.Fatal().Err(err).Msg("could not save schedule")
		}
	}
	log.Info().Str("Cashflow", cf.Name).Msg("saved cashflow to library")
}
