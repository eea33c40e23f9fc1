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
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pvcashflow",
	Short: "pvcashflow computes amortization schedules and cashflow analytics",
	Long: `pv-cashflow is a command line utility for building amortization
schedules from structured event lists and solving the inverse problems
that come up around them: what payment amortizes a loan, what rate a
set of cashflows implies, and how many periods a schedule needs.

Cashflows are described as event lists: principal changes, interest
changes, current-value observations, and statistic markers. The engine
expands recurring events into a flat schedule, accrues compound and
straight-line interest under the configured day-count basis, and
reports running and accrued balances per row. Schedules and their
definitions can be kept in a PostgreSQL library so an analysis is
repeatable.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvcashflow.toml)")
	rootCmd.PersistentFlags().String("dbUrl", "", "database connection string")
	if err := viper.BindPFlag("db.url", rootCmd.PersistentFlags().Lookup("dbUrl")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for dbUrl failed")
	}
	rootCmd.PersistentFlags().Int("decimalDigits", 0, "decimal digits used when rounding monetary values")
	if err := viper.BindPFlag("engine.decimal_digits", rootCmd.PersistentFlags().Lookup("decimalDigits")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for decimalDigits failed")
	}
	rootCmd.PersistentFlags().Int("fiscalYearStart", 0, "fiscal year start as MMDD")
	if err := viper.BindPFlag("engine.fiscal_year_start", rootCmd.PersistentFlags().Lookup("fiscalYearStart")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for fiscalYearStart failed")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pvcashflow" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pvcashflow")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}
