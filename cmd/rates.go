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
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/penny-vault/pvcashflow/exchange"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ratesCmd represents the rates command
var ratesCmd = &cobra.Command{
	Use:   "rates [source]",
	Short: "Load and inspect the exchange-rate table",
	Long: `Rates loads the exchange-rate table the engine consults when a
cashflow mixes currencies. The source is a JSON file path or an HTTP
URL; without an argument the exchange.url configuration setting is
used. With --convert the loaded table converts a single amount.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		source := viper.GetString("exchange.url")
		if len(args) > 0 {
			source = args[0]
		}
		if source == "" {
			log.Fatal().Msg("no rate source given and exchange.url is not configured")
		}

		var (
			table *exchange.RateTable
			err   error
		)
		if _, statErr := os.Stat(source); statErr == nil {
			table, err = exchange.LoadFile(source)
		} else {
			table, err = exchange.Fetch(source)
		}
		if err != nil {
			log.Fatal().Err(err).Str("Source", source).Msg("could not load exchange rates")
		}

		if convert := viper.GetString("exchange.convert"); convert != "" {
			amount, err := decimal.NewFromString(convert)
			if err != nil {
				log.Fatal().Err(err).Str("Amount", convert).Msg("bad conversion amount")
			}
			from := viper.GetString("exchange.from")
			to := viper.GetString("exchange.to")
			result := table.Convert(amount, from, to)
			fmt.Printf("%s %s = %s %s\n", amount.String(), from, result.StringFixed(4), to)
			return
		}

		pairs := make([]string, 0, len(table.Rates))
		for pair := range table.Rates {
			pairs = append(pairs, pair)
		}
		sort.Strings(pairs)
		fmt.Printf("base: %s\n", table.Base)
		for _, pair := range pairs {
			fmt.Printf("  %s %s\n", strings.TrimSpace(pair), table.Rates[pair].String())
		}
	},
}

func init() {
	rootCmd.AddCommand(ratesCmd)

	ratesCmd.Flags().String("convert", "", "amount to convert using the loaded table")
	if err := viper.BindPFlag("exchange.convert", ratesCmd.Flags().Lookup("convert")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for convert failed")
	}
	ratesCmd.Flags().String("from", "USD", "source currency for --convert")
	if err := viper.BindPFlag("exchange.from", ratesCmd.Flags().Lookup("from")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for from failed")
	}
	ratesCmd.Flags().String("to", "EUR", "target currency for --convert")
	if err := viper.BindPFlag("exchange.to", ratesCmd.Flags().Lookup("to")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for to failed")
	}
}
