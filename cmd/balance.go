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
	"fmt"

	"github.com/penny-vault/pvcashflow/cashflow"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// balanceCmd represents the balance command
var balanceCmd = &cobra.Command{
	Use:   "balance <cashflow>",
	Short: "Expand and balance a cashflow, printing its schedule",
	Long: `Balance expands the cashflow's event list into an amortization
schedule and walks it in order: compounding or accruing interest under
the active day-count basis, applying principal changes, and carrying
running and accrued balances. The cashflow argument is either a path
to a TOML definition file or the slug of a cashflow saved in the
library.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		eng, cf := loadCashflow(ctx, args[0])

		result, err := eng.BalanceCashflow()
		if err != nil {
			log.Fatal().Err(err).Str("Cashflow", args[0]).Msg("balance failed")
		}

		fmt.Println(renderSchedule(cf.AmList))
		fmt.Printf("balance: %s  accrued: %s  interest: %s  polarity: %+d\n",
			result.Balance.StringFixed(2), result.AccBalance.StringFixed(2),
			result.Interest.StringFixed(2), result.Polarity)

		stats := cashflow.DeriveStatistics(cf.Events, cf.AmList, result)
		log.Info().Object("Statistics", stats).Str("Cashflow", cf.Name).Msg("cashflow balanced")

		if viper.GetBool("balance.save") {
			def := loadDefinition(ctx, args[0])
			saveToLibrary(ctx, def, cf)
		}
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().Bool("save", false, "save the definition and schedule to the library")
	if err := viper.BindPFlag("balance.save", balanceCmd.Flags().Lookup("save")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for save failed")
	}
}
