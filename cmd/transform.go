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
	"github.com/penny-vault/pvcashflow/engine"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// transformCmd represents the transform command
var transformCmd = &cobra.Command{
	Use:   "transform <operation> <cashflow> [cashflow2]",
	Short: "Combine, merge, split, or carve a cashflow at its present value",
	Long: `Transform builds a new cashflow from one or two existing ones:

    combine    merge two amortization schedules row-by-row
    merge      merge two event lists
    split      split recurring principal events where other events interrupt
    carve      keep the rows before (or after) the present-value marker

combine and merge require a second cashflow argument. The result is
balanced and printed; use --name to control the new cashflow's name.`,
	Args: cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		operation := args[0]
		eng, cf := loadCashflow(ctx, args[1])

		newName := viper.GetString("transform.name")
		if newName == "" {
			newName = cf.Name + "-" + operation
		}
		newGroup := viper.GetString("transform.group")

		var (
			result *cashflow.BalanceResult
			err    error
		)

		switch operation {
		case "combine", "merge":
			if len(args) < 3 {
				log.Fatal().Str("Operation", operation).Msg("a second cashflow argument is required")
			}
			def2 := loadDefinition(ctx, args[2])
			if _, err := eng.AddDefinition(def2); err != nil {
				log.Fatal().Err(err).Msg("could not build second cashflow")
			}
			if _, err := eng.SelectCashflow(cf.Name); err != nil {
				log.Fatal().Err(err).Msg("could not re-select first cashflow")
			}
			if operation == "combine" {
				result, err = eng.CombineCashflow(def2.Name, newName, newGroup)
			} else {
				action := engine.InterestAll
				switch viper.GetString("transform.interest") {
				case "left":
					action = engine.InterestLeft
				case "right":
					action = engine.InterestRight
				case "none":
					action = engine.InterestNone
				}
				result, err = eng.MergeCashflow(def2.Name, newName, newGroup, action)
			}
		case "split":
			result, err = eng.SplitCashflow(viper.GetBool("transform.all"))
		case "carve":
			result, err = eng.TransformCashflow(newName, newGroup,
				viper.GetBool("transform.after"), viper.GetBool("transform.omitInterest"))
		default:
			log.Fatal().Str("Operation", operation).Msg("unknown transform operation")
		}

		if err != nil {
			log.Fatal().Err(err).Str("Operation", operation).Msg("transform failed")
		}

		current, cfErr := eng.Current()
		if cfErr != nil {
			log.Fatal().Err(cfErr).Msg("transform produced no cashflow")
		}
		fmt.Println(renderSchedule(current.AmList))
		fmt.Printf("balance: %s  interest: %s\n",
			result.Balance.StringFixed(2), result.Interest.StringFixed(2))
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().String("name", "", "name for the transformed cashflow")
	if err := viper.BindPFlag("transform.name", transformCmd.Flags().Lookup("name")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for name failed")
	}
	transformCmd.Flags().String("group", "", "group for the transformed cashflow")
	if err := viper.BindPFlag("transform.group", transformCmd.Flags().Lookup("group")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for group failed")
	}
	transformCmd.Flags().String("interest", "all", "interest events kept by merge: all, left, right, none")
	if err := viper.BindPFlag("transform.interest", transformCmd.Flags().Lookup("interest")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for interest failed")
	}
	transformCmd.Flags().Bool("all", false, "split every recurring principal event, not just the selected one")
	if err := viper.BindPFlag("transform.all", transformCmd.Flags().Lookup("all")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for all failed")
	}
	transformCmd.Flags().Bool("after", false, "carve keeps rows after the present-value marker")
	if err := viper.BindPFlag("transform.after", transformCmd.Flags().Lookup("after")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for after failed")
	}
	transformCmd.Flags().Bool("omitInterest", false, "carve drops interest-change events")
	if err := viper.BindPFlag("transform.omitInterest", transformCmd.Flags().Lookup("omitInterest")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for omitInterest failed")
	}
}
