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
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/penny-vault/pvcashflow/cashflow"
	"github.com/penny-vault/pvcashflow/engine"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// calculateCmd represents the calculate command
var calculateCmd = &cobra.Command{
	Use:   "calculate <cashflow> [target]",
	Short: "Solve for an unknown value, rate, period count, or yield",
	Long: `Calculate runs one of the engine's root finders against a
cashflow so its terminal balance lands on the target (0 by default):

    value    solve the selected event's value (principal amount, or
             rate when an interest-change event is selected)
    periods  solve the selected event's period count
    yield    solve the rate applied across every interest event (APR)

Select the event to solve with --event (index into the sorted event
list) or interactively with --interactive.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		eng, cf := loadCashflow(ctx, args[0])

		target := decimal.Zero
		if len(args) > 1 {
			parsed, err := decimal.NewFromString(args[1])
			if err != nil {
				log.Fatal().Err(err).Str("Target", args[1]).Msg("bad target value")
			}
			target = parsed
		}

		mode := viper.GetString("calculate.mode")
		eventIndex := viper.GetInt("calculate.event")

		if viper.GetBool("calculate.interactive") {
			mode, eventIndex = calculateWizard(cf)
		}

		if eventIndex >= 0 {
			if err := cf.Events.SetCurrent(eventIndex); err != nil {
				log.Fatal().Err(err).Int("Event", eventIndex).Msg("cannot select event")
			}
		}

		var (
			result *cashflow.BalanceResult
			err    error
		)
		switch mode {
		case "periods":
			result, err = eng.CalculatePeriods(target)
		case "yield":
			result, err = eng.CalculateYield(target)
		default:
			result, err = eng.CalculateValue(target)
		}
		if err != nil {
			log.Fatal().Err(err).Str("Mode", mode).Msg("calculation failed")
		}

		ev, evErr := cf.Events.Current()
		if evErr == nil {
			fmt.Printf("solved %s: value=%s periods=%d\n", mode, ev.Value.String(), ev.Periods)
		}
		fmt.Println(renderSchedule(cf.AmList))
		fmt.Printf("balance: %s  accrued: %s  interest: %s\n",
			result.Balance.StringFixed(2), result.AccBalance.StringFixed(2),
			result.Interest.StringFixed(2))
	},
}

// calculateWizard walks the user through mode and event selection.
func calculateWizard(cf *engine.Cashflow) (string, int) {
	mode := "value"
	eventChoice := "0"

	eventOptions := make([]huh.Option[string], 0, cf.Events.Count())
	for i, ev := range cf.Events.Events() {
		label := fmt.Sprintf("%d: %s %s %s", i, ev.EventDate.String(), ev.ExtensionType().String(), ev.Value.String())
		eventOptions = append(eventOptions, huh.NewOption(label, strconv.Itoa(i)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What do you want to solve for?").
				Options(
					huh.NewOption("event value", "value"),
					huh.NewOption("period count", "periods"),
					huh.NewOption("overall yield", "yield"),
				).
				Value(&mode),
			huh.NewSelect[string]().
				Title("Which event is the unknown?").
				Options(eventOptions...).
				Value(&eventChoice),
		),
	)
	if err := form.Run(); err != nil {
		log.Fatal().Err(err).Msg("error gathering calculation settings")
	}

	index, err := strconv.Atoi(eventChoice)
	if err != nil {
		index = 0
	}
	return mode, index
}

func init() {
	rootCmd.AddCommand(calculateCmd)

	calculateCmd.Flags().String("mode", "value", "what to solve for: value, periods, or yield")
	if err := viper.BindPFlag("calculate.mode", calculateCmd.Flags().Lookup("mode")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for mode failed")
	}
	calculateCmd.Flags().Int("event", -1, "index of the event to solve")
	if err := viper.BindPFlag("calculate.event", calculateCmd.Flags().Lookup("event")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for event failed")
	}
	calculateCmd.Flags().BoolP("interactive", "i", false, "choose the mode and event interactively")
	if err := viper.BindPFlag("calculate.interactive", calculateCmd.Flags().Lookup("interactive")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for interactive failed")
	}
}
