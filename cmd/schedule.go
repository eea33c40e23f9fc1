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
	"os"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// scheduleRow is the CSV export form of one output row.
type scheduleRow struct {
	EventDate  string `csv:"event_date"`
	Type       string `csv:"type"`
	Rollup     bool   `csv:"rollup"`
	Value      string `csv:"value"`
	Interest   string `csv:"interest"`
	SLInterest string `csv:"sl_interest"`
	AccBalance string `csv:"acc_balance"`
	Balance    string `csv:"balance"`
}

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule <cashflow>",
	Short: "Produce the reporting schedule with rollup rows",
	Long: `Schedule balances the cashflow and emits the reporting view of
its amortization list: runs of identical, periodically spaced rows are
compressed into single rollup rows. Details can be kept alongside the
rollups, and the result can be exported as CSV.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		eng, _ := loadCashflow(ctx, args[0])

		if _, err := eng.BalanceCashflow(); err != nil {
			log.Fatal().Err(err).Msg("balance failed")
		}

		output, err := eng.CreateCashflowOutput(
			viper.GetBool("schedule.rollups"),
			viper.GetBool("schedule.details"),
			viper.GetBool("schedule.compressDescriptors"),
			viper.GetBool("schedule.omitStatistics"),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create schedule output")
		}

		if csvPath := viper.GetString("schedule.csv"); csvPath != "" {
			rows := make([]*scheduleRow, 0, output.Count())
			for _, row := range output.Rows() {
				rows = append(rows, &scheduleRow{
					EventDate:  row.EventDate.String(),
					Type:       row.ExtensionType().String(),
					Rollup:     row.Rollup,
					Value:      row.Value.String(),
					Interest:   row.Interest.String(),
					SLInterest: row.SLInterest.String(),
					AccBalance: row.AccBalance.String(),
					Balance:    row.Balance.String(),
				})
			}

			fh, err := os.Create(csvPath)
			if err != nil {
				log.Fatal().Err(err).Str("Path", csvPath).Msg("could not create csv file")
			}
			defer fh.Close()

			if err := gocsv.MarshalFile(&rows, fh); err != nil {
				log.Fatal().Err(err).Msg("could not write csv file")
			}
			log.Info().Str("Path", csvPath).Int("Rows", len(rows)).Msg("wrote schedule csv")
			return
		}

		fmt.Println(renderSchedule(output))
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().Bool("rollups", true, "compress periodic runs into rollup rows")
	if err := viper.BindPFlag("schedule.rollups", scheduleCmd.Flags().Lookup("rollups")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for rollups failed")
	}
	scheduleCmd.Flags().Bool("details", false, "emit detail rows after each rollup")
	if err := viper.BindPFlag("schedule.details", scheduleCmd.Flags().Lookup("details")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for details failed")
	}
	scheduleCmd.Flags().Bool("compressDescriptors", false, "ignore descriptors when matching rollup runs")
	if err := viper.BindPFlag("schedule.compressDescriptors", scheduleCmd.Flags().Lookup("compressDescriptors")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for compressDescriptors failed")
	}
	scheduleCmd.Flags().Bool("omitStatistics", false, "drop statistic events from the output")
	if err := viper.BindPFlag("schedule.omitStatistics", scheduleCmd.Flags().Lookup("omitStatistics")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for omitStatistics failed")
	}
	scheduleCmd.Flags().String("csv", "", "write the schedule to a CSV file instead of the terminal")
	if err := viper.BindPFlag("schedule.csv", scheduleCmd.Flags().Lookup("csv")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for csv failed")
	}
}
