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
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/penny-vault/pvcashflow/engine"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <events.csv>",
	Short: "Import an event CSV as a cashflow definition",
	Long: `Import reads a CSV of events (one row per event, with the
extension selected by the type column) and writes the equivalent TOML
cashflow definition. With --save the definition also lands in the
library.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		fh, err := os.Open(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("Path", args[0]).Msg("could not open csv file")
		}
		defer fh.Close()

		events := []*engine.EventDef{}
		if err := gocsv.UnmarshalFile(fh, &events); err != nil {
			log.Fatal().Err(err).Msg("could not parse event csv")
		}
		if len(events) == 0 {
			log.Fatal().Msg("csv contained no events")
		}

		name := viper.GetString("import.name")
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}

		def := &engine.Definition{
			Name:  name,
			Group: viper.GetString("import.group"),
		}
		for _, ev := range events {
			def.Events = append(def.Events, *ev)
		}

		// Validate the events by materializing the cashflow once.
		eng := newEngine()
		cf, err := eng.AddDefinition(def)
		if err != nil {
			log.Fatal().Err(err).Msg("imported events are not valid")
		}

		outPath := viper.GetString("import.out")
		if outPath == "" {
			outPath = name + ".toml"
		}
		if err := def.SaveDefinition(outPath); err != nil {
			log.Fatal().Err(err).Str("Path", outPath).Msg("could not write definition")
		}
		log.Info().Str("Path", outPath).Int("Events", cf.Events.Count()).Msg("imported cashflow definition")

		if viper.GetBool("import.save") {
			saveToLibrary(ctx, def, cf)
		}
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("name", "", "name for the imported cashflow (default: file name)")
	if err := viper.BindPFlag("import.name", importCmd.Flags().Lookup("name")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for name failed")
	}
	importCmd.Flags().String("group", "", "group for the imported cashflow")
	if err := viper.BindPFlag("import.group", importCmd.Flags().Lookup("group")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for group failed")
	}
	importCmd.Flags().String("out", "", "output path for the TOML definition")
	if err := viper.BindPFlag("import.out", importCmd.Flags().Lookup("out")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for out failed")
	}
	importCmd.Flags().Bool("save", false, "also save the definition to the library")
	if err := viper.BindPFlag("import.save", importCmd.Flags().Lookup("save")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for save failed")
	}
}
