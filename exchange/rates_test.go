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
package exchange

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestConvert(t *testing.T) {
	table := NewRateTable("USD")
	table.Set("USD", "EUR", decimal.RequireFromString("0.9"))

	got := table.Convert(decimal.RequireFromString("100"), "USD", "EUR")
	if !got.Equal(decimal.RequireFromString("90")) {
		t.Errorf("direct conversion = %s, want 90", got.String())
	}

	// inverse pair fallback
	got = table.Convert(decimal.RequireFromString("90"), "EUR", "USD")
	if !got.Equal(decimal.RequireFromString("100")) {
		t.Errorf("inverse conversion = %s, want 100", got.String())
	}

	// identical currencies convert at par
	got = table.Convert(decimal.RequireFromString("55"), "USD", "USD")
	if !got.Equal(decimal.RequireFromString("55")) {
		t.Errorf("par conversion = %s, want 55", got.String())
	}

	// missing pairs convert at par rather than failing
	got = table.Convert(decimal.RequireFromString("10"), "USD", "GBP")
	if !got.Equal(decimal.RequireFromString("10")) {
		t.Errorf("missing pair conversion = %s, want 10", got.String())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.json")
	raw := `{"base": "USD", "rates": {"USD/EUR": "0.9", "USD/JPY": "155.2"}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if table.Base != "USD" {
		t.Errorf("base = %q, want USD", table.Base)
	}
	if len(table.Rates) != 2 {
		t.Errorf("loaded %d rates, want 2", len(table.Rates))
	}
	got := table.Convert(decimal.New(2, 0), "USD", "JPY")
	if !got.Equal(decimal.RequireFromString("310.4")) {
		t.Errorf("loaded-table conversion = %s, want 310.4", got.String())
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
