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
package dates

import (
	"testing"

	"github.com/shopspring/decimal"
)

func approxEqual(t *testing.T, got, want decimal.Decimal, tolerance string, label string) {
	t.Helper()
	tol := decimal.RequireFromString(tolerance)
	if got.Sub(want).Abs().GreaterThan(tol) {
		t.Errorf("%s = %s, want %s (±%s)", label, got.String(), want.String(), tolerance)
	}
}

func TestNominalToEffectiveMonthly(t *testing.T) {
	nominal := decimal.RequireFromString("0.06")
	effective := NominalToEffective(nominal, Frequency1Month, 365)
	// (1 + 0.06/12)^12 - 1 = 0.0616778...
	approxEqual(t, effective, decimal.RequireFromString("0.061677811864497"), "0.000000001", "effective")
}

func TestEffectiveToNominalRoundTrip(t *testing.T) {
	for _, freq := range []Frequency{Frequency1Year, Frequency6Months, Frequency3Months, Frequency1Month} {
		nominal := decimal.RequireFromString("0.075")
		effective := NominalToEffective(nominal, freq, 365)
		back := EffectiveToNominal(effective, freq, 365)
		approxEqual(t, back, nominal, "0.0000000001", "nominal round trip "+freq.String())
	}
}

func TestContinuousConversions(t *testing.T) {
	nominal := decimal.RequireFromString("0.05")
	effective := NominalToEffective(nominal, FrequencyContinuous, 365)
	// e^0.05 - 1
	approxEqual(t, effective, decimal.RequireFromString("0.051271096376024"), "0.000000001", "continuous effective")

	back := EffectiveToNominal(effective, FrequencyContinuous, 365)
	approxEqual(t, back, nominal, "0.0000000001", "continuous nominal")
}

func TestNominalToPeriodic(t *testing.T) {
	nominal := decimal.RequireFromString("0.06")
	periodic := NominalToPeriodic(nominal, Frequency1Month, 365)
	approxEqual(t, periodic, decimal.RequireFromString("0.005"), "0.0000000001", "periodic")

	back := PeriodicToNominal(periodic, Frequency1Month, 365)
	approxEqual(t, back, nominal, "0.0000000001", "periodic round trip")
}

func TestDailyConversions(t *testing.T) {
	nominal := decimal.RequireFromString("0.0365")
	daily := NominalToDaily(nominal, 365)
	approxEqual(t, daily, decimal.RequireFromString("0.0001"), "0.0000000001", "daily")
	approxEqual(t, DailyToNominal(daily, 365), nominal, "0.0000000001", "daily round trip")
}

func TestConvertEffectiveIdentity(t *testing.T) {
	rate := decimal.RequireFromString("0.08")
	if got := ConvertEffective(rate, FrequencyNone, Frequency1Month, 365); !got.Equal(rate) {
		t.Errorf("unset effective frequency should not change the rate, got %s", got.String())
	}
	if got := ConvertEffective(rate, Frequency1Month, Frequency1Month, 365); !got.Equal(rate) {
		t.Errorf("matching frequencies should not change the rate, got %s", got.String())
	}
}

func TestConvertEffectiveAnnualToMonthly(t *testing.T) {
	// A rate effective annually restated as a monthly-compounded
	// nominal must reproduce the same annual growth.
	rate := decimal.RequireFromString("0.06")
	monthly := ConvertEffective(rate, Frequency1Year, Frequency1Month, 365)
	annual := NominalToEffective(monthly, Frequency1Month, 365)
	approxEqual(t, annual, rate, "0.0000000001", "restated annual growth")
}
