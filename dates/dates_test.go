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

import "testing"

func TestSerialRoundTrip(t *testing.T) {
	cases := []Date{19000101, 19991231, 20000229, 20200101, 20201231, 20210131, 20991231}
	for _, d := range cases {
		serial := d.ToSerial()
		if got := SerialToDate(serial); got != d {
			t.Errorf("round trip %d: serial %d -> %d", d, serial, got)
		}
	}
}

func TestSerialEpoch(t *testing.T) {
	if got := Date(19000101).ToSerial(); got != 1 {
		t.Errorf("expected 1900-01-01 to be serial 1, got %d", got)
	}
	if got := Date(19000102).ToSerial(); got != 2 {
		t.Errorf("expected 1900-01-02 to be serial 2, got %d", got)
	}
}

func TestNewDateRejectsBadFields(t *testing.T) {
	if _, err := NewDate(2020, 13, 1); err == nil {
		t.Error("expected month 13 to be rejected")
	}
	if _, err := NewDate(2021, 2, 29); err == nil {
		t.Error("expected Feb 29 2021 to be rejected")
	}
	if _, err := NewDate(2020, 2, 29); err != nil {
		t.Errorf("expected Feb 29 2020 to be accepted: %v", err)
	}
}

func TestAdvanceDateMonthly(t *testing.T) {
	cases := []struct {
		orig      Date
		current   Date
		freq      Frequency
		intervals int
		eom       bool
		want      Date
	}{
		{20200101, 20200101, Frequency1Month, 1, false, 20200201},
		{20200131, 20200131, Frequency1Month, 1, false, 20200229},
		// the authored day restores once the month is long enough
		{20200131, 20200229, Frequency1Month, 1, false, 20200331},
		{20200131, 20200131, Frequency1Month, 1, true, 20200229},
		{20200430, 20200430, Frequency1Month, 1, true, 20200531},
		{20200115, 20200115, Frequency3Months, 1, false, 20200415},
		{20200101, 20200101, Frequency1Year, 2, false, 20220101},
		{20200101, 20200101, Frequency2Weeks, 1, false, 20200115},
		{20200101, 20200101, Frequency1Week, 2, false, 20200115},
		{20200101, 20200101, Frequency1Day, 31, false, 20200201},
	}
	for _, tc := range cases {
		if got := AdvanceDate(tc.orig, tc.current, tc.freq, tc.intervals, tc.eom); got != tc.want {
			t.Errorf("AdvanceDate(%d, %d, %s, %d, %t) = %d, want %d",
				tc.orig, tc.current, tc.freq, tc.intervals, tc.eom, got, tc.want)
		}
	}
}

func TestAdvanceDateReversible(t *testing.T) {
	freqs := []Frequency{Frequency1Year, Frequency6Months, Frequency3Months,
		Frequency1Month, Frequency2Weeks, Frequency1Week, Frequency1Day}
	start := Date(20200115)
	for _, freq := range freqs {
		for k := 1; k <= 4; k++ {
			forward := AdvanceDateSigned(start, start, freq, k, false)
			back := AdvanceDateSigned(start, forward, freq, -k, false)
			if back != start {
				t.Errorf("freq %s k=%d: %d -> %d -> %d", freq, k, start, forward, back)
			}
		}
	}
}

func TestAdvanceHalfMonth(t *testing.T) {
	got := AdvanceDate(20200101, 20200101, FrequencyHalfMonth, 1, false)
	if got != 20200116 {
		t.Errorf("half-month from 2020-01-01 = %d, want 20200116", got)
	}
	// two half-month steps advance one month
	got = AdvanceDate(20200101, got, FrequencyHalfMonth, 1, false)
	if got != 20200201 {
		t.Errorf("second half-month step = %d, want 20200201", got)
	}
}

func TestIntervalsInYear(t *testing.T) {
	cases := map[Frequency]int{
		Frequency1Year:      1,
		Frequency6Months:    2,
		Frequency4Months:    3,
		Frequency3Months:    4,
		Frequency2Months:    6,
		Frequency1Month:     12,
		FrequencyHalfMonth:  24,
		Frequency4Weeks:     13,
		Frequency2Weeks:     26,
		Frequency1Week:      52,
		Frequency1Day:       365,
		FrequencyContinuous: 365,
	}
	for freq, want := range cases {
		if got := IntervalsInYear(freq, 365); got != want {
			t.Errorf("IntervalsInYear(%s) = %d, want %d", freq, got, want)
		}
	}
}

func TestDayCountFactorPeriodic(t *testing.T) {
	factor := DayCountFactor(1, 500, BasisPeriodic, 360, 12)
	want := "0.0833333333333333"
	if factor.StringFixed(16) != want {
		t.Errorf("periodic factor = %s, want %s", factor.StringFixed(16), want)
	}
}

func TestDayCountFactorActual(t *testing.T) {
	from := Date(20200101).ToSerial()
	to := Date(20200201).ToSerial()
	factor := DayCountFactor(from, to, BasisActual365, 365, 12)
	if factor.StringFixed(10) != "0.0849315068" {
		t.Errorf("actual/365 factor = %s", factor.StringFixed(10))
	}
}

func TestDays30360(t *testing.T) {
	cases := []struct {
		from     Date
		to       Date
		european bool
		want     int
	}{
		{20200101, 20210101, false, 360},
		{20200131, 20200229, false, 29},
		{20200131, 20200331, false, 60},
		{20200131, 20200331, true, 60},
		{20200115, 20200731, true, 195},
	}
	for _, tc := range cases {
		if got := days30360(tc.from, tc.to, tc.european); got != tc.want {
			t.Errorf("days30360(%d, %d, %t) = %d, want %d", tc.from, tc.to, tc.european, got, tc.want)
		}
	}
}

func TestFrequencyRoundTrip(t *testing.T) {
	for freq := FrequencyNone; freq <= FrequencyContinuous; freq++ {
		if got := ParseFrequency(freq.String()); got != freq {
			t.Errorf("frequency %d does not round-trip through %q", freq, freq.String())
		}
	}
}
