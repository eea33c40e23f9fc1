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

// Package dates implements calendar arithmetic on YYYYMMDD dates,
// day-count factors, and interest-rate conversions used throughout
// the cashflow engine.
package dates

import "fmt"

// Date is a calendar date encoded as YYYYMMDD. The zero value means
// "unset".
type Date int

// NewDate builds a date from its components. Invalid month or day
// fields are rejected.
func NewDate(year, month, day int) (Date, error) {
	if month < 1 || month > 12 || day < 1 || day > DaysInMonth(year, month) {
		return 0, fmt.Errorf("invalid date fields %04d-%02d-%02d", year, month, day)
	}
	return Date(year*10000 + month*100 + day), nil
}

// Valid reports whether the date encodes a real calendar day.
func (d Date) Valid() bool {
	if _, err := NewDate(d.Year(), d.Month(), d.Day()); err != nil {
		return false
	}
	return true
}

func (d Date) Year() int  { return int(d) / 10000 }
func (d Date) Month() int { return int(d) / 100 % 100 }
func (d Date) Day() int   { return int(d) % 100 }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), d.Month(), d.Day())
}

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

var monthDays = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return monthDays[month]
}

// EndOfMonth reports whether the date falls on the last day of its
// month.
func (d Date) EndOfMonth() bool {
	return d.Day() == DaysInMonth(d.Year(), d.Month())
}

// ToSerial converts the date into a day serial where serial 1 is
// 1900-01-01. The conversion uses civil-day arithmetic so date math
// survives month and year boundaries.
func (d Date) ToSerial() int {
	return daysFromCivil(d.Year(), d.Month(), d.Day()) - daysFromCivil(1899, 12, 31)
}

// SerialToDate is the inverse of ToSerial.
func SerialToDate(serial int) Date {
	year, month, day := civilFromDays(serial + daysFromCivil(1899, 12, 31))
	return Date(year*10000 + month*100 + day)
}

// daysFromCivil counts days since 1970-01-01 shifted so the result is
// monotone over the proleptic Gregorian calendar.
func daysFromCivil(year, month, day int) int {
	if month <= 2 {
		year--
	}
	era := year / 400
	if year < 0 {
		era = (year - 399) / 400
	}
	yoe := year - era*400
	var mp int
	if month > 2 {
		mp = month - 3
	} else {
		mp = month + 9
	}
	doy := (153*mp+2)/5 + day - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func civilFromDays(days int) (year, month, day int) {
	days += 719468
	era := days / 146097
	if days < 0 {
		era = (days - 146096) / 146097
	}
	doe := days - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	day = doy - (153*mp+2)/5 + 1
	if mp < 10 {
		month = mp + 3
	} else {
		month = mp - 9
	}
	if month <= 2 {
		y++
	}
	return y, month, day
}

// addDays advances the date by a signed number of days.
func (d Date) addDays(days int) Date {
	return SerialToDate(d.ToSerial() + days)
}

// addMonths advances the date by a signed number of months, using
// origDay (the authored day-of-month) when the target month is long
// enough and clamping to the month end otherwise.
func (d Date) addMonths(months, origDay int) Date {
	total := d.Year()*12 + d.Month() - 1 + months
	year := total / 12
	month := total%12 + 1
	if total < 0 {
		year = (total - 11) / 12
		month = total - year*12 + 1
	}
	day := origDay
	if max := DaysInMonth(year, month); day > max {
		day = max
	}
	return Date(year*10000 + month*100 + day)
}

// AdvanceDate advances current by intervals units of freq. The orig
// date supplies the authored day-of-month so a schedule started on the
// 31st keeps snapping back to month ends and long months. When eom is
// set and orig fell on a month end, the result also snaps to its
// month end.
func AdvanceDate(orig, current Date, freq Frequency, intervals int, eom bool) Date {
	return AdvanceDateSigned(orig, current, freq, intervals, eom)
}

// AdvanceDateSigned is AdvanceDate with a signed interval count;
// negative counts step backward.
func AdvanceDateSigned(orig, current Date, freq Frequency, intervals int, eom bool) Date {
	if intervals == 0 || freq == FrequencyNone {
		return current
	}

	result := current
	switch {
	case freq.months() > 0:
		result = current.addMonths(freq.months()*intervals, orig.Day())
	case freq == FrequencyHalfMonth:
		result = advanceHalfMonth(orig, current, intervals)
	default:
		result = current.addDays(freq.days() * intervals)
	}

	if eom && orig.EndOfMonth() && freq.months() > 0 {
		result = Date(result.Year()*10000 + result.Month()*100 + DaysInMonth(result.Year(), result.Month()))
	}
	return result
}

// advanceHalfMonth steps by half-month increments: two steps advance
// exactly one month, the intermediate step lands on the opposite half
// of the month.
func advanceHalfMonth(orig Date, current Date, intervals int) Date {
	result := current
	step := 1
	if intervals < 0 {
		step = -1
		intervals = -intervals
	}
	for i := 0; i < intervals; i++ {
		day := result.Day()
		if step > 0 {
			if day <= 15 {
				target := day + 15
				if max := DaysInMonth(result.Year(), result.Month()); target > max {
					target = max
				}
				result = Date(result.Year()*10000 + result.Month()*100 + target)
			} else {
				result = result.addMonths(1, day-15)
			}
		} else {
			if day > 15 {
				result = Date(result.Year()*10000 + result.Month()*100 + day - 15)
			} else {
				prev := result.addMonths(-1, orig.Day())
				target := day + 15
				if max := DaysInMonth(prev.Year(), prev.Month()); target > max {
					target = max
				}
				result = Date(prev.Year()*10000 + prev.Month()*100 + target)
			}
		}
	}
	return result
}
