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

// Package decmath wraps the fixed-precision decimal operations the
// cashflow engine depends on: rounding policies, the exponential used
// by continuous compounding, and integer powers.
package decmath

import "github.com/shopspring/decimal"

// expPrecision bounds the Taylor expansion used for continuous
// compounding; 18 digits, well beyond the engine's display precision.
const expPrecision = 18

// RoundType selects how monetary values are rounded.
type RoundType int

const (
	RoundNone RoundType = iota
	RoundBankers
	RoundUp
	RoundDown
)

var roundNames = map[RoundType]string{
	RoundNone:    "none",
	RoundBankers: "bankers",
	RoundUp:      "up",
	RoundDown:    "down",
}

func (rt RoundType) String() string {
	if name, ok := roundNames[rt]; ok {
		return name
	}
	return "none"
}

// ParseRoundType converts a round-type name to its enumerated value.
// Unknown names map to RoundNone.
func ParseRoundType(name string) RoundType {
	for rt, rtName := range roundNames {
		if rtName == name {
			return rt
		}
	}
	return RoundNone
}

// MarshalText implements encoding.TextMarshaler.
func (rt RoundType) MarshalText() ([]byte, error) {
	return []byte(rt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (rt *RoundType) UnmarshalText(text []byte) error {
	*rt = ParseRoundType(string(text))
	return nil
}

// Round applies the round type at the given number of decimal digits.
func Round(value decimal.Decimal, digits int, rt RoundType) decimal.Decimal {
	switch rt {
	case RoundBankers:
		return value.RoundBank(int32(digits))
	case RoundUp:
		return value.RoundUp(int32(digits))
	case RoundDown:
		return value.RoundDown(int32(digits))
	}
	return value
}

// RoundBankersDigits is banker's rounding at a digit count; the
// engine's default policy for interest and final balances.
func RoundBankersDigits(value decimal.Decimal, digits int) decimal.Decimal {
	return value.RoundBank(int32(digits))
}

// RoundFraction rounds value to the nearest multiple of fraction
// (for example 0.05 for nickel rounding). Fractions outside (0, 1)
// leave the value untouched.
func RoundFraction(value decimal.Decimal, fraction decimal.Decimal, rt RoundType) decimal.Decimal {
	if fraction.Sign() <= 0 || fraction.GreaterThanOrEqual(decimal.New(1, 0)) {
		return value
	}
	scaled := value.Div(fraction)
	switch rt {
	case RoundUp:
		scaled = scaled.RoundUp(0)
	case RoundDown:
		scaled = scaled.RoundDown(0)
	default:
		scaled = scaled.RoundBank(0)
	}
	return scaled.Mul(fraction)
}

// Exp computes e**x in decimal arithmetic.
func Exp(x decimal.Decimal) decimal.Decimal {
	result, err := x.ExpTaylor(expPrecision)
	if err != nil {
		// ExpTaylor only fails on pathological precision arguments;
		// fall back to the first-order approximation 1 + x so callers
		// keep a usable value.
		return decimal.New(1, 0).Add(x)
	}
	return result
}

// PowInt raises base to a non-negative integer power by repeated
// squaring.
func PowInt(base decimal.Decimal, exponent int) decimal.Decimal {
	result := decimal.New(1, 0)
	for exponent > 0 {
		if exponent&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		exponent >>= 1
	}
	return result
}
