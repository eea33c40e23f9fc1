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
package cashflow

import "fmt"

// ErrType discriminates engine failures so callers can react to the
// class of failure without parsing messages.
type ErrType int

const (
	// ErrIndex reports a cursor or lookup failure: no current event,
	// a missing list, or an invalid selection.
	ErrIndex ErrType = iota
	// ErrCashflow reports a cashflow that is not valid for the
	// requested operation.
	ErrCashflow
	// ErrCfName reports a cashflow name that could not be resolved.
	ErrCfName
	// ErrDate reports a bad date computation, such as an expression
	// evaluating to zero.
	ErrDate
	// ErrElement reports an empty source list where input was
	// required.
	ErrElement
	// ErrCalcInterest reports a non-converging interest solve.
	ErrCalcInterest
	// ErrCalcPrincipal reports a non-converging principal solve.
	ErrCalcPrincipal
	// ErrCalcPeriods reports a non-converging period solve.
	ErrCalcPeriods
	// ErrExpression propagates an evaluator failure.
	ErrExpression
)

var errTypeNames = map[ErrType]string{
	ErrIndex:         "index",
	ErrCashflow:      "cashflow",
	ErrCfName:        "cashflow-name",
	ErrDate:          "date",
	ErrElement:       "element",
	ErrCalcInterest:  "calc-interest",
	ErrCalcPrincipal: "calc-principal",
	ErrCalcPeriods:   "calc-periods",
	ErrExpression:    "expression",
}

func (et ErrType) String() string {
	if name, ok := errTypeNames[et]; ok {
		return name
	}
	return "unknown"
}

// Error is the engine's error value; it carries the taxonomy type
// and, optionally, a wrapped cause.
type Error struct {
	Type  ErrType
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches two engine errors by taxonomy type so callers can use
// errors.Is with a bare type sentinel.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Type == e.Type
}

// NewError builds an engine error of the given type.
func NewError(et ErrType, format string, args ...any) *Error {
	return &Error{Type: et, msg: fmt.Sprintf(format, args...)}
}

// WrapError builds an engine error around a cause.
func WrapError(et ErrType, cause error, format string, args ...any) *Error {
	return &Error{Type: et, msg: fmt.Sprintf(format, args...), cause: cause}
}

// TypeOf extracts the error taxonomy type, defaulting to ErrCashflow
// for foreign errors.
func TypeOf(err error) ErrType {
	if engineErr, ok := err.(*Error); ok {
		return engineErr.Type
	}
	return ErrCashflow
}
