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
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString(fmt.Sprintf("# %s\n", myLibrary.Name)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString("## Details\n\n"); err != nil {
		return "", err
	}

	// Database connection string
	if _, err := builder.WriteString(fmt.Sprintf("Database: %s\n\n", myLibrary.DBUrl)); err != nil {
		return "", err
	}

	// Number of cashflows
	numCashflows, err := myLibrary.NumCashflows(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Num Cashflows: %d\n", numCashflows)); err != nil {
		return "", err
	}

	// Total schedule rows stored
	totalRows, err := myLibrary.TotalScheduleRows(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Schedule Rows: %d\n\n", totalRows)); err != nil {
		return "", err
	}

	// Last updated time
	lastUpdated, err := myLibrary.LastUpdated(ctx)
	if err != nil {
		return "", err
	}

	if !lastUpdated.IsZero() {
		if _, err := builder.WriteString(fmt.Sprintf("Last updated: %s\n", timeago.English.Format(lastUpdated))); err != nil {
			return "", err
		}
	}

	return builder.String(), nil
}

// NumCashflows counts the stored cashflow definitions.
func (myLibrary *Library) NumCashflows(ctx context.Context) (int64, error) {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, "SELECT count(*) FROM cashflows").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// TotalScheduleRows counts the stored amortization rows.
func (myLibrary *Library) TotalScheduleRows(ctx context.Context) (int64, error) {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, "SELECT count(*) FROM schedules").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// LastUpdated returns the most recent cashflow update time.
func (myLibrary *Library) LastUpdated(ctx context.Context) (time.Time, error) {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return time.Time{}, err
	}
	defer conn.Release()

	var lastUpdated *time.Time
	if err := conn.QueryRow(ctx, "SELECT max(updated_on) FROM cashflows").Scan(&lastUpdated); err != nil {
		return time.Time{}, err
	}
	if lastUpdated == nil {
		return time.Time{}, nil
	}
	return *lastUpdated, nil
}
