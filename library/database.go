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

// Package library persists cashflow definitions and balanced
// schedules to a PostgreSQL data library.
package library

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/pvcashflow/cashflow"
	"github.com/penny-vault/pvcashflow/engine"
	"github.com/rs/zerolog/log"
)

type Library struct {
	DBUrl string
	Name  string
	Owner string

	Pool *pgxpool.Pool
}

// StoredCashflow is the database row for a saved cashflow.
type StoredCashflow struct {
	ID         uuid.UUID `db:"id"`
	Slug       string    `db:"slug"`
	Name       string    `db:"name"`
	CflowGroup string    `db:"cashflow_group"`
	Definition []byte    `db:"definition"`
	CreatedOn  time.Time `db:"created_on"`
	UpdatedOn  time.Time `db:"updated_on"`
}

// Connect to the database configured for the library
func (myLibrary *Library) Connect(ctx context.Context) error {
	if myLibrary.Pool != nil {
		return nil
	}

	pool, err := pgxpool.New(context.Background(), myLibrary.DBUrl)
	if err != nil {
		return err
	}
	myLibrary.Pool = pool

	return nil
}

// Close the database pool
func (myLibrary *Library) Close() {
	myLibrary.Pool.Close()
}

// NewFromDB creates a new library object with values from the database
func NewFromDB(ctx context.Context, dbURL string) (*Library, error) {
	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		return nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	myLibrary := Library{
		DBUrl: dbURL,
		Pool:  pool,
	}

	if err := conn.QueryRow(ctx, "SELECT name, owner FROM library").Scan(&myLibrary.Name, &myLibrary.Owner); err != nil {
		return nil, err
	}

	return &myLibrary, nil
}

// SaveName stores the library name and owner.
func (myLibrary *Library) SaveName(ctx context.Context) error {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `INSERT INTO library ("name", "owner") VALUES ($1, $2)`,
		myLibrary.Name, myLibrary.Owner)
	return err
}

// SaveCashflow stores (or replaces) a cashflow definition.
func (myLibrary *Library) SaveCashflow(ctx context.Context, def *engine.Definition) error {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	raw, err := json.Marshal(def)
	if err != nil {
		return err
	}

	cfSlug := slug.Make(def.Name)
	_, err = conn.Exec(ctx, `INSERT INTO cashflows (
		"id",
		"slug",
		"name",
		"cashflow_group",
		"definition",
		"created_on",
		"updated_on"
	) VALUES (
		$1, $2, $3, $4, $5, now(), now()
	) ON CONFLICT (slug) DO UPDATE SET
		name = EXCLUDED.name,
		cashflow_group = EXCLUDED.cashflow_group,
		definition = EXCLUDED.definition,
		updated_on = now()`, uuid.New(), cfSlug, def.Name, def.Group, raw)
	if err != nil {
		log.Error().Err(err).Str("Slug", cfSlug).Msg("error saving cashflow to database")
		return err
	}

	return nil
}

// LoadCashflow retrieves a cashflow definition by slug.
func (myLibrary *Library) LoadCashflow(ctx context.Context, name string) (*engine.Definition, error) {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	stored := StoredCashflow{}
	if err := pgxscan.Get(ctx, conn, &stored,
		"SELECT id, slug, name, cashflow_group, definition, created_on, updated_on FROM cashflows WHERE slug=$1",
		slug.Make(name)); err != nil {
		return nil, cashflow.WrapError(cashflow.ErrCfName, err, "cashflow %q not in library", name)
	}

	var def engine.Definition
	if err := json.Unmarshal(stored.Definition, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Cashflows lists every stored cashflow.
func (myLibrary *Library) Cashflows(ctx context.Context) ([]StoredCashflow, error) {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	stored := []StoredCashflow{}
	if err := pgxscan.Select(ctx, conn, &stored,
		"SELECT id, slug, name, cashflow_group, definition, created_on, updated_on FROM cashflows ORDER BY slug"); err != nil {
		return nil, err
	}
	return stored, nil
}

// DeleteCashflow removes a cashflow and its saved schedules.
func (myLibrary *Library) DeleteCashflow(ctx context.Context, name string) error {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	cfSlug := slug.Make(name)
	if _, err := conn.Exec(ctx, "DELETE FROM schedules WHERE cashflow_slug=$1", cfSlug); err != nil {
		return err
	}
	if _, err := conn.Exec(ctx, "DELETE FROM cashflows WHERE slug=$1", cfSlug); err != nil {
		return err
	}
	return nil
}

// SaveSchedule stores the balanced amortization rows for a cashflow.
func (myLibrary *Library) SaveSchedule(ctx context.Context, name string, amList *cashflow.AmortizationList, result *cashflow.BalanceResult) error {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := tx.Commit(ctx); err != nil {
			log.Error().Err(err).Msg("error committing schedule transaction to database")
		}
	}()

	cfSlug := slug.Make(name)
	if _, err := tx.Exec(ctx, "DELETE FROM schedules WHERE cashflow_slug=$1", cfSlug); err != nil {
		return err
	}

	for seq, row := range amList.Rows() {
		_, err = tx.Exec(ctx, `INSERT INTO schedules (
			"cashflow_slug",
			"sequence",
			"event_date",
			"event_type",
			"value",
			"interest",
			"sl_interest",
			"acc_balance",
			"balance"
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`, cfSlug, seq, int(row.EventDate), row.ExtensionType().String(),
			row.Value, row.Interest, row.SLInterest, row.AccBalance, row.Balance)
		if err != nil {
			log.Error().Err(err).Str("Slug", cfSlug).Int("Sequence", seq).Msg("error saving schedule row")
			return err
		}
	}

	_, err = tx.Exec(ctx, `UPDATE cashflows SET
		last_balance = $2,
		last_balanced_on = now()
	WHERE slug = $1`, cfSlug, result.FinalBalance())
	return err
}
