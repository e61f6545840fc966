package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	"locregistry/pkg/platform/sentinel"
	txcontext "locregistry/pkg/platform/tx"
)

// PostgresLocStore persists cases as one JSONB document per row, with
// the columns needed for lookups lifted out. The service layer owns all
// invariants; the store only guarantees key uniqueness.
type PostgresLocStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresLocStore {
	return &PostgresLocStore{db: db}
}

// Schema is the table this store expects. Deployments apply it through
// their migration tooling; tests feed it to the container directly.
const Schema = `
CREATE TABLE IF NOT EXISTS locs (
	id                 UUID PRIMARY KEY,
	owner_account      UUID NOT NULL,
	requester_kind     TEXT NOT NULL,
	requester_account  UUID,
	requester_loc      UUID,
	requester_other    TEXT,
	loc_type           TEXT NOT NULL,
	closed             BOOLEAN NOT NULL DEFAULT FALSE,
	voided             BOOLEAN NOT NULL DEFAULT FALSE,
	record             JSONB NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS locs_requester_owner_idx
	ON locs (requester_kind, requester_account, owner_account)
	WHERE loc_type = 'identity';
`

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresLocStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresLocStore) Get(ctx context.Context, locID id.LocID) (*models.LegalOfficerCase, error) {
	var record []byte
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT record FROM locs WHERE id = $1`, uuid.UUID(locID),
	).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query loc: %w", err)
	}

	var loc models.LegalOfficerCase
	if err := json.Unmarshal(record, &loc); err != nil {
		return nil, fmt.Errorf("decode loc record: %w", err)
	}
	return &loc, nil
}

func (s *PostgresLocStore) Create(ctx context.Context, loc *models.LegalOfficerCase) error {
	record, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encode loc record: %w", err)
	}

	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO locs (id, owner_account, requester_kind, requester_account, requester_loc, requester_other, loc_type, closed, voided, record)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		uuid.UUID(loc.ID),
		uuid.UUID(loc.Owner),
		string(loc.Requester.Kind),
		nullableUUID(uuid.UUID(loc.Requester.Account)),
		nullableUUID(uuid.UUID(loc.Requester.Loc)),
		nullableString(string(loc.Requester.OtherAccount)),
		string(loc.LocType),
		loc.Closed,
		loc.IsVoid(),
		record,
	)
	if err != nil {
		return fmt.Errorf("insert loc: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert loc: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresLocStore) Update(ctx context.Context, loc *models.LegalOfficerCase) error {
	record, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encode loc record: %w", err)
	}

	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE locs
		SET closed = $2, voided = $3, record = $4, updated_at = now()
		WHERE id = $1`,
		uuid.UUID(loc.ID),
		loc.Closed,
		loc.IsVoid(),
		record,
	)
	if err != nil {
		return fmt.Errorf("update loc: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update loc: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresLocStore) HasClosedIdentityLoc(ctx context.Context, requester models.Requester, owner id.AccountID) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM locs
			WHERE loc_type = 'identity'
			  AND closed AND NOT voided
			  AND owner_account = $1
			  AND requester_kind = $2
			  AND requester_account IS NOT DISTINCT FROM $3
			  AND requester_loc IS NOT DISTINCT FROM $4
			  AND requester_other IS NOT DISTINCT FROM $5
		)`,
		uuid.UUID(owner),
		string(requester.Kind),
		nullableUUID(uuid.UUID(requester.Account)),
		nullableUUID(uuid.UUID(requester.Loc)),
		nullableString(string(requester.OtherAccount)),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query identity locs: %w", err)
	}
	return exists, nil
}

func nullableUUID(u uuid.UUID) any {
	if u == uuid.Nil {
		return nil
	}
	return u
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
