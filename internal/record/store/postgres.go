package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"attest/internal/record/models"
	"attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the record tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure record schema: %w", err)
	}
	return nil
}

// PostgresRecordStore persists entity records in PostgreSQL. Provenance maps
// and discrepancy lists are serialized to JSONB here, at the persistence
// boundary, and nowhere else.
type PostgresRecordStore struct {
	pool *pgxpool.Pool
}

func NewPostgresRecordStore(pool *pgxpool.Pool) *PostgresRecordStore {
	return &PostgresRecordStore{pool: pool}
}

func (s *PostgresRecordStore) Load(ctx context.Context, key domain.EntityKey) (*models.EntityRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT attrs, discrepancies, status, kyc_status, created_at, updated_at, version
		FROM entity_records
		WHERE client_id = $1 AND role = $2 AND name = $3`,
		uuid.UUID(key.ClientID), key.Role.String(), key.Name)

	var (
		attrsJSON         []byte
		discrepanciesJSON []byte
		record            = models.EntityRecord{Key: key}
		status            string
	)
	err := row.Scan(&attrsJSON, &discrepanciesJSON, &status, &record.KYCStatus,
		&record.CreatedAt, &record.UpdatedAt, &record.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load entity record: %w", err)
	}
	record.Status = models.VerificationStatus(status)

	if err := unmarshalAttrs(&record, attrsJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(discrepanciesJSON, &record.Discrepancies); err != nil {
		return nil, fmt.Errorf("decode discrepancies: %w", err)
	}
	return &record, nil
}

func (s *PostgresRecordStore) Save(ctx context.Context, record *models.EntityRecord) error {
	attrsJSON, err := marshalAttrs(record)
	if err != nil {
		return err
	}
	discrepancies := record.Discrepancies
	if discrepancies == nil {
		discrepancies = []models.Discrepancy{}
	}
	discrepanciesJSON, err := json.Marshal(discrepancies)
	if err != nil {
		return fmt.Errorf("encode discrepancies: %w", err)
	}

	if record.Version == 0 {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO entity_records
				(client_id, role, name, attrs, discrepancies, status, kyc_status, created_at, updated_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)`,
			uuid.UUID(record.Key.ClientID), record.Key.Role.String(), record.Key.Name,
			attrsJSON, discrepanciesJSON, record.Status.String(), record.KYCStatus,
			record.CreatedAt, record.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert entity record: %w", err)
		}
		record.Version = 1
		return nil
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE entity_records
		SET attrs = $4, discrepancies = $5, status = $6, kyc_status = $7, updated_at = $8, version = version + 1
		WHERE client_id = $1 AND role = $2 AND name = $3 AND version = $9`,
		uuid.UUID(record.Key.ClientID), record.Key.Role.String(), record.Key.Name,
		attrsJSON, discrepanciesJSON, record.Status.String(), record.KYCStatus,
		record.UpdatedAt, record.Version)
	if err != nil {
		return fmt.Errorf("update entity record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrConflict
	}
	record.Version++
	return nil
}

func (s *PostgresRecordStore) ListByClient(ctx context.Context, clientID domain.ClientID) ([]*models.EntityRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT role, name, attrs, discrepancies, status, kyc_status, created_at, updated_at, version
		FROM entity_records
		WHERE client_id = $1`,
		uuid.UUID(clientID))
	if err != nil {
		return nil, fmt.Errorf("list entity records: %w", err)
	}
	defer rows.Close()

	var out []*models.EntityRecord
	for rows.Next() {
		var (
			role              string
			name              string
			attrsJSON         []byte
			discrepanciesJSON []byte
			status            string
			record            models.EntityRecord
		)
		if err := rows.Scan(&role, &name, &attrsJSON, &discrepanciesJSON, &status,
			&record.KYCStatus, &record.CreatedAt, &record.UpdatedAt, &record.Version); err != nil {
			return nil, fmt.Errorf("scan entity record: %w", err)
		}
		record.Key = domain.EntityKey{ClientID: clientID, Role: domain.Role(role), Name: name}
		record.Status = models.VerificationStatus(status)
		if err := unmarshalAttrs(&record, attrsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(discrepanciesJSON, &record.Discrepancies); err != nil {
			return nil, fmt.Errorf("decode discrepancies: %w", err)
		}
		out = append(out, &record)
	}
	return out, rows.Err()
}

func marshalAttrs(record *models.EntityRecord) ([]byte, error) {
	var attrs any
	switch {
	case record.Individual != nil:
		attrs = record.Individual
	case record.Company != nil:
		attrs = record.Company
	default:
		return nil, fmt.Errorf("entity record %s has no attributes for role %s", record.Key, record.Key.Role)
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("encode attrs: %w", err)
	}
	return data, nil
}

func unmarshalAttrs(record *models.EntityRecord, data []byte) error {
	switch record.Key.Role {
	case domain.RoleIndividual:
		record.Individual = &models.IndividualAttrs{}
		if err := json.Unmarshal(data, record.Individual); err != nil {
			return fmt.Errorf("decode individual attrs: %w", err)
		}
	case domain.RoleCompany:
		record.Company = &models.CompanyAttrs{}
		if err := json.Unmarshal(data, record.Company); err != nil {
			return fmt.Errorf("decode company attrs: %w", err)
		}
	default:
		return fmt.Errorf("unexpected role %q in entity_records", record.Key.Role)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
