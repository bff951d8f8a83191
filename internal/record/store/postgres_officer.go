package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"attest/internal/record/models"
	"attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

// PostgresOfficerStore persists scalar director/shareholder rows.
type PostgresOfficerStore struct {
	pool *pgxpool.Pool
}

func NewPostgresOfficerStore(pool *pgxpool.Pool) *PostgresOfficerStore {
	return &PostgresOfficerStore{pool: pool}
}

const officerColumns = `
	id_number, id_number_source, id_type, id_type_source,
	nationality, nationality_source, address, address_source,
	phone, phone_source, email, email_source,
	shares_owned, shares_owned_source, price_per_share, price_per_share_source,
	status, kyc_status, created_at, updated_at, version`

func (s *PostgresOfficerStore) Load(ctx context.Context, key domain.EntityKey) (*models.Officer, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+officerColumns+`
		FROM officers
		WHERE client_id = $1 AND role = $2 AND company_name = $3 AND person_name = $4`,
		uuid.UUID(key.ClientID), key.Role.String(), key.CompanyName, key.Name)

	officer := models.Officer{Key: key}
	if err := row.Scan(officerScanDest(&officer)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load officer: %w", err)
	}
	return &officer, nil
}

func (s *PostgresOfficerStore) Save(ctx context.Context, officer *models.Officer) error {
	args := []any{
		uuid.UUID(officer.Key.ClientID), officer.Key.Role.String(),
		officer.Key.CompanyName, officer.Key.Name,
		officer.IDNumber.Value, officer.IDNumber.Source,
		officer.IDType.Value, officer.IDType.Source,
		officer.Nationality.Value, officer.Nationality.Source,
		officer.Address.Value, officer.Address.Source,
		officer.Phone.Value, officer.Phone.Source,
		officer.Email.Value, officer.Email.Source,
		officer.SharesOwned.Value, officer.SharesOwned.Source,
		officer.PricePerShare.Value, officer.PricePerShare.Source,
		officer.Status.String(), officer.KYCStatus,
	}

	if officer.Version == 0 {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO officers
				(client_id, role, company_name, person_name,
				 id_number, id_number_source, id_type, id_type_source,
				 nationality, nationality_source, address, address_source,
				 phone, phone_source, email, email_source,
				 shares_owned, shares_owned_source, price_per_share, price_per_share_source,
				 status, kyc_status, created_at, updated_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
				$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, 1)`,
			append(args, officer.CreatedAt, officer.UpdatedAt)...)
		if err != nil {
			if isUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert officer: %w", err)
		}
		officer.Version = 1
		return nil
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE officers
		SET id_number = $5, id_number_source = $6, id_type = $7, id_type_source = $8,
			nationality = $9, nationality_source = $10, address = $11, address_source = $12,
			phone = $13, phone_source = $14, email = $15, email_source = $16,
			shares_owned = $17, shares_owned_source = $18,
			price_per_share = $19, price_per_share_source = $20,
			status = $21, kyc_status = $22, updated_at = $23, version = version + 1
		WHERE client_id = $1 AND role = $2 AND company_name = $3 AND person_name = $4
			AND version = $24`,
		append(args, officer.UpdatedAt, officer.Version)...)
	if err != nil {
		return fmt.Errorf("update officer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrConflict
	}
	officer.Version++
	return nil
}

func (s *PostgresOfficerStore) ListByClient(ctx context.Context, clientID domain.ClientID) ([]*models.Officer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT role, company_name, person_name, `+officerColumns+`
		FROM officers
		WHERE client_id = $1`,
		uuid.UUID(clientID))
	if err != nil {
		return nil, fmt.Errorf("list officers: %w", err)
	}
	defer rows.Close()

	var out []*models.Officer
	for rows.Next() {
		var (
			role        string
			companyName string
			personName  string
			officer     models.Officer
		)
		dest := append([]any{&role, &companyName, &personName}, officerScanDest(&officer)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan officer: %w", err)
		}
		officer.Key = domain.EntityKey{
			ClientID: clientID, Role: domain.Role(role),
			Name: personName, CompanyName: companyName,
		}
		out = append(out, &officer)
	}
	return out, rows.Err()
}

// officerScanDest returns scan targets matching officerColumns order.
func officerScanDest(officer *models.Officer) []any {
	return []any{
		&officer.IDNumber.Value, &officer.IDNumber.Source,
		&officer.IDType.Value, &officer.IDType.Source,
		&officer.Nationality.Value, &officer.Nationality.Source,
		&officer.Address.Value, &officer.Address.Source,
		&officer.Phone.Value, &officer.Phone.Source,
		&officer.Email.Value, &officer.Email.Source,
		&officer.SharesOwned.Value, &officer.SharesOwned.Source,
		&officer.PricePerShare.Value, &officer.PricePerShare.Source,
		&officer.Status, &officer.KYCStatus,
		&officer.CreatedAt, &officer.UpdatedAt, &officer.Version,
	}
}
