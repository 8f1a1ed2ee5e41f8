package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core/account"
)

type accountRow struct {
	ID           string       `db:"id"`
	Email        string       `db:"email"`
	DisplayName  string       `db:"display_name"`
	PasswordHash []byte       `db:"password_hash"`
	IsActive     bool         `db:"is_active"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
	LastLogin    sql.NullTime `db:"last_login"`
}

func (r accountRow) account() account.Account {
	return account.Account{
		ID:           r.ID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		LastLogin:    r.LastLogin.Time.UTC(),
	}
}

func newAccountRow(acc account.Account) accountRow {
	return accountRow{
		ID:           acc.ID,
		Email:        acc.Email,
		DisplayName:  acc.DisplayName,
		PasswordHash: acc.PasswordHash,
		IsActive:     acc.IsActive,
		CreatedAt:    acc.CreatedAt.UTC(),
		UpdatedAt:    acc.UpdatedAt.UTC(),
		LastLogin:    sql.NullTime{Time: acc.LastLogin.UTC(), Valid: !acc.LastLogin.IsZero()},
	}
}

type accountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) account.Repository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) get(ctx context.Context, where string, arg interface{}) (account.Account, error) {
	var row accountRow
	q := "SELECT * FROM accounts WHERE " + where + " = $1"
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "getting account")
	}
	return row.account(), nil
}

func (repo *accountRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	q, args := "SELECT COUNT(*) FROM accounts WHERE email = ?", []interface{}{email}
	if len(excludedIDs) > 0 {
		var err error
		q, args, err = sqlx.In(q+" AND id NOT IN (?)", email, excludedIDs)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return account.ErrEmailExists
	}
	return nil
}

func (repo *accountRepository) CreateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	if acc.ID == "" {
		acc.ID = uuid.New().String()
	}
	q := `INSERT INTO accounts (id, email, display_name, password_hash, is_active, created_at, updated_at, last_login)
		VALUES (:id, :email, :display_name, :password_hash, :is_active, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, newAccountRow(acc)); err != nil {
		if isUniqueViolation(err) {
			return account.Account{}, account.ErrEmailExists
		}
		return account.Account{}, errors.Wrap(err, "inserting account")
	}
	return acc, nil
}

func (repo *accountRepository) GetAccountByID(ctx context.Context, id string) (account.Account, error) {
	return repo.get(ctx, "id", id)
}

func (repo *accountRepository) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	return repo.get(ctx, "email", email)
}

func (repo *accountRepository) UpdateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	q := `UPDATE accounts SET email = :email, display_name = :display_name, password_hash = :password_hash,
		is_active = :is_active, updated_at = :updated_at, last_login = :last_login WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newAccountRow(acc))
	if err != nil {
		if isUniqueViolation(err) {
			return account.Account{}, account.ErrEmailExists
		}
		return account.Account{}, errors.Wrap(err, "updating account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return acc, nil
}
