package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/trainer"
)

var trainerOrderings = map[string]string{
	"full_name":  "full_name",
	"region":     "region",
	"created_at": "created_at",
}

type trainerRow struct {
	ID        string         `db:"id"`
	AccountID sql.NullString `db:"account_id"`
	FullName  string         `db:"full_name"`
	Email     string         `db:"email"`
	Phone     string         `db:"phone"`
	Region    string         `db:"region"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r trainerRow) trainer() trainer.Trainer {
	return trainer.Trainer{
		ID:        r.ID,
		AccountID: r.AccountID.String,
		FullName:  r.FullName,
		Email:     r.Email,
		Phone:     r.Phone,
		Region:    r.Region,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func newTrainerRow(t trainer.Trainer) trainerRow {
	return trainerRow{
		ID:        t.ID,
		AccountID: sql.NullString{String: t.AccountID, Valid: t.AccountID != ""},
		FullName:  t.FullName,
		Email:     t.Email,
		Phone:     t.Phone,
		Region:    t.Region,
		CreatedAt: t.CreatedAt.UTC(),
		UpdatedAt: t.UpdatedAt.UTC(),
	}
}

func trainers(rows []trainerRow) []trainer.Trainer {
	out := make([]trainer.Trainer, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.trainer())
	}
	return out
}

type trainerRepository struct {
	db *sqlx.DB
}

var _ trainer.Repository = (*trainerRepository)(nil) // interface compliance check

func NewTrainerRepository(db *sqlx.DB) trainer.Repository {
	return &trainerRepository{db: db}
}

func (repo *trainerRepository) get(ctx context.Context, where string, arg interface{}) (trainer.Trainer, error) {
	var row trainerRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM trainers WHERE "+where+" = $1", arg); err != nil {
		if err == sql.ErrNoRows {
			return trainer.Trainer{}, trainer.ErrNotFound
		}
		return trainer.Trainer{}, errors.Wrap(err, "getting trainer")
	}
	return row.trainer(), nil
}

func (repo *trainerRepository) CreateTrainer(ctx context.Context, t trainer.Trainer) (trainer.Trainer, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	q := `INSERT INTO trainers (id, account_id, full_name, email, phone, region, created_at, updated_at)
		VALUES (:id, :account_id, :full_name, :email, :phone, :region, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newTrainerRow(t)); err != nil {
		if isUniqueViolation(err) {
			return trainer.Trainer{}, trainer.ErrAccountLinked
		}
		return trainer.Trainer{}, errors.Wrap(err, "inserting trainer")
	}
	return t, nil
}

func (repo *trainerRepository) GetTrainer(ctx context.Context, id string) (trainer.Trainer, error) {
	return repo.get(ctx, "id", id)
}

func (repo *trainerRepository) GetTrainerByAccountID(ctx context.Context, accountID string) (trainer.Trainer, error) {
	return repo.get(ctx, "account_id", accountID)
}

func (repo *trainerRepository) GetTrainersByIDs(ctx context.Context, ids []string) ([]trainer.Trainer, error) {
	if len(ids) == 0 {
		return []trainer.Trainer{}, nil
	}
	q, args, err := sqlx.In("SELECT * FROM trainers WHERE id IN (?)", ids)
	if err != nil {
		return nil, errors.Wrap(err, "building trainers query")
	}
	var rows []trainerRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "getting trainers")
	}
	return trainers(rows), nil
}

func (repo *trainerRepository) QueryTrainers(ctx context.Context, filter *trainer.QueryFilter, ordering []core.DBOrdering) ([]trainer.Trainer, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, "(full_name ILIKE ? OR email ILIKE ? OR region ILIKE ?)")
			val := likePattern(filter.Search)
			args = append(args, val, val, val)
		}
		if filter.Region != "" {
			conds = append(conds, "region ILIKE ?")
			args = append(args, filter.Region)
		}
	}

	q := "SELECT * FROM trainers"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, trainerOrderings, "full_name ASC")

	var rows []trainerRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying trainers")
	}
	return trainers(rows), nil
}

func (repo *trainerRepository) UpdateTrainer(ctx context.Context, t trainer.Trainer) (trainer.Trainer, error) {
	q := `UPDATE trainers SET account_id = :account_id, full_name = :full_name, email = :email, phone = :phone,
		region = :region, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newTrainerRow(t))
	if err != nil {
		if isUniqueViolation(err) {
			return trainer.Trainer{}, trainer.ErrAccountLinked
		}
		return trainer.Trainer{}, errors.Wrap(err, "updating trainer")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return trainer.Trainer{}, trainer.ErrNotFound
	}
	return t, nil
}

func (repo *trainerRepository) DeleteTrainers(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM trainers WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting trainers")
	}
	return nil
}
