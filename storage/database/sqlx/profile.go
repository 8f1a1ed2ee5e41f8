package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/profile"
	"github.com/apoiopedagogico/portal/core/session"
)

var profileOrderings = map[string]string{
	"uid":          "uid",
	"role":         "role",
	"display_name": "display_name",
	"updated_at":   "updated_at",
}

type profileRow struct {
	UID         string         `db:"uid"`
	Role        sql.NullString `db:"role"`
	DisplayName sql.NullString `db:"display_name"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r profileRow) profile() profile.Profile {
	return profile.Profile{
		UID:         r.UID,
		Role:        session.Role(r.Role.String),
		DisplayName: r.DisplayName.String,
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sqlx.DB) profile.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetProfile(ctx context.Context, uid string) (profile.Profile, error) {
	var row profileRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM profiles WHERE uid = $1", uid); err != nil {
		if err == sql.ErrNoRows {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, errors.Wrap(err, "getting profile")
	}
	return row.profile(), nil
}

func (repo *profileRepository) QueryProfiles(ctx context.Context, filter *profile.QueryFilter, ordering []core.DBOrdering) ([]profile.Profile, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, "(uid ILIKE ? OR display_name ILIKE ?)")
			val := likePattern(filter.Search)
			args = append(args, val, val)
		}
		if len(filter.Roles) > 0 {
			conds = append(conds, "role IN (?)")
			args = append(args, filter.Roles)
		}
	}

	q := "SELECT * FROM profiles"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, profileOrderings, "uid ASC")

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building profiles query")
	}

	var rows []profileRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}
	profiles := make([]profile.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.profile())
	}
	return profiles, nil
}

func (repo *profileRepository) UpsertProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	q := `INSERT INTO profiles (uid, role, display_name, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (uid) DO UPDATE SET role = EXCLUDED.role, display_name = EXCLUDED.display_name, updated_at = EXCLUDED.updated_at`
	_, err := repo.db.ExecContext(ctx, q,
		p.UID,
		sql.NullString{String: string(p.Role), Valid: p.Role != ""},
		sql.NullString{String: p.DisplayName, Valid: p.DisplayName != ""},
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "upserting profile")
	}
	return p, nil
}

func (repo *profileRepository) DeleteProfile(ctx context.Context, uid string) error {
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM profiles WHERE uid = $1", uid); err != nil {
		return errors.Wrap(err, "deleting profile")
	}
	return nil
}
