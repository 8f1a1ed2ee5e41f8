// Package boiledrepos implements the formation repository with sqlboiler queries.
package boiledrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/drivers"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/formation"
)

const formationsTable = "formations"

var (
	dialect = drivers.Dialect{
		LQ:                   '"',
		RQ:                   '"',
		UseIndexPlaceholders: true,
		UseSchema:            false,
		UseDefaultKeyword:    true,
	}

	formationOrderings = map[string]string{
		"title":        "title",
		"region":       "region",
		"municipality": "municipality",
		"starts_at":    "starts_at",
		"created_at":   "created_at",
	}
)

type formationRow struct {
	ID           string            `boil:"id"`
	Title        string            `boil:"title"`
	TrainerIDs   types.StringArray `boil:"trainer_ids"`
	Region       null.String       `boil:"region"`
	Municipality null.String       `boil:"municipality"`
	StartsAt     null.Time         `boil:"starts_at"`
	EndsAt       null.Time         `boil:"ends_at"`
	Cost         float64           `boil:"cost"`
	Notes        string            `boil:"notes"`
	CreatedAt    time.Time         `boil:"created_at"`
	UpdatedAt    time.Time         `boil:"updated_at"`
}

func boilFormation(f formation.Formation) formationRow {
	ids := f.TrainerIDs
	if ids == nil {
		ids = []string{}
	}
	return formationRow{
		ID:           f.ID,
		Title:        f.Title,
		TrainerIDs:   types.StringArray(ids),
		Region:       null.NewString(f.Region, f.Region != ""),
		Municipality: null.NewString(f.Municipality, f.Municipality != ""),
		StartsAt:     nullTime(f.StartsAt),
		EndsAt:       nullTime(f.EndsAt),
		Cost:         f.Cost,
		Notes:        f.Notes,
		CreatedAt:    f.CreatedAt.UTC(),
		UpdatedAt:    f.UpdatedAt.UTC(),
	}
}

func (r formationRow) unboil() formation.Formation {
	return formation.Formation{
		ID:           r.ID,
		Title:        r.Title,
		TrainerIDs:   append([]string{}, r.TrainerIDs...),
		Region:       r.Region.String,
		Municipality: r.Municipality.String,
		StartsAt:     timePtr(r.StartsAt),
		EndsAt:       timePtr(r.EndsAt),
		Cost:         r.Cost,
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func nullTime(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}

func timePtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

// newQuery builds a select query on the formations table.
func newQuery(mods ...qm.QueryMod) *queries.Query {
	q := &queries.Query{}
	queries.SetDialect(q, &dialect)
	qm.Apply(q, append([]qm.QueryMod{qm.Select("*"), qm.From(formationsTable)}, mods...)...)
	return q
}

type formationRepository struct {
	exec core.DBExecutor
}

var _ formation.Repository = (*formationRepository)(nil) // interface compliance check

func NewFormationRepository(exec core.DBExecutor) formation.Repository {
	return &formationRepository{exec: exec}
}

// trapNoRowsErr maps psql "no rows" err to formation.ErrNotFound
func (repo *formationRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return formation.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *formationRepository) CreateFormation(ctx context.Context, f formation.Formation) (formation.Formation, error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	row := boilFormation(f)
	q := `INSERT INTO formations (id, title, trainer_ids, region, municipality, starts_at, ends_at, cost, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING *`

	var inserted formationRow
	err := queries.Raw(q,
		row.ID, row.Title, row.TrainerIDs, row.Region, row.Municipality,
		row.StartsAt, row.EndsAt, row.Cost, row.Notes, row.CreatedAt, row.UpdatedAt,
	).Bind(ctx, repo.exec, &inserted)
	if err != nil {
		return formation.Formation{}, errors.Wrap(err, "inserting formation")
	}
	return inserted.unboil(), nil
}

func (repo *formationRepository) GetFormation(ctx context.Context, id string) (formation.Formation, error) {
	var row formationRow
	if err := newQuery(qm.Where("id = ?", id)).Bind(ctx, repo.exec, &row); err != nil {
		return formation.Formation{}, repo.trapNoRowsErr(err, "getting formation")
	}
	return row.unboil(), nil
}

func (repo *formationRepository) QueryFormations(ctx context.Context, filter *formation.QueryFilter, ordering []core.DBOrdering) ([]formation.Formation, error) {
	var mods []qm.QueryMod

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			mods = append(mods, qm.Expr(qm.Where(
				"title ILIKE ? OR region ILIKE ? OR municipality ILIKE ?", val, val, val)))
		}
		if filter.Region != "" {
			mods = append(mods, qm.Where("region ILIKE ?", filter.Region))
		}
		if filter.Municipality != "" {
			mods = append(mods, qm.Where("municipality ILIKE ?", filter.Municipality))
		}
		if filter.TrainerID != "" {
			mods = append(mods, qm.Where("? = ANY(trainer_ids)", filter.TrainerID))
		}
	}

	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range core.FilterOrderings(ordering, formationOrderings) {
		orderList = append(orderList, fmt.Sprintf("%s NULLS LAST", ord))
	}
	orderList = append(orderList, "created_at DESC")
	mods = append(mods, qm.OrderBy(strings.Join(orderList, ", ")))

	var rows []formationRow
	if err := newQuery(mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying formations")
	}
	formations := make([]formation.Formation, 0, len(rows))
	for _, r := range rows {
		formations = append(formations, r.unboil())
	}
	return formations, nil
}

func (repo *formationRepository) UpdateFormation(ctx context.Context, f formation.Formation) (formation.Formation, error) {
	row := boilFormation(f)
	q := `UPDATE formations SET title = $2, trainer_ids = $3, region = $4, municipality = $5, starts_at = $6,
		ends_at = $7, cost = $8, notes = $9, updated_at = $10 WHERE id = $1 RETURNING *`

	var updated formationRow
	err := queries.Raw(q,
		row.ID, row.Title, row.TrainerIDs, row.Region, row.Municipality,
		row.StartsAt, row.EndsAt, row.Cost, row.Notes, row.UpdatedAt,
	).Bind(ctx, repo.exec, &updated)
	if err != nil {
		return formation.Formation{}, repo.trapNoRowsErr(err, "updating formation")
	}
	return updated.unboil(), nil
}

func (repo *formationRepository) DeleteFormations(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := queries.Raw(
		"DELETE FROM formations WHERE id = ANY($1)", types.StringArray(ids),
	).ExecContext(ctx, repo.exec); err != nil {
		return errors.Wrap(err, "deleting formations")
	}
	return nil
}
