package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/formation"
)

var formationComparators = map[string]comparator[formation.Formation]{
	"title":        func(a, b formation.Formation) int { return strings.Compare(a.Title, b.Title) },
	"region":       func(a, b formation.Formation) int { return strings.Compare(a.Region, b.Region) },
	"municipality": func(a, b formation.Formation) int { return strings.Compare(a.Municipality, b.Municipality) },
	"created_at":   func(a, b formation.Formation) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"starts_at": func(a, b formation.Formation) int {
		switch {
		case a.StartsAt == nil && b.StartsAt == nil:
			return 0
		case a.StartsAt == nil:
			return 1
		case b.StartsAt == nil:
			return -1
		}
		return a.StartsAt.Compare(*b.StartsAt)
	},
}

type formationRepository struct {
	db *formationTable
}

var _ formation.Repository = (*formationRepository)(nil) // interface compliance check

func NewFormationRepository(db *DB) formation.Repository {
	return &formationRepository{db: db.formation}
}

func copyFormation(f formation.Formation) formation.Formation {
	f.TrainerIDs = append([]string{}, f.TrainerIDs...)
	return f
}

func (repo *formationRepository) CreateFormation(_ context.Context, f formation.Formation) (formation.Formation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	f = copyFormation(f)
	repo.db.table[f.ID] = &f
	return copyFormation(f), nil
}

func (repo *formationRepository) GetFormation(_ context.Context, id string) (formation.Formation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if f, ok := repo.db.table[id]; ok {
		return copyFormation(*f), nil
	}
	return formation.Formation{}, formation.ErrNotFound
}

func (repo *formationRepository) QueryFormations(_ context.Context, filter *formation.QueryFilter, ordering []core.DBOrdering) ([]formation.Formation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	formations := make([]formation.Formation, 0, len(repo.db.table))
	for _, f := range repo.db.table {
		if filter != nil {
			if filter.Search != "" &&
				!(containsFold(f.Title, filter.Search) || containsFold(f.Region, filter.Search) || containsFold(f.Municipality, filter.Search)) {
				continue
			}
			if filter.Region != "" && !strings.EqualFold(f.Region, filter.Region) {
				continue
			}
			if filter.Municipality != "" && !strings.EqualFold(f.Municipality, filter.Municipality) {
				continue
			}
			if filter.TrainerID != "" && !hasTrainer(*f, filter.TrainerID) {
				continue
			}
		}
		formations = append(formations, copyFormation(*f))
	}
	sortBy(formations, ordering, formationComparators, core.DBOrdering{Field: "created_at", Ascending: false})
	return formations, nil
}

func hasTrainer(f formation.Formation, trainerID string) bool {
	for _, id := range f.TrainerIDs {
		if id == trainerID {
			return true
		}
	}
	return false
}

func (repo *formationRepository) UpdateFormation(_ context.Context, f formation.Formation) (formation.Formation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[f.ID]; !ok {
		return formation.Formation{}, formation.ErrNotFound
	}
	f = copyFormation(f)
	repo.db.table[f.ID] = &f
	return copyFormation(f), nil
}

func (repo *formationRepository) DeleteFormations(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
