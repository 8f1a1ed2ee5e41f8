package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/trainer"
)

var trainerComparators = map[string]comparator[trainer.Trainer]{
	"full_name":  func(a, b trainer.Trainer) int { return strings.Compare(a.FullName, b.FullName) },
	"region":     func(a, b trainer.Trainer) int { return strings.Compare(a.Region, b.Region) },
	"created_at": func(a, b trainer.Trainer) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"id":         func(a, b trainer.Trainer) int { return strings.Compare(a.ID, b.ID) },
}

type trainerRepository struct {
	db *trainerTable
}

var _ trainer.Repository = (*trainerRepository)(nil) // interface compliance check

func NewTrainerRepository(db *DB) trainer.Repository {
	return &trainerRepository{db: db.trainer}
}

func (repo *trainerRepository) CreateTrainer(_ context.Context, t trainer.Trainer) (trainer.Trainer, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *trainerRepository) GetTrainer(_ context.Context, id string) (trainer.Trainer, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return trainer.Trainer{}, trainer.ErrNotFound
}

func (repo *trainerRepository) GetTrainerByAccountID(_ context.Context, accountID string) (trainer.Trainer, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, t := range repo.db.table {
		if accountID != "" && t.AccountID == accountID {
			return *t, nil
		}
	}
	return trainer.Trainer{}, trainer.ErrNotFound
}

func (repo *trainerRepository) GetTrainersByIDs(_ context.Context, ids []string) ([]trainer.Trainer, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	trainers := make([]trainer.Trainer, 0, len(ids))
	for _, id := range ids {
		if t, ok := repo.db.table[id]; ok {
			trainers = append(trainers, *t)
		}
	}
	return trainers, nil
}

func (repo *trainerRepository) QueryTrainers(_ context.Context, filter *trainer.QueryFilter, ordering []core.DBOrdering) ([]trainer.Trainer, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	trainers := make([]trainer.Trainer, 0, len(repo.db.table))
	for _, t := range repo.db.table {
		if filter != nil {
			if filter.Search != "" &&
				!(containsFold(t.FullName, filter.Search) || containsFold(t.Email, filter.Search) || containsFold(t.Region, filter.Search)) {
				continue
			}
			if filter.Region != "" && !strings.EqualFold(t.Region, filter.Region) {
				continue
			}
		}
		trainers = append(trainers, *t)
	}
	sortBy(trainers, ordering, trainerComparators, core.DBOrdering{Field: "full_name", Ascending: true})
	return trainers, nil
}

func (repo *trainerRepository) UpdateTrainer(_ context.Context, t trainer.Trainer) (trainer.Trainer, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[t.ID]; !ok {
		return trainer.Trainer{}, trainer.ErrNotFound
	}
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *trainerRepository) DeleteTrainers(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
