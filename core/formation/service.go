package formation

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/trainer"
)

var (
	ErrMissingIdentifier = errors.New("missing formation identifier")
	ErrNotFound          = errors.New("formation not found")
)

type (
	Repository interface {
		CreateFormation(ctx context.Context, f Formation) (Formation, error)
		GetFormation(ctx context.Context, id string) (Formation, error)
		QueryFormations(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Formation, error)
		UpdateFormation(ctx context.Context, f Formation) (Formation, error)
		DeleteFormations(ctx context.Context, ids ...string) error
	}

	// TrainerLookup resolves trainer ids in a single batched call, skipping unknown ids.
	TrainerLookup interface {
		GetByIDs(ctx context.Context, ids []string) ([]trainer.Trainer, error)
	}

	Service struct {
		repo     Repository
		trainers TrainerLookup
	}
)

func NewService(repo Repository, trainers TrainerLookup) *Service {
	return &Service{repo: repo, trainers: trainers}
}

// PublicSummary builds the public report of formation id: its title, region, municipality and the
// names of its trainers, in the order of Formation.TrainerIDs. Trainers missing from the roster are
// skipped.
func (svc *Service) PublicSummary(ctx context.Context, id string) (PublicSummary, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return PublicSummary{}, ErrMissingIdentifier
	}

	f, err := svc.repo.GetFormation(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return PublicSummary{}, ErrNotFound
		}
		return PublicSummary{}, errors.Wrap(err, "getting formation")
	}

	names := make([]string, 0, len(f.TrainerIDs))
	ids := core.UniqueStrings(f.TrainerIDs)
	if len(ids) > 0 {
		trainers, err := svc.trainers.GetByIDs(ctx, ids)
		if err != nil {
			return PublicSummary{}, errors.Wrap(err, "getting formation trainers")
		}
		byID := make(map[string]trainer.Trainer, len(trainers))
		for _, t := range trainers {
			byID[t.ID] = t
		}
		for _, tid := range ids {
			if t, ok := byID[tid]; ok {
				names = append(names, t.FullName)
			}
		}
	}

	return PublicSummary{
		Title:        f.Title,
		Trainers:     names,
		Region:       f.Region,
		Municipality: f.Municipality,
	}, nil
}

// Create stores a new formation. The data must have been validated.
func (svc *Service) Create(ctx context.Context, nf NewFormation) (Formation, error) {
	now := time.Now().UTC()
	return svc.repo.CreateFormation(ctx, Formation{
		Title:        nf.Title,
		TrainerIDs:   nf.TrainerIDs,
		Region:       nf.Region,
		Municipality: nf.Municipality,
		StartsAt:     nf.StartsAt,
		EndsAt:       nf.EndsAt,
		Cost:         nf.Cost,
		Notes:        nf.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Formation, error) {
	return svc.repo.GetFormation(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Formation, error) {
	return svc.repo.QueryFormations(ctx, filter, ordering)
}

// QueryForTrainer returns the formations trainerID is assigned to.
func (svc *Service) QueryForTrainer(ctx context.Context, trainerID string, ordering []core.DBOrdering) ([]Formation, error) {
	return svc.repo.QueryFormations(ctx, &QueryFilter{TrainerID: trainerID}, ordering)
}

// Update modifies a formation. The data must have been validated against orig.
func (svc *Service) Update(ctx context.Context, orig Formation, uf UpdateFormation) (Formation, error) {
	orig.Title = uf.Title
	orig.TrainerIDs = uf.TrainerIDs
	orig.Region = *uf.Region
	orig.Municipality = *uf.Municipality
	orig.StartsAt = uf.StartsAt
	orig.EndsAt = uf.EndsAt
	orig.Cost = *uf.Cost
	orig.Notes = *uf.Notes
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateFormation(ctx, orig)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteFormations(ctx, ids...)
}
