package trainer

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
)

var (
	ErrNotFound      = errors.New("trainer not found")
	ErrAccountLinked = errors.New("this account is already linked to another trainer")
)

type (
	Repository interface {
		CreateTrainer(ctx context.Context, t Trainer) (Trainer, error)
		GetTrainer(ctx context.Context, id string) (Trainer, error)
		GetTrainerByAccountID(ctx context.Context, accountID string) (Trainer, error)
		// GetTrainersByIDs fetches all trainers of ids in one lookup. Unknown ids are skipped and the
		// result order is unspecified.
		GetTrainersByIDs(ctx context.Context, ids []string) ([]Trainer, error)
		QueryTrainers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Trainer, error)
		UpdateTrainer(ctx context.Context, t Trainer) (Trainer, error)
		DeleteTrainers(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkAccountLink(ctx context.Context, accountID, trainerID string) error {
	if accountID == "" {
		return nil
	}
	t, err := svc.repo.GetTrainerByAccountID(ctx, accountID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil
		}
		return errors.Wrap(err, "checking account link")
	}
	if t.ID != trainerID {
		return core.NewValidationError(ErrAccountLinked, core.FieldError{Field: "account_id", Error: ErrAccountLinked.Error()})
	}
	return nil
}

// Create stores a new trainer. The data must have been validated.
func (svc *Service) Create(ctx context.Context, nt NewTrainer) (Trainer, error) {
	if err := svc.checkAccountLink(ctx, nt.AccountID, ""); err != nil {
		return Trainer{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateTrainer(ctx, Trainer{
		AccountID: nt.AccountID,
		FullName:  nt.FullName,
		Email:     nt.Email,
		Phone:     nt.Phone,
		Region:    nt.Region,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Trainer, error) {
	return svc.repo.GetTrainer(ctx, id)
}

func (svc *Service) GetByAccountID(ctx context.Context, accountID string) (Trainer, error) {
	return svc.repo.GetTrainerByAccountID(ctx, accountID)
}

func (svc *Service) GetByIDs(ctx context.Context, ids []string) ([]Trainer, error) {
	ids = core.UniqueStrings(ids)
	if len(ids) == 0 {
		return []Trainer{}, nil
	}
	return svc.repo.GetTrainersByIDs(ctx, ids)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Trainer, error) {
	return svc.repo.QueryTrainers(ctx, filter, ordering)
}

// Update modifies a trainer. The data must have been validated against orig.
func (svc *Service) Update(ctx context.Context, orig Trainer, ut UpdateTrainer) (Trainer, error) {
	if err := svc.checkAccountLink(ctx, ut.AccountID, orig.ID); err != nil {
		return Trainer{}, err
	}
	orig.AccountID = ut.AccountID
	orig.FullName = ut.FullName
	orig.Email = ut.Email
	orig.Phone = ut.Phone
	orig.Region = ut.Region
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTrainer(ctx, orig)
}

// Delete removes trainers from the roster. Formations keep referencing the deleted ids.
func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteTrainers(ctx, ids...)
}
