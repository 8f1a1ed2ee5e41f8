package formation

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/apoiopedagogico/portal/core"
)

// Formation is a training session delivered by one or more trainers.
// TrainerIDs is an ordered set of trainer.Trainer ids.
type Formation struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	TrainerIDs   []string   `json:"trainer_ids"`
	Region       string     `json:"region"`
	Municipality string     `json:"municipality"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	Cost         float64    `json:"cost"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
}

// PublicSummary is the only projection of a Formation served without authentication.
// It must never carry fields outside of these four.
type PublicSummary struct {
	Title        string   `json:"title"`
	Trainers     []string `json:"trainers"`
	Region       string   `json:"region"`
	Municipality string   `json:"municipality"`
}

// NewFormation contains information needed to create a new Formation.
type NewFormation struct {
	Title        string     `json:"title" validate:"required,notblank,max=200"`
	TrainerIDs   []string   `json:"trainer_ids" validate:"dive,required"`
	Region       string     `json:"region" validate:"omitempty,max=120"`
	Municipality string     `json:"municipality" validate:"omitempty,max=120"`
	StartsAt     *time.Time `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
	Cost         float64    `json:"cost" validate:"gte=0"`
	Notes        string     `json:"notes" validate:"omitempty,max=2000"`
}

func (nf *NewFormation) Validate(ctx context.Context, validate *validator.Validate, trainers TrainerLookup) error {
	nf.Title = core.CleanString(nf.Title)
	nf.TrainerIDs = cleanIDs(nf.TrainerIDs)
	nf.Region = core.CleanString(nf.Region)
	nf.Municipality = core.CleanString(nf.Municipality)
	nf.Notes = core.CleanString(nf.Notes)

	if err := validate.Struct(nf); err != nil {
		return err
	}
	if err := checkPeriod(nf.StartsAt, nf.EndsAt); err != nil {
		return err
	}
	return checkTrainers(ctx, nf.TrainerIDs, trainers)
}

// UpdateFormation defines what information may be provided to modify an existing Formation.
// Empty (nil) fields keep their current value.
type UpdateFormation struct {
	Title        string     `json:"title" validate:"omitempty,notblank,max=200"`
	TrainerIDs   []string   `json:"trainer_ids" validate:"omitempty,dive,required"`
	Region       *string    `json:"region" validate:"omitempty,max=120"`
	Municipality *string    `json:"municipality" validate:"omitempty,max=120"`
	StartsAt     *time.Time `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
	Cost         *float64   `json:"cost" validate:"omitempty,gte=0"`
	Notes        *string    `json:"notes" validate:"omitempty,max=2000"`
}

func (uf *UpdateFormation) Validate(ctx context.Context, orig Formation, validate *validator.Validate, trainers TrainerLookup) error {
	if title := core.CleanString(uf.Title); title != "" {
		uf.Title = title
	} else {
		uf.Title = orig.Title
	}
	if uf.TrainerIDs != nil {
		uf.TrainerIDs = cleanIDs(uf.TrainerIDs)
	} else {
		uf.TrainerIDs = orig.TrainerIDs
	}
	cleanPtr := func(s *string, origVal string) *string {
		if s == nil {
			return &origVal
		}
		v := core.CleanString(*s)
		return &v
	}
	uf.Region = cleanPtr(uf.Region, orig.Region)
	uf.Municipality = cleanPtr(uf.Municipality, orig.Municipality)
	uf.Notes = cleanPtr(uf.Notes, orig.Notes)
	if uf.StartsAt == nil {
		uf.StartsAt = orig.StartsAt
	}
	if uf.EndsAt == nil {
		uf.EndsAt = orig.EndsAt
	}
	if uf.Cost == nil {
		cost := orig.Cost
		uf.Cost = &cost
	}

	if err := validate.Struct(uf); err != nil {
		return err
	}
	if err := checkPeriod(uf.StartsAt, uf.EndsAt); err != nil {
		return err
	}
	return checkTrainers(ctx, uf.TrainerIDs, trainers)
}

type QueryFilter struct {
	// Search does a case-insensitive match on Title, Region or Municipality.
	Search       string `query:"search"`
	Region       string `query:"region"`
	Municipality string `query:"municipality"`
	TrainerID    string `query:"trainer_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Region = core.CleanString(qf.Region)
	qf.Municipality = core.CleanString(qf.Municipality)
	qf.TrainerID = core.CleanString(qf.TrainerID)
}

func cleanIDs(ids []string) []string {
	for i, id := range ids {
		ids[i] = core.CleanString(id)
	}
	return core.UniqueStrings(ids)
}

func checkPeriod(startsAt, endsAt *time.Time) error {
	if startsAt != nil && endsAt != nil && endsAt.Before(*startsAt) {
		return core.NewValidationError(nil, core.FieldError{Field: "ends_at", Error: "must be after starts_at"})
	}
	return nil
}

func checkTrainers(ctx context.Context, ids []string, trainers TrainerLookup) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := trainers.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(found))
	for _, t := range found {
		known[t.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return core.NewValidationError(nil, core.FieldError{Field: "trainer_ids", Error: "unknown trainer: " + id})
		}
	}
	return nil
}
