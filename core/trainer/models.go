package trainer

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/apoiopedagogico/portal/core"
)

// Trainer is a member of the trainer roster ("formador").
type Trainer struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id,omitempty"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Region    string    `json:"region,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewTrainer contains information needed to create a new Trainer.
type NewTrainer struct {
	AccountID string `json:"account_id"`
	FullName  string `json:"full_name" validate:"required,notblank,max=160"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Region    string `json:"region" validate:"omitempty,max=80"`
}

func (nt *NewTrainer) Validate(validate *validator.Validate) error {
	nt.AccountID = core.CleanString(nt.AccountID)
	nt.FullName = core.CleanString(nt.FullName)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Phone = core.CleanString(nt.Phone)
	nt.Region = core.CleanString(nt.Region)
	return validate.Struct(nt)
}

// UpdateTrainer defines what information may be provided to modify an existing Trainer.
// Empty fields keep their current value.
type UpdateTrainer struct {
	AccountID string `json:"account_id"`
	FullName  string `json:"full_name" validate:"omitempty,notblank,max=160"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Region    string `json:"region" validate:"omitempty,max=80"`
}

func (ut *UpdateTrainer) Validate(orig Trainer, validate *validator.Validate) error {
	keep := func(val, origVal string, lower ...bool) string {
		if v := core.CleanString(val, lower...); v != "" {
			return v
		}
		return origVal
	}
	ut.AccountID = keep(ut.AccountID, orig.AccountID)
	ut.FullName = keep(ut.FullName, orig.FullName)
	ut.Email = keep(ut.Email, orig.Email, true /* lower */)
	ut.Phone = keep(ut.Phone, orig.Phone)
	ut.Region = keep(ut.Region, orig.Region)
	return validate.Struct(ut)
}

type QueryFilter struct {
	// Search does a case-insensitive match on FullName, Email or Region.
	Search string `query:"search"`
	Region string `query:"region"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Region = core.CleanString(qf.Region)
}
