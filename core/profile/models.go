package profile

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/session"
)

// Profile is the portal record of a user, keyed by the identity provider UID.
// Role and DisplayName are optional; session resolution supplies the defaults.
type Profile struct {
	UID         string       `json:"uid"`
	Role        session.Role `json:"role,omitempty"`
	DisplayName string       `json:"display_name,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at"` // UTC
}

// UpdateProfile defines what an administrator may set on a profile.
type UpdateProfile struct {
	Role        string `json:"role" validate:"omitempty,role"`
	DisplayName string `json:"display_name" validate:"omitempty,notblank,max=120"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.Role = core.CleanString(up.Role, true /* lower */)
	up.DisplayName = core.CleanString(up.DisplayName)
	return validate.Struct(up)
}

type QueryFilter struct {
	Search string   `query:"search"`
	Roles  []string `query:"role"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	for i, r := range qf.Roles {
		qf.Roles[i] = core.CleanString(r, true /* lower */)
	}
}
