package session

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/apoiopedagogico/portal/core"
)

// Role is the closed set of portal roles.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleTrainer       Role = "trainer"

	// DefaultRole is assigned whenever no valid role can be resolved.
	DefaultRole = RoleTrainer
)

var (
	AllRoles = []Role{RoleAdministrator, RoleTrainer}

	roleTag  = "role"
	roleText = "must be one of: administrator, trainer"
)

// ParseRole returns the Role matching s, or false when s is not a known role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(core.CleanString(s, true /* lower */)); r {
	case RoleAdministrator, RoleTrainer:
		return r, true
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

func (r Role) IsAdmin() bool { return r == RoleAdministrator }

// DefaultLabel is the display name used when neither the profile nor the provider carries one.
func (r Role) DefaultLabel() string {
	if r == RoleAdministrator {
		return "Administrador"
	}
	return "Formador"
}

// HomePath is where a signed-in user of this role lands.
func (r Role) HomePath() string {
	if r == RoleAdministrator {
		return "/admin"
	}
	return "/formador"
}

// Allows reports whether a user with role r may access a resource restricted to required.
// Administrators are allowed everywhere.
func (r Role) Allows(required Role) bool {
	return r == RoleAdministrator || r == required
}

// InitValidators registers the `role` validation tag.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || Role(s).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}
