// Package sqlxrepos implements the account, profile and trainer repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

// orderBy renders an ORDER BY clause from orderings whose field is in allowed, followed by def.
func orderBy(orderings []core.DBOrdering, allowed map[string]string, def string) string {
	ords := core.FilterOrderings(orderings, allowed)
	list := make([]string, 0, len(ords)+1)
	for _, ord := range ords {
		list = append(list, ord.String())
	}
	list = append(list, def)
	return " ORDER BY " + strings.Join(list, ", ")
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
