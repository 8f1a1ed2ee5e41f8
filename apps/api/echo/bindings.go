package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/apoiopedagogico/portal/core"
)

var (
	orderingParam = "ordering"
	idParam       = "id"
)

// Ordering binds `?ordering=title,-created_at`. Unknown fields are dropped by the repositories.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// idsParam returns the non-empty values of `?id=a&id=b`.
func idsParam(ctx echo.Context) []string {
	ids := make([]string, 0, len(ctx.QueryParams()[idParam]))
	for _, id := range ctx.QueryParams()[idParam] {
		if id = core.CleanString(id); id != "" {
			ids = append(ids, id)
		}
	}
	return core.UniqueStrings(ids)
}
