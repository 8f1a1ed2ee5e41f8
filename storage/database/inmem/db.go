package inmemdb

import (
	"sort"
	"strings"
	"sync"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/account"
	"github.com/apoiopedagogico/portal/core/formation"
	"github.com/apoiopedagogico/portal/core/profile"
	"github.com/apoiopedagogico/portal/core/trainer"
)

type (
	DB struct {
		account   *accountTable
		profile   *profileTable
		trainer   *trainerTable
		formation *formationTable
	}

	accountTable struct {
		sync.RWMutex
		table map[string]*account.Account
	}

	profileTable struct {
		sync.RWMutex
		table map[string]*profile.Profile
	}

	trainerTable struct {
		sync.RWMutex
		table map[string]*trainer.Trainer
	}

	formationTable struct {
		sync.RWMutex
		table map[string]*formation.Formation
	}
)

// Open returns an empty database living in memory. It is used by tests and by the DEV server when no
// database is configured.
func Open() *DB {
	return &DB{
		account:   &accountTable{table: make(map[string]*account.Account)},
		profile:   &profileTable{table: make(map[string]*profile.Profile)},
		trainer:   &trainerTable{table: make(map[string]*trainer.Trainer)},
		formation: &formationTable{table: make(map[string]*formation.Formation)},
	}
}

// comparator returns <0, 0 or >0 like strings.Compare.
type comparator[T any] func(a, b T) int

// sortBy sorts items by the orderings whose field has a comparator, falling back to def.
func sortBy[T any](items []T, orderings []core.DBOrdering, cmps map[string]comparator[T], def core.DBOrdering) {
	ords := make([]core.DBOrdering, 0, len(orderings)+1)
	for _, ord := range orderings {
		if _, ok := cmps[ord.Field]; ok {
			ords = append(ords, ord)
		}
	}
	ords = append(ords, def)

	sort.SliceStable(items, func(i, j int) bool {
		for _, ord := range ords {
			c := cmps[ord.Field](items[i], items[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
