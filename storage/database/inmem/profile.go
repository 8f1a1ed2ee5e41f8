package inmemdb

import (
	"context"
	"strings"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/profile"
)

var profileComparators = map[string]comparator[profile.Profile]{
	"uid":          func(a, b profile.Profile) int { return strings.Compare(a.UID, b.UID) },
	"role":         func(a, b profile.Profile) int { return strings.Compare(string(a.Role), string(b.Role)) },
	"display_name": func(a, b profile.Profile) int { return strings.Compare(a.DisplayName, b.DisplayName) },
	"updated_at":   func(a, b profile.Profile) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

type profileRepository struct {
	db *profileTable
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db.profile}
}

func (repo *profileRepository) GetProfile(_ context.Context, uid string) (profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.table[uid]; ok {
		return *p, nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) QueryProfiles(_ context.Context, filter *profile.QueryFilter, ordering []core.DBOrdering) ([]profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	roles := make(map[string]struct{})
	if filter != nil {
		for _, r := range filter.Roles {
			roles[r] = struct{}{}
		}
	}

	profiles := make([]profile.Profile, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		if filter != nil {
			if filter.Search != "" && !(containsFold(p.UID, filter.Search) || containsFold(p.DisplayName, filter.Search)) {
				continue
			}
			if len(roles) > 0 {
				if _, ok := roles[string(p.Role)]; !ok {
					continue
				}
			}
		}
		profiles = append(profiles, *p)
	}
	sortBy(profiles, ordering, profileComparators, core.DBOrdering{Field: "uid", Ascending: true})
	return profiles, nil
}

func (repo *profileRepository) UpsertProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[p.UID] = &p
	return p, nil
}

func (repo *profileRepository) DeleteProfile(_ context.Context, uid string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.table, uid)
	return nil
}
