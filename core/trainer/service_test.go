package trainer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/trainer"
	inmemdb "github.com/apoiopedagogico/portal/storage/database/inmem"
	testutil "github.com/apoiopedagogico/portal/tests"
)

func TestService_GetByIDs(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewTrainerRepository(inmemdb.Open())
	svc := trainer.NewService(repo)

	ana := testutil.CreateTrainer(t, repo, "Ana Silva", "Norte")
	bruno := testutil.CreateTrainer(t, repo, "Bruno Costa", "Centro")

	tests := []struct {
		name string
		ids  []string
		want []string
	}{
		{name: "nil", ids: nil, want: []string{}},
		{name: "only blanks", ids: []string{"", ""}, want: []string{}},
		{name: "unknown skipped", ids: []string{"ghost", ana.ID}, want: []string{"Ana Silva"}},
		{name: "duplicates", ids: []string{bruno.ID, bruno.ID}, want: []string{"Bruno Costa"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.GetByIDs(ctx, tt.ids)
			require.NoError(t, err)
			names := make([]string, 0, len(got))
			for _, tr := range got {
				names = append(names, tr.FullName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestService_AccountLink(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewTrainerRepository(inmemdb.Open())
	svc := trainer.NewService(repo)
	validate, _ := testutil.NewValidator()

	linked := testutil.CreateTrainer(t, repo, "Ana Silva", "Norte", "acc-1")

	nt := trainer.NewTrainer{AccountID: "acc-1", FullName: "Bruno Costa"}
	require.NoError(t, nt.Validate(validate))
	_, err := svc.Create(ctx, nt)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "account_id", verr.Fields[0].Field)

	// re-linking the same trainer is fine
	ut := trainer.UpdateTrainer{AccountID: "acc-1", Phone: " 912 345 678 "}
	require.NoError(t, ut.Validate(linked, validate))
	updated, err := svc.Update(ctx, linked, ut)
	require.NoError(t, err)
	assert.Equal(t, "912 345 678", updated.Phone)
	assert.Equal(t, "Ana Silva", updated.FullName)

	got, err := svc.GetByAccountID(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, linked.ID, got.ID)
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewTrainerRepository(inmemdb.Open())
	svc := trainer.NewService(repo)

	testutil.CreateTrainer(t, repo, "Carla Dias", "Norte")
	testutil.CreateTrainer(t, repo, "Ana Silva", "Norte")
	testutil.CreateTrainer(t, repo, "Bruno Costa", "Centro")

	tests := []struct {
		name     string
		filter   *trainer.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all by name", want: []string{"Ana Silva", "Bruno Costa", "Carla Dias"}},
		{name: "by name desc", ordering: []core.DBOrdering{{Field: "full_name"}}, want: []string{"Carla Dias", "Bruno Costa", "Ana Silva"}},
		{name: "region", filter: &trainer.QueryFilter{Region: "norte"}, want: []string{"Ana Silva", "Carla Dias"}},
		{name: "search", filter: &trainer.QueryFilter{Search: "cost"}, want: []string{"Bruno Costa"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Query(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			names := make([]string, 0, len(got))
			for _, tr := range got {
				names = append(names, tr.FullName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
