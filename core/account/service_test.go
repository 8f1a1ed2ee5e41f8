package account_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/account"
	emailsvc "github.com/apoiopedagogico/portal/services/email"
	inmemdb "github.com/apoiopedagogico/portal/storage/database/inmem"
	testutil "github.com/apoiopedagogico/portal/tests"
)

type fixture struct {
	svc      *account.Service
	repo     account.Repository
	mail     *emailsvc.ConsoleServiceMock
	validate *validator.Validate
}

func newFixture() *fixture {
	logger := testutil.NopLogger{}
	conf := core.NewTestConfig()
	core.ParseEmailTemplates(logger)
	account.LoadCommonPasswords(logger)

	fx := &fixture{
		repo: inmemdb.NewAccountRepository(inmemdb.Open()),
		mail: emailsvc.NewConsoleServiceMock(conf, logger),
	}
	fx.svc = account.NewService(fx.repo, fx.mail, conf)
	fx.validate, _ = testutil.NewValidator()
	return fx
}

func TestNewAccount_Validate(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	testutil.CreateAccount(t, fx.repo, "Taken", "taken@escola.pt", "Secret#2024", true)

	tests := []struct {
		name      string
		na        account.NewAccount
		wantField string
	}{
		{name: "missing email", na: account.NewAccount{DisplayName: "Ana", Password: "Xy9#long-pwd", PasswordConfirm: "Xy9#long-pwd"}, wantField: "email"},
		{name: "short password", na: account.NewAccount{DisplayName: "Ana", Email: "ana@escola.pt", Password: "Xy9#", PasswordConfirm: "Xy9#"}, wantField: "password"},
		{name: "all numeric", na: account.NewAccount{DisplayName: "Ana", Email: "ana@escola.pt", Password: "1234567890", PasswordConfirm: "1234567890"}, wantField: "password"},
		{name: "no complexity", na: account.NewAccount{DisplayName: "Ana", Email: "ana@escola.pt", Password: "abcdefghij", PasswordConfirm: "abcdefghij"}, wantField: "password"},
		{name: "confirm mismatch", na: account.NewAccount{DisplayName: "Ana", Email: "ana@escola.pt", Password: "Xy9#long-pwd", PasswordConfirm: "Xy9#long-pwe"}, wantField: "password_confirm"},
		{name: "unknown role", na: account.NewAccount{DisplayName: "Ana", Email: "ana@escola.pt", Password: "Xy9#long-pwd", PasswordConfirm: "Xy9#long-pwd", Role: "root"}, wantField: "role"},
		{name: "email taken", na: account.NewAccount{DisplayName: "Ana", Email: " TAKEN@escola.pt", Password: "Xy9#long-pwd", PasswordConfirm: "Xy9#long-pwd"}, wantField: "email"},
		{name: "valid", na: account.NewAccount{DisplayName: "Ana", Email: "ana@escola.pt", Password: "Xy9#long-pwd", PasswordConfirm: "Xy9#long-pwd", Role: "Trainer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.na.Validate(ctx, fx.validate, fx.svc)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			switch e := err.(type) {
			case validator.ValidationErrors:
				assert.Equal(t, tt.wantField, e[0].Field())
			case *core.ValidationError:
				assert.Equal(t, tt.wantField, e.Fields[0].Field)
			default:
				t.Fatalf("unexpected error type %T: %v", err, err)
			}
		})
	}
}

func TestService_CreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	na := account.NewAccount{DisplayName: "Ana Silva", Email: "Ana@Escola.pt", Password: "Xy9#long-pwd", PasswordConfirm: "Xy9#long-pwd"}
	require.NoError(t, na.Validate(ctx, fx.validate, fx.svc))
	acc, err := fx.svc.Create(ctx, na)
	require.NoError(t, err)
	assert.NotEmpty(t, acc.ID)
	assert.Equal(t, "ana@escola.pt", acc.Email)
	assert.True(t, acc.IsActive)

	sent := fx.mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "ana@escola.pt", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Ana Silva")
	assert.Contains(t, sent[0].HTMLContent, "ana@escola.pt")

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "unknown email", email: "nobody@escola.pt", pwd: "Xy9#long-pwd", wantErr: account.ErrInvalidCredentials},
		{name: "wrong password", email: "ana@escola.pt", pwd: "nope", wantErr: account.ErrInvalidCredentials},
		{name: "case insensitive email", email: " ANA@escola.pt ", pwd: "Xy9#long-pwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fx.svc.Authenticate(ctx, tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, acc.ID, got.ID)
			assert.False(t, got.LastLogin.IsZero())
		})
	}

	_, err = fx.svc.SetActive(ctx, acc.ID, false)
	require.NoError(t, err)
	_, err = fx.svc.Authenticate(ctx, "ana@escola.pt", "Xy9#long-pwd")
	assert.Equal(t, account.ErrAccountDeactivated, err)
}

func TestService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	acc := testutil.CreateAccount(t, fx.repo, "Ana Silva", "ana@escola.pt", "Xy9#long-pwd", true)

	require.NoError(t, fx.svc.RequestPasswordReset(ctx, "ana@escola.pt"))
	sent := fx.mail.SentMessages()
	require.Len(t, sent, 1)
	data := sent[0].TemplateData.(map[string]string)
	assert.Contains(t, sent[0].TextContent, data["Token"])

	t.Run("bad token", func(t *testing.T) {
		_, err := fx.svc.ResetPassword(ctx, account.ResetAccountPassword{UID: data["UID"], Token: "HE4TS-sig", Password: "N3w#password", PasswordConfirm: "N3w#password"})
		var verr *core.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	reset := account.ResetAccountPassword{UID: data["UID"], Token: data["Token"], Password: "N3w#password", PasswordConfirm: "N3w#password"}
	require.NoError(t, reset.Validate(fx.validate))
	_, err := fx.svc.ResetPassword(ctx, reset)
	require.NoError(t, err)

	_, err = fx.svc.Authenticate(ctx, acc.Email, "N3w#password")
	assert.NoError(t, err)

	t.Run("token is single use", func(t *testing.T) {
		_, err := fx.svc.ResetPassword(ctx, reset)
		assert.Error(t, err)
	})
}
