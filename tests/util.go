// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/account"
	"github.com/apoiopedagogico/portal/core/formation"
	"github.com/apoiopedagogico/portal/core/profile"
	"github.com/apoiopedagogico/portal/core/session"
	"github.com/apoiopedagogico/portal/core/trainer"
)

// NopLogger discards everything.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

// NewValidator returns a validator with every portal validation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	session.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	return validate, translator
}

func CreateAccount(t *testing.T, repo account.Repository, name, email, pwd string, isActive bool) account.Account {
	t.Helper()

	now := time.Now().UTC()
	acc := account.Account{
		Email:       email,
		DisplayName: name,
		IsActive:    isActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if pwd != "" {
		if err := acc.SetPassword(pwd); err != nil {
			t.Fatalf("CreateAccount() failed: %v", err)
		}
	}
	acc, err := repo.CreateAccount(context.Background(), acc)
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acc
}

func CreateProfile(t *testing.T, repo profile.Repository, uid string, role session.Role, name string) profile.Profile {
	t.Helper()

	p, err := repo.UpsertProfile(context.Background(), profile.Profile{
		UID:         uid,
		Role:        role,
		DisplayName: name,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return p
}

func CreateTrainer(t *testing.T, repo trainer.Repository, fullName, region string, accountID ...string) trainer.Trainer {
	t.Helper()

	now := time.Now().UTC()
	tr := trainer.Trainer{FullName: fullName, Region: region, CreatedAt: now, UpdatedAt: now}
	if len(accountID) > 0 {
		tr.AccountID = accountID[0]
	}
	tr, err := repo.CreateTrainer(context.Background(), tr)
	if err != nil {
		t.Fatalf("CreateTrainer() failed: %v", err)
	}
	return tr
}

func CreateFormation(t *testing.T, repo formation.Repository, title, region, municipality string, trainerIDs ...string) formation.Formation {
	t.Helper()

	now := time.Now().UTC()
	f, err := repo.CreateFormation(context.Background(), formation.Formation{
		Title:        title,
		TrainerIDs:   trainerIDs,
		Region:       region,
		Municipality: municipality,
		Cost:         1250.5,
		Notes:        "internal notes",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateFormation() failed: %v", err)
	}
	return f
}
