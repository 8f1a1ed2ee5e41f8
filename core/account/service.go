package account

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
)

var (
	// errors
	ErrNotFound           = errors.New("account not found")
	ErrEmailExists        = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error
		CreateAccount(ctx context.Context, acc Account) (Account, error)
		GetAccountByID(ctx context.Context, id string) (Account, error)
		GetAccountByEmail(ctx context.Context, email string) (Account, error)
		UpdateAccount(ctx context.Context, acc Account) (Account, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		tokens  tokenGenerator
		appName string
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		tokens: tokenGenerator{
			secret:  []byte(conf.SecretKey),
			timeout: conf.PasswordResetTimeoutDelta,
			now:     time.Now,
		},
		appName: conf.AppName,
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludedIDs...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create stores a new active account and sends the welcome email. The data must have been validated.
func (svc *Service) Create(ctx context.Context, na NewAccount) (Account, error) {
	now := time.Now().UTC()
	acc := Account{
		Email:       na.Email,
		DisplayName: na.DisplayName,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	acc, err := svc.repo.CreateAccount(ctx, acc)
	if err != nil {
		return Account{}, errors.Wrap(err, "creating account")
	}
	svc.sendWelcomeMail(acc)
	return acc, nil
}

// Authenticate checks the credentials and records the login time.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Account, error) {
	acc, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, errors.Wrap(err, "finding account by email")
	}
	if err = acc.CheckPassword(pwd); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	if !acc.IsActive {
		return Account{}, ErrAccountDeactivated
	}
	acc.LastLogin = time.Now().UTC()
	acc, err = svc.repo.UpdateAccount(ctx, acc)
	if err != nil {
		return Account{}, errors.Wrap(err, "setting lastLogin")
	}
	return acc, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccountByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
}

// SetPassword replaces the password of the account identified by email, without any policy check.
func (svc *Service) SetPassword(ctx context.Context, email, pwd string) (Account, error) {
	acc, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return Account{}, err
	}
	if err = acc.SetPassword(pwd); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	acc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acc)
}

func (svc *Service) SetActive(ctx context.Context, id string, active bool) (Account, error) {
	acc, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	acc.IsActive = active
	acc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acc)
}

// RequestPasswordReset emails a reset link to the account owner, if there is one.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	acc, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !acc.IsActive {
		return ErrAccountDeactivated
	}
	token, err := svc.tokens.makeToken(acc)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acc.DisplayName, Address: acc.Email}},
		Subject:      "Redefinir palavra-passe",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Name":  acc.DisplayName,
			"UID":   encodeUID(acc),
			"Token": token,
		},
	})
	return nil
}

// ResetPassword sets a new password after checking the reset token. The data must have been validated.
func (svc *Service) ResetPassword(ctx context.Context, data ResetAccountPassword) (Account, error) {
	invalid := core.NewValidationError(errors.New("invalid token"))

	id, err := decodeUID(data.UID)
	if err != nil {
		return Account{}, invalid
	}
	acc, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{}, invalid
		}
		return Account{}, errors.Wrap(err, "finding account by id")
	}
	if err = svc.tokens.verifyToken(acc, data.Token); err != nil {
		return Account{}, core.NewValidationError(err)
	}
	if err = acc.SetPassword(data.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	acc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acc)
}

func (svc *Service) sendWelcomeMail(acc Account) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acc.DisplayName, Address: acc.Email}},
		Subject:      fmt.Sprintf("Bem-vindo ao %s", svc.appName),
		TemplateName: "welcome",
		TemplateData: map[string]string{"Name": acc.DisplayName, "Email": acc.Email},
	})
}
