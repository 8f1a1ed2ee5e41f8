package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/account"
	"github.com/apoiopedagogico/portal/core/profile"
)

// addUser creates an account, or resets the password of an existing one and reactivates it.
// A role creates or updates the profile record of the account.
func (cli *commandLine) addUser(ctx context.Context, email, name, role, pwd string, notify bool) error {
	accounts := cli.accounts(notify)

	acc, err := accounts.GetByEmail(ctx, email)
	switch {
	case errors.Cause(err) == account.ErrNotFound:
		na := account.NewAccount{DisplayName: name, Email: email, Password: pwd, PasswordConfirm: pwd, Role: role}
		if err = na.Validate(ctx, cli.validate, accounts); err != nil {
			return err
		}
		if acc, err = accounts.Create(ctx, na); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "created account %s (%s)\n", acc.Email, acc.ID)
	case err != nil:
		return err
	default:
		if _, err = accounts.SetPassword(ctx, email, pwd); err != nil {
			return err
		}
		if acc, err = accounts.SetActive(ctx, acc.ID, true); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "updated account %s (%s)\n", acc.Email, acc.ID)
	}

	if role = core.CleanString(role, true /* lower */); role == "" {
		return nil
	}
	up := profile.UpdateProfile{Role: role, DisplayName: name}
	if err = up.Validate(cli.validate); err != nil {
		return err
	}
	if _, err = profile.NewService(cli.repos.Profiles).Upsert(ctx, acc.ID, up); err != nil {
		return errors.Wrap(err, "saving profile")
	}
	fmt.Fprintf(cli.out, "profile role: %s\n", role)
	return nil
}
