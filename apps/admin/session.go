package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core/profile"
	"github.com/apoiopedagogico/portal/core/session"
	"github.com/apoiopedagogico/portal/services/identity"
)

const sessionTimeout = 10 * time.Second

var errNotSignedIn = errors.New("not signed in: use login -role to choose a role")

func (cli *commandLine) provider(ctx context.Context) (session.IdentityProvider, error) {
	if cli.conf.Identity.Provider == "oidc" {
		p, err := identity.NewOIDCProvider(ctx, cli.conf)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	p, err := identity.NewLocalProvider(ctx, cli.accounts(false), cli.creds)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// withGate runs fn with a started session gate, once the session restored from the client storage has
// been resolved. The gate is stopped when fn returns.
func (cli *commandLine) withGate(ctx context.Context, fn func(ctx context.Context, g *session.Gate) error) error {
	provider, err := cli.provider(ctx)
	if err != nil {
		return errors.Wrap(err, "setting up identity provider")
	}

	ctx, cancel := context.WithTimeout(ctx, sessionTimeout)
	defer cancel()

	g := session.NewGate(provider, profile.NewService(cli.repos.Profiles), cli.hints, cli.logger)
	g.Start(ctx)
	defer g.Stop()

	if _, err = g.WaitForSession(ctx, ""); err != nil {
		return err
	}
	return fn(ctx, g)
}

func (cli *commandLine) printSession(s *session.Session) {
	if s == nil {
		fmt.Fprintln(cli.out, "not signed in")
		return
	}
	fmt.Fprintf(cli.out, "%s <%s>\nrole: %s\nhome: %s\n", s.DisplayName, s.Email, s.Role, s.HomePath())
}

// login signs in. role, when set, is saved as the hint before signing in.
func (cli *commandLine) login(ctx context.Context, email, pwd, role string) error {
	return cli.withGate(ctx, func(ctx context.Context, g *session.Gate) error {
		if role != "" {
			if err := g.AssignRole(ctx, session.Role(role)); err != nil {
				return err
			}
		}
		id, err := g.Login(ctx, email, pwd)
		if err != nil {
			return err
		}
		s, err := g.WaitForSession(ctx, id.UID)
		if err != nil {
			return err
		}
		cli.printSession(s)
		return nil
	})
}

func (cli *commandLine) logout(ctx context.Context) error {
	return cli.withGate(ctx, func(ctx context.Context, g *session.Gate) error {
		if err := g.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "signed out")
		return nil
	})
}

func (cli *commandLine) whoami(ctx context.Context) error {
	return cli.withGate(ctx, func(_ context.Context, g *session.Gate) error {
		cli.printSession(g.Current())
		return nil
	})
}

// assignRole saves the role hint of the signed-in user. It applies from the next session resolution,
// and only to users without a profile record.
func (cli *commandLine) assignRole(ctx context.Context, role string) error {
	return cli.withGate(ctx, func(ctx context.Context, g *session.Gate) error {
		if g.Current() == nil {
			return errNotSignedIn
		}
		if err := g.AssignRole(ctx, session.Role(role)); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "role hint saved: %s\n", role)
		return nil
	})
}
