package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/apoiopedagogico/portal/apps/shared"
	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/account"
	"github.com/apoiopedagogico/portal/core/session"
	"github.com/apoiopedagogico/portal/storage/clientstore"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf     *core.Config
	logger   core.Logger
	validate *validator.Validate
	db       *sql.DB // nil with the memory engine
	repos    shared.Repositories
	mailSvc  core.EmailService
	creds    clientstore.CredentialStore
	hints    session.HintStore
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                  - run a goose command (up, down, status...)")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL -name NAME [-role ROLE] [-notify]  - create or update an account")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL                              - reset an account's password")
	fmt.Fprintln(cli.out, "  login -email EMAIL [-role ROLE]                         - sign in on this machine")
	fmt.Fprintln(cli.out, "  logout                                                  - sign out")
	fmt.Fprintln(cli.out, "  whoami                                                  - show the current session")
	fmt.Fprintln(cli.out, "  assignrole -role ROLE                                   - choose the role used without a profile")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// promptPassword reads a password without echo. An empty password prints the usage of fs.
func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) accounts(notify bool) *account.Service {
	var mailSvc core.EmailService
	if notify {
		mailSvc = cli.mailSvc
	}
	return account.NewService(cli.repos.Accounts, mailSvc, cli.conf)
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Fprintln(cli.out, "Usage: migrate COMMAND [ARGS]")
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	case "adduser":
		cmd := cli.newFlagSet("adduser")
		email := cmd.String("email", "", "The account email.")
		name := cmd.String("name", "", "The display name.")
		role := cmd.String("role", "", "The profile role: administrator or trainer.")
		notify := cmd.Bool("notify", false, "Send the welcome email.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" || *name == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(cmd)
		if err != nil {
			return err
		}
		return cli.addUser(ctx, *email, *name, *role, pwd, *notify)

	case "resetpassword":
		cmd := cli.newFlagSet("resetpassword")
		email := cmd.String("email", "", "The account email. The password will be prompted next.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(cmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(ctx, *email, pwd)

	case "login":
		cmd := cli.newFlagSet("login")
		email := cmd.String("email", "", "The account email. The password will be prompted next.")
		role := cmd.String("role", "", "The role used when the account has no profile.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(cmd)
		if err != nil {
			return err
		}
		return cli.login(ctx, *email, pwd, *role)

	case "logout":
		return cli.logout(ctx)

	case "whoami":
		return cli.whoami(ctx)

	case "assignrole":
		cmd := cli.newFlagSet("assignrole")
		role := cmd.String("role", "", "administrator or trainer.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *role == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.assignRole(ctx, *role)

	default:
		cli.printUsage()
		return errHelp
	}
}
