package main

import (
	"context"

	"github.com/apoiopedagogico/portal/apps/shared"
	"github.com/apoiopedagogico/portal/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	if cli.db == nil {
		return shared.ErrNoDatabase
	}
	return gooseRunFunc(ctx, cli.db, args[0], args[1:]...)
}
