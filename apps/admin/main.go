package main

import (
	"context"
	"fmt"
	"os"

	"github.com/apoiopedagogico/portal/apps/shared"
	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/account"
)

func main() {
	os.Exit(run())
}

func run() int {
	conf := core.NewConfig()
	logger := shared.NewLogger(conf)
	defer logger.Close()

	ctx := context.Background()

	// the migrate command manages the schema itself
	migrate := len(os.Args) < 2 || os.Args[1] != "migrate"
	repos, err := shared.OpenRepositories(ctx, conf, migrate)
	if err != nil {
		logger.Error(fmt.Sprintf("setting up storage: %v", err), err)
		return 1
	}
	defer func() { _ = repos.Close() }()
	if conf.Database.Engine == shared.MemoryEngine {
		logger.Warn("using the memory engine: nothing will be saved")
	}

	stores, err := shared.OpenClientStores(conf)
	if err != nil {
		logger.Error(fmt.Sprintf("setting up client storage: %v", err), err)
		return 1
	}
	defer func() { _ = stores.Close() }()

	validate, _ := shared.NewValidator()
	core.ParseEmailTemplates(logger)
	account.LoadCommonPasswords(logger)

	cli := &commandLine{
		conf:     conf,
		logger:   logger,
		validate: validate,
		repos:    repos,
		mailSvc:  shared.NewMailService(conf, logger),
		creds:    stores.Creds,
		hints:    stores.Hints,
		out:      os.Stdout,
	}
	if repos.DB != nil {
		cli.db = repos.DB.DB
	}

	if err = cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		return 1
	}
	return 0
}
