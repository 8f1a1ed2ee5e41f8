package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	acc, err := cli.accounts(false).SetPassword(ctx, email, pwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password changed for %s\n", acc.Email)
	return nil
}
