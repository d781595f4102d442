package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/sbalabanov/vx/internal/vxrepo"
)

func runCheckout(repo *vxrepo.Repo, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: vx checkout <commit-spec>")
		return 1
	}

	spinner, _ := pterm.DefaultSpinner.Start("checking out " + args[0])
	if err := repo.Checkout(args[0]); err != nil {
		if spinner != nil {
			spinner.Fail(err.Error())
		}
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}
	if spinner != nil {
		spinner.Success("checked out " + args[0])
	}
	return 0
}
