package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pterm/pterm"

	"github.com/sbalabanov/vx/internal/termcolor"
	"github.com/sbalabanov/vx/internal/vxerr"
	"github.com/sbalabanov/vx/internal/vxrepo"
)

func runInit(args []string, _ *termcolor.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: vx init <name>")
		return 1
	}
	name := args[0]

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	spinner, _ := pterm.DefaultSpinner.Start("initializing repository " + name)
	repo, err := vxrepo.New(cwd, name, slog.Default())
	if err != nil {
		if spinner != nil {
			spinner.Fail(err.Error())
		}
		if errors.Is(err, vxerr.ErrRepoExists) || errors.Is(err, vxerr.ErrInvalidName) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}
	defer repo.Close()

	if spinner != nil {
		spinner.Success("initialized empty repository in " + repo.Context().WorkspacePath)
	} else {
		fmt.Printf("Initialized empty repository in %s\n", repo.Context().WorkspacePath)
	}
	return 0
}
