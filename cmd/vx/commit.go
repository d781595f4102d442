package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/sbalabanov/vx/internal/vxerr"
	"github.com/sbalabanov/vx/internal/vxrepo"
)

func runCommit(repo *vxrepo.Repo, args []string) int {
	message, ok := parseMessageFlag(args)
	if !ok {
		fmt.Fprintln(os.Stderr, `usage: vx commit -m "<message>"`)
		return 1
	}

	spinner, _ := pterm.DefaultSpinner.Start("persisting working tree")
	c, err := repo.Commit(message)
	if err != nil {
		if spinner != nil {
			spinner.Fail(err.Error())
		}
		if errors.Is(err, vxerr.ErrNoChanges) {
			fmt.Println("nothing to commit, working tree clean")
			return 1
		}
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}
	if spinner != nil {
		spinner.Success(fmt.Sprintf("commit %d (ver %d)", c.ID.Seq, c.Ver))
	} else {
		fmt.Printf("commit %d (ver %d): %s\n", c.ID.Seq, c.Ver, c.Message)
	}
	return 0
}

// parseMessageFlag extracts -m <message> / --message <message> from args.
func parseMessageFlag(args []string) (string, bool) {
	for i := 0; i < len(args); i++ {
		if (args[i] == "-m" || args[i] == "--message") && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}
