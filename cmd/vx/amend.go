package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sbalabanov/vx/internal/vxerr"
	"github.com/sbalabanov/vx/internal/vxrepo"
)

func runAmend(repo *vxrepo.Repo, args []string) int {
	var messagePtr *string
	if message, ok := parseMessageFlag(args); ok {
		messagePtr = &message
	}

	c, err := repo.Amend(messagePtr)
	if err != nil {
		switch {
		case errors.Is(err, vxerr.ErrNoChanges):
			fmt.Println("nothing to amend, tree and message unchanged")
			return 1
		case errors.Is(err, vxerr.ErrCannotAmendSentinel):
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		default:
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			return 128
		}
	}

	fmt.Printf("amended commit %d (ver %d): %s\n", c.ID.Seq, c.Ver, c.Message)
	return 0
}
