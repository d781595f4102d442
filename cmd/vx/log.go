package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sbalabanov/vx/internal/digest"
	"github.com/sbalabanov/vx/internal/termcolor"
	"github.com/sbalabanov/vx/internal/vxrepo"
)

func runLog(repo *vxrepo.Repo, args []string, cw *termcolor.Writer) int {
	branchName := ""
	if len(args) == 1 {
		branchName = args[0]
	}

	commits, err := repo.Log(branchName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	for i, c := range commits {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s %d %s\n", cw.Yellow("seq"), c.ID.Seq, digest.ToHex(c.Hash)[:12])
		fmt.Printf("tree:   %s\n", digest.ToHex(c.TreeHash))
		fmt.Printf("ver:    %d\n", c.Ver)
		fmt.Println()
		for _, line := range strings.Split(c.Message, "\n") {
			fmt.Printf("    %s\n", line)
		}
	}
	return 0
}
