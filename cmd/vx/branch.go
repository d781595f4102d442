package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/sbalabanov/vx/internal/termcolor"
	"github.com/sbalabanov/vx/internal/vxrepo"
)

func runBranch(repo *vxrepo.Repo, args []string, cw *termcolor.Writer) int {
	if len(args) == 1 {
		return runBranchCreate(repo, args[0])
	}

	branches, err := repo.ListBranches()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })

	current, err := repo.CurrentBranch()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	for _, b := range branches {
		if b.ID == current.ID {
			fmt.Printf("* %s\n", cw.Green(b.Name))
		} else {
			fmt.Printf("  %s\n", b.Name)
		}
	}
	return 0
}

func runBranchCreate(repo *vxrepo.Repo, name string) int {
	b, err := repo.CreateBranch(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}
	fmt.Printf("created branch %s\n", b.Name)
	return 0
}
