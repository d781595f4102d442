package main

import (
	"fmt"
	"os"

	"github.com/sbalabanov/vx/internal/snapshot"
	"github.com/sbalabanov/vx/internal/termcolor"
	"github.com/sbalabanov/vx/internal/vxrepo"
)

func runStatus(repo *vxrepo.Repo, _ []string, cw *termcolor.Writer) int {
	changes, err := repo.Status()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	if len(changes) == 0 {
		fmt.Println("nothing to commit, working tree clean")
		return 0
	}

	for _, c := range changes {
		var code string
		switch c.Kind {
		case snapshot.Added:
			code = cw.Green("added:    ")
		case snapshot.Deleted:
			code = cw.Red("deleted:  ")
		case snapshot.Modified:
			code = cw.Yellow("modified: ")
		}
		fmt.Printf("\t%s%s\n", code, c.Path)
	}
	return 0
}
