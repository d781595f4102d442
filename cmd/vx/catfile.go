package main

import (
	"fmt"
	"os"

	"github.com/sbalabanov/vx/internal/vxrepo"
)

func runCatFile(repo *vxrepo.Repo, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: vx cat-file <digest>")
		return 1
	}

	kind, data, err := repo.CatFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	fmt.Fprintf(os.Stderr, "# %s, %d bytes\n", kind, len(data))
	_, _ = os.Stdout.Write(data)
	return 0
}
