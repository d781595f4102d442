package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/sbalabanov/vx/internal/cli"
	"github.com/sbalabanov/vx/internal/termcolor"
	"github.com/sbalabanov/vx/internal/vxrepo"
)

// Build-time variables set via -ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	initLogger()

	gf, args := parseGlobalFlags(os.Args[1:])

	for _, a := range args {
		if a == "--version" {
			printVersion()
			os.Exit(0)
		}
	}

	cw := termcolor.NewWriter(os.Stdout, gf.colorMode)

	app := cli.NewApp("vx", version)
	app.Stderr = os.Stderr

	// repo is populated after dispatch determines the matched command
	// needs one; command closures capture the pointer and see it once set.
	var repo *vxrepo.Repo

	app.Register(&cli.Command{
		Name:    "init",
		Summary: "Create a new repository",
		Usage:   "vx init <name>",
		Run:     func(args []string) int { return runInit(args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "status",
		Summary:   "Show working tree status",
		Usage:     "vx status",
		NeedsRepo: true,
		Run:       func(args []string) int { return runStatus(repo, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "commit",
		Summary:   "Record the working tree as a new commit",
		Usage:     "vx commit -m <message>",
		Examples:  []string{`vx commit -m "add parser"`},
		NeedsRepo: true,
		Run:       func(args []string) int { return runCommit(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "amend",
		Summary:   "Amend the current commit's tree and/or message",
		Usage:     "vx amend [-m <message>]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runAmend(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "checkout",
		Summary:   "Materialize a commit's tree onto the working directory",
		Usage:     "vx checkout <commit-spec>",
		Examples:  []string{"vx checkout main:3", "vx checkout feature/x"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runCheckout(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "branch",
		Summary:   "Create or list branches",
		Usage:     "vx branch [<name>]",
		Examples:  []string{"vx branch", "vx branch feature/x"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runBranch(repo, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "log",
		Summary:   "Show commit history",
		Usage:     "vx log [<branch>]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runLog(repo, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "cat-file",
		Summary:   "Show the raw content of a stored object",
		Usage:     "vx cat-file <digest>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runCatFile(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "watch",
		Summary:   "Watch the working tree and report changes as they happen",
		Usage:     "vx watch",
		NeedsRepo: true,
		Run:       func(args []string) int { return runWatch(repo, args, cw) },
	})

	app.Register(&cli.Command{
		Name:    "update",
		Summary: "Update to the latest release",
		Usage:   "vx update [--check]",
		Run:     func(args []string) int { return runUpdate(args) },
	})

	app.Register(&cli.Command{
		Name:    "version",
		Summary: "Show version information",
		Usage:   "vx version",
		Run:     func([]string) int { printVersion(); return 0 },
	})

	if len(args) > 0 {
		cmd := app.Lookup(args[0])
		if cmd != nil && cmd.NeedsRepo && args[0] != "init" {
			var err error
			repo, err = openRepoFromCwd()
			if err != nil {
				fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
				os.Exit(128)
			}
			defer repo.Close()
		}
	}

	os.Exit(app.Run(args, cw))
}

// openRepoFromCwd opens the repository rooted at VX_DIR, or the current
// directory when unset.
func openRepoFromCwd() (*vxrepo.Repo, error) {
	workspacePath := os.Getenv("VX_DIR")
	if workspacePath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		workspacePath = cwd
	}
	return vxrepo.OpenAt(workspacePath, slog.Default())
}

func printVersion() {
	fmt.Printf("vx %s\n", version)
	fmt.Printf("  commit:     %s\n", commit)
	fmt.Printf("  built:      %s\n", buildDate)
	fmt.Printf("  go version: %s\n", runtime.Version())
	fmt.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
