package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbickford/vcs/internal/vcscore"
)

var branchCmd = &cobra.Command{
	Use:   "branch [name]",
	Short: "List branches, or create one at the current commit",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			return listBranches(repo)
		}
		return createBranch(repo, args[0])
	},
}

func listBranches(repo *vcscore.Repository) error {
	head, err := repo.Head()
	if err != nil {
		return err
	}
	branches, err := repo.Refs().Branches()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(branches))
	for name := range branches {
		names = append(names, name)
	}
	sort.Strings(names)

	out, err := stdoutPainter()
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == head.Branch {
			fmt.Fprintf(out, "* %s\n", out.Sprint(styleCurrent, name))
		} else {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	return nil
}

func createBranch(repo *vcscore.Repository, name string) error {
	// The engine treats names as opaque tokens; reject here empty names,
	// leading or trailing '/', "..", whitespace, backslash, and ~^:?*[.
	if name == "" || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") ||
		strings.ContainsAny(name, " \t\n\\~^:?*[") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid branch name: %q", name)
	}

	tip, err := repo.Refs().CurrentTip()
	if err != nil {
		return err
	}
	if tip == "" {
		return fmt.Errorf("cannot create branch %q: no commits yet", name)
	}
	return repo.Refs().CreateBranch(name, tip)
}
