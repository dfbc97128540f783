package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbickford/vcs/internal/termcolor"
	"github.com/tbickford/vcs/internal/vcscore"
)

var statusPorcelain bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the working tree status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		status, err := repo.Status()
		if err != nil {
			return err
		}

		out, err := stdoutPainter()
		if err != nil {
			return err
		}

		if statusPorcelain {
			printPorcelain(out, status)
			return nil
		}
		printLongStatus(out, status)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&statusPorcelain, "porcelain", "s", false, "machine-readable output")
}

// printPorcelain emits the two-letter short format: index column, work
// column, path.
func printPorcelain(out *termcolor.Painter, status *vcscore.WorkTreeStatus) {
	for _, f := range status.Files {
		x, y := statusCodes(f)
		fmt.Fprintf(out, "%c%c %s\n", x, y, f.Path)
	}
}

func statusCodes(f vcscore.FileStatus) (x, y byte) {
	x, y = ' ', ' '
	if f.IsUntracked {
		return '?', '?'
	}

	switch f.IndexStatus {
	case vcscore.StatusLabelAdded:
		x = 'A'
	case vcscore.StatusLabelModified:
		x = 'M'
	case vcscore.StatusLabelDeleted:
		x = 'D'
	}
	switch f.WorkStatus {
	case vcscore.StatusLabelModified:
		y = 'M'
	case vcscore.StatusLabelDeleted:
		y = 'D'
	}
	return x, y
}

// printLongStatus renders the human format: staged, unstaged, and
// untracked sections, with unmodified paths suppressed.
func printLongStatus(out *termcolor.Painter, status *vcscore.WorkTreeStatus) {
	if status.Detached {
		fmt.Fprintf(out, "HEAD detached at %s\n", status.Head.Short())
	} else {
		fmt.Fprintf(out, "On branch %s\n", status.Branch)
	}

	var staged, unstaged, untracked []vcscore.FileStatus
	for _, f := range status.Files {
		if f.IsUntracked {
			untracked = append(untracked, f)
			continue
		}
		if f.IndexStatus != "" {
			staged = append(staged, f)
		}
		if f.WorkStatus != "" {
			unstaged = append(unstaged, f)
		}
	}

	if len(staged) > 0 {
		fmt.Fprintln(out, "Changes to be committed:")
		for _, f := range staged {
			fmt.Fprintf(out, "\t%s\n", out.Sprint(styleStaged, statusPrefix(f.IndexStatus)+f.Path))
		}
		fmt.Fprintln(out)
	}

	if len(unstaged) > 0 {
		fmt.Fprintln(out, "Changes not staged for commit:")
		fmt.Fprintln(out, "  (use \"vcs add <file>...\" to update what will be committed)")
		for _, f := range unstaged {
			fmt.Fprintf(out, "\t%s\n", out.Sprint(styleUnstaged, statusPrefix(f.WorkStatus)+f.Path))
		}
		fmt.Fprintln(out)
	}

	if len(untracked) > 0 {
		fmt.Fprintln(out, "Untracked files:")
		fmt.Fprintln(out, "  (use \"vcs add <file>...\" to include in what will be committed)")
		for _, f := range untracked {
			fmt.Fprintf(out, "\t%s\n", out.Sprint(styleUntracked, f.Path))
		}
		fmt.Fprintln(out)
	}

	if status.Clean() {
		fmt.Fprintln(out, "nothing to commit, working tree clean")
	}
}

func statusPrefix(label string) string {
	switch label {
	case vcscore.StatusLabelAdded:
		return "new file:   "
	case vcscore.StatusLabelModified:
		return "modified:   "
	case vcscore.StatusLabelDeleted:
		return "deleted:    "
	default:
		return ""
	}
}
