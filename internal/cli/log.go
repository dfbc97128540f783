package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logMaxCount int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show commit history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		commits, err := repo.Log(logMaxCount)
		if err != nil {
			return err
		}

		out, err := stdoutPainter()
		if err != nil {
			return err
		}

		for i, commit := range commits {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s\n", out.Sprint(styleCommit, "commit "+string(commit.ID)))
			fmt.Fprintf(out, "Author: %s <%s>\n", commit.Author.Name, commit.Author.Email)
			fmt.Fprintf(out, "Date:   %s\n", commit.Author.When.Format("Mon Jan 2 15:04:05 2006 -0700"))
			fmt.Fprintf(out, "\n    %s\n", commit.Message)
		}
		return nil
	},
}

func init() {
	logCmd.Flags().IntVarP(&logMaxCount, "max-count", "n", 0, "limit the number of commits shown")
}
