package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var commitMessage string

var commitCmd = &cobra.Command{
	Use:   "commit -m <message>",
	Short: "Record changes to the repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if commitMessage == "" {
			return fmt.Errorf("missing commit message (use -m)")
		}

		repo, err := openRepo()
		if err != nil {
			return err
		}

		commit, err := repo.Commit(commitMessage)
		if err != nil {
			return err
		}

		head, err := repo.Head()
		if err != nil {
			return err
		}
		branch := head.Branch
		if branch == "" {
			branch = "detached HEAD"
		}

		fmt.Printf("[%s %s] %s\n", branch, commit.ID.Short(), firstLine(commit.Message))
		return nil
	},
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "commit message")
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
