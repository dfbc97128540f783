package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbickford/vcs/internal/vcscore"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty repository in the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		repo, err := vcscore.Init(cwd)
		if err != nil {
			return err
		}
		fmt.Printf("Initialized empty repository in %s\n", repo.VCSDir())
		return nil
	},
}
