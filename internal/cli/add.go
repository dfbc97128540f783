package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <path>...",
	Short: "Add file contents to the index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}

		result, err := repo.Add(args)
		if err != nil {
			return err
		}

		for _, skipped := range result.Skipped {
			fmt.Fprintf(os.Stderr, "warning: skipping %s: %s\n", skipped.Path, renderError(skipped.Err))
		}
		if len(result.Staged) == 0 && len(result.Skipped) > 0 {
			return fmt.Errorf("no files were staged")
		}
		return nil
	},
}
