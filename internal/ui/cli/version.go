package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnott/pynalyze/internal/shared/version"
)

func (s *session) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(s.stdout, "pynalyze %s\n", version.Version)
			return err
		},
	}
}
