package commands

import (
	"github.com/spf13/cobra"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
	"github.com/de-tools/transparency-atlas/pkg/runtime/terminal/console"
)

func NewCategoriesCmd(reporter *console.Reporter) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the known report categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reporter.Categories(domain.Categories)
			return nil
		},
	}
}
