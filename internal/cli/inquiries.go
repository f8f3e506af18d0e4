package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/courier-site/internal/config"
	"github.com/evcraddock/courier-site/internal/inquiry"
)

func newInquiriesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "inquiries",
		Short: "List recent contact form submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB(database)

			list, err := inquiry.NewRepository(database).List(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				if list == nil {
					list = []*inquiry.Inquiry{}
				}
				return printJSON(out, list)
			}
			return printInquiryTable(out, list)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of inquiries to show (0 for all)")

	return cmd
}
