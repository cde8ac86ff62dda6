package main

import (
	"github.com/spf13/cobra"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Fetch the node's runtime metadata",
	Long:  "Fetch the SCALE-encoded runtime metadata blob and print it as returned by the node.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := getClient(ctx)
		if err != nil {
			return err
		}
		defer c.Disconnect()

		raw, err := c.FetchMetadata(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd, raw)
	},
}
