package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var watchFlag bool

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the connection state",
	Long: `Connect and print the resulting connection state.

With --watch, keep the connection open and print every state transition
until interrupted; useful for observing reconnect behaviour against a
flaky node.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := getClient(ctx)
		if err != nil {
			return err
		}
		defer c.Disconnect()

		if !watchFlag {
			fmt.Fprintln(cmd.OutOrStdout(), c.State().State)
			return nil
		}

		ch, stop := c.WatchState()
		defer stop()
		for {
			select {
			case s := <-ch:
				if s.Err != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", s.State, s.Err)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), s.State)
			case <-ctx.Done():
				return nil
			}
		}
	},
}

func init() {
	stateCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "stream state transitions until interrupted")
}
