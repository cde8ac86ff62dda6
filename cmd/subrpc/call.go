package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <method> [param...]",
	Short: "Issue a single JSON-RPC call",
	Long: `Issue one JSON-RPC call and print the result.

Each param is parsed as JSON; values that don't parse are sent as strings,
so both '42' and 'Alice' work without quoting gymnastics.`,
	Example: `  subrpc call system_chain
  subrpc call chain_getBlockHash 0
  subrpc call state_getStorage 0x26aa394e...`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := getClient(ctx)
		if err != nil {
			return err
		}
		defer c.Disconnect()

		result, err := c.Call(ctx, args[0], parseParams(args[1:])...)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

// parseParams turns CLI arguments into call parameters. JSON wins; anything
// else goes through as a plain string.
func parseParams(args []string) []any {
	params := make([]any, 0, len(args))
	for _, arg := range args {
		var v any
		if err := json.Unmarshal([]byte(arg), &v); err != nil {
			v = arg
		}
		params = append(params, v)
	}
	return params
}

func printJSON(cmd *cobra.Command, raw json.RawMessage) error {
	var buf any
	if err := json.Unmarshal(raw, &buf); err != nil {
		// not JSON after all, print verbatim
		fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return nil
	}
	pretty, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
	return nil
}
