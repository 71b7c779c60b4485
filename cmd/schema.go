package cmd

import (
	"encoding/json"
	"os"

	"github.com/playcore/playcore/event"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringP("event", "e", "", "Only print the schema of this event")
	_ = schemaCmd.RegisterFlagCompletionFunc("event", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return lo.Keys(event.Schema()), cobra.ShellCompDirectiveNoFileComp
	})
	schemaCmd.SetOut(os.Stdout)
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of session events",
	Run: func(cmd *cobra.Command, args []string) {
		schemas := event.Schema()

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")

		if name := lo.Must(cmd.Flags().GetString("event")); name != "" {
			schema, ok := schemas[name]
			if !ok {
				handleErr(errUnknown("event", name, lo.Keys(schemas)))
			}
			handleErr(encoder.Encode(schema))
			return
		}

		handleErr(encoder.Encode(schemas))
	},
}
