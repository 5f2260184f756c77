package main

import (
	"encoding/json"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func routesCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		Long: `List every route with its pattern, view and whether params are passed
to the view as props.

Examples:
  eventroutes routes
  eventroutes routes --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, table, registry, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(table.Routes())
			}

			tw := tablewriter.NewWriter(out)
			tw.SetAutoWrapText(false)
			tw.SetHeader([]string{"Name", "Pattern", "View", "Component", "Props"})
			for _, def := range table.Routes() {
				component := ""
				if v, ok := registry.Lookup(def.View); ok {
					component = v.Component
				}
				tw.Append([]string{def.Name, def.Pattern, string(def.View), component, strconv.FormatBool(def.Props)})
			}
			tw.Render()

			if base := table.Base(); base != "/" {
				info(out, "Base path: %s", base)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON")

	return cmd
}
