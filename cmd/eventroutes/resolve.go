package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/eventroutes/internal/errors"
	"github.com/vango-dev/eventroutes/pkg/router"
)

func resolveCmd(flags *globalFlags) *cobra.Command {
	var (
		asJSON   bool
		location bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve a path against the route table",
		Long: `Resolve a path and print the matched route, its view and params.

The path is relative to the base path unless --location is given, in which
case it is a browser location that includes the base.

Examples:
  eventroutes resolve /events/42
  eventroutes resolve /events/add --json
  eventroutes resolve /app/events --location`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, table, _, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}

			var r *router.Resolved
			if location {
				r, err = table.ResolveLocation(args[0])
			} else {
				r, err = table.Resolve(args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}

			success(out, "%s → %s", r.FullPath(), r.Name)
			info(out, "View:     %s", r.View)
			info(out, "Location: %s", table.Location(r))
			for _, name := range sortedKeys(r.Params) {
				info(out, "Param:    %s = %s", name, r.Params[name])
			}
			if props := r.Props(); props != nil {
				info(out, "Props:    %s", formatParams(props))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the resolved route as JSON")
	cmd.Flags().BoolVar(&location, "location", false, "Treat the path as a browser location including the base")

	return cmd
}

func urlCmd(flags *globalFlags) *cobra.Command {
	var href bool

	cmd := &cobra.Command{
		Use:   "url <name> [param=value...]",
		Short: "Build the path of a named route",
		Long: `Build the path of a named route from param=value pairs.

Examples:
  eventroutes url events
  eventroutes url view-event id=42
  eventroutes url edit-event id=42 --href`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}

			_, table, _, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}

			var path string
			if href {
				path, err = table.Href(args[0], params)
			} else {
				path, err = table.URL(args[0], params)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&href, "href", false, "Include the base path")

	return cmd
}

// parseParams parses "name=value" arguments.
func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, errors.New("R060").
				WithDetail(fmt.Sprintf("expected param=value, got %q", arg)).
				WithSuggestion("Pass params as name=value, e.g. id=42")
		}
		params[name] = value
	}
	return params, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatParams(m map[string]string) string {
	parts := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, " ")
}
