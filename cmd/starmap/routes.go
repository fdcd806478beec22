package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cory-johannsen/starmap/internal/route"
)

func (a *app) routesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Manage saved routes",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved routes, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.query(cmd.Context(), "ListRoutes", map[string]any{})
			},
		},
		&cobra.Command{
			Use:   "save NAME LOCATION...",
			Short: "Save a route from location names",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.query(cmd.Context(), "SaveRoute", map[string]any{"name": args[0], "locations": toAny(args[1:])})
			},
		},
		&cobra.Command{
			Use:   "show NAME|ID",
			Short: "Show a saved route and its statistics",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.query(cmd.Context(), "LoadRoute", routeRef(args[0]))
			},
		},
		&cobra.Command{
			Use:   "export NAME|ID FILE",
			Short: "Write a saved route to a YAML or XML file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if a.catalog == nil {
					return errLocalOnly
				}
				resp, err := a.call(cmd.Context(), "LoadRoute", routeRef(args[0]))
				if err != nil {
					return err
				}
				names, _ := resp["locations"].([]any)
				p, _ := route.FromNames(toStrings(names), a.catalog.Registry())
				if err := writeRouteFile(args[1], p); err != nil {
					return err
				}
				return a.print(map[string]any{"exported": resp["name"], "file": args[1], "locations": p.Len()})
			},
		},
		&cobra.Command{
			Use:   "import NAME FILE",
			Short: "Save a route read from a YAML or XML file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if a.catalog == nil {
					return errLocalOnly
				}
				p, err := readRouteFile(args[1], a.catalog.Registry())
				if err != nil {
					return err
				}
				return a.query(cmd.Context(), "SaveRoute", map[string]any{"name": args[0], "locations": toAny(p.Names())})
			},
		},
	)
	return cmd
}

// routeRef builds a LoadRoute request from an identifier or a name.
func routeRef(ref string) map[string]any {
	if _, err := uuid.Parse(ref); err == nil {
		return map[string]any{"id": ref}
	}
	return map[string]any{"name": ref}
}

func toStrings(vs []any) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, fmt.Sprint(v))
	}
	return out
}
