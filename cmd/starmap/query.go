package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/starmap/internal/route"
	"github.com/cory-johannsen/starmap/internal/universe"
)

func (a *app) nearbyCmd() *cobra.Command {
	var radius float64
	cmd := &cobra.Command{
		Use:   "nearby STAR",
		Short: "List stars within a radius of a star, nearest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.query(cmd.Context(), "NearbyStars", map[string]any{"star": args[0], "radius": radius})
		},
	}
	cmd.Flags().Float64VarP(&radius, "radius", "r", universe.JumpRange, "search radius in light-years")
	return cmd
}

func (a *app) travelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "travel FROM TO",
		Short: "Show the cost of one hop between two locations",
		Long: "Show the cost of one hop between two canonical location names, e.g.\n" +
			"  starmap travel '[JumpPoint,star=SOL,nadir=true]' '[JumpPoint,star=ALPHACEN,nadir=false]'",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.query(cmd.Context(), "TravelTime", map[string]any{"from": args[0], "to": args[1]})
		},
	}
}

func (a *app) planCmd() *cobra.Command {
	var (
		maxJumps int
		saveAs   string
	)
	cmd := &cobra.Command{
		Use:   "plan FROM_STAR TO_STAR",
		Short: "Plan the fastest chain of jumps between two stars",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			resp, err := a.call(ctx, "PlanRoute", map[string]any{"from": args[0], "to": args[1], "max_jumps": maxJumps})
			if err != nil {
				return err
			}
			if saveAs != "" {
				saved, err := a.call(ctx, "SaveRoute", map[string]any{"name": saveAs, "locations": resp["locations"]})
				if err != nil {
					return fmt.Errorf("saving route: %w", err)
				}
				resp["saved_id"] = saved["id"]
			}
			return a.print(resp)
		},
	}
	cmd.Flags().IntVar(&maxJumps, "max-jumps", 0, "maximum number of jumps (0 = unbounded)")
	cmd.Flags().StringVar(&saveAs, "save", "", "save the planned route under this name")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "stats [LOCATION...]",
		Short: "Compute hops, jumps and days for a route",
		Long:  "Compute statistics for a route given as location names or read from a YAML or XML route file with --file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if file != "" {
				if a.catalog == nil {
					return errLocalOnly
				}
				p, err := readRouteFile(file, a.catalog.Registry())
				if err != nil {
					return err
				}
				names = p.Names()
			}
			return a.query(cmd.Context(), "RouteStats", map[string]any{"locations": toAny(names)})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "route file (.yaml, .yml or .xml)")
	return cmd
}

// readRouteFile decodes a route file, choosing the format by extension.
func readRouteFile(path string, r route.Resolver) (*route.JumpPath, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return route.ReadXML(f, r)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return route.UnmarshalYAML(data, r)
	default:
		return nil, fmt.Errorf("unsupported route file %q: want .yaml, .yml or .xml", path)
	}
}

// writeRouteFile encodes p, choosing the format by extension.
func writeRouteFile(path string, p *route.JumpPath) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := route.WriteXML(f, p); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ".yaml", ".yml":
		data, err := route.MarshalYAML(p)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	default:
		return fmt.Errorf("unsupported route file %q: want .yaml, .yml or .xml", path)
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
