package main

import (
	"fmt"

	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/donaldfilimon/ovo/internal/depstring"
	"github.com/donaldfilimon/ovo/internal/manager"
	"github.com/donaldfilimon/ovo/pkg/terminal"
	"github.com/spf13/cobra"
)

func parseDeps(args []string) ([]depspec.Dependency, error) {
	deps := make([]depspec.Dependency, 0, len(args))
	for _, a := range args {
		d, err := depstring.Parse(a)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, nil
}

func newResolveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [dependency ...]",
		Short: "resolve a dependency graph without fetching or writing a lockfile",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := parseDeps(args)
			if err != nil {
				return err
			}
			m := manager.New(flags.managerConfig())
			result, err := m.Resolve(cmd.Context(), deps)
			if err != nil {
				return err
			}
			printResolution(result)
			return nil
		},
	}
}

func printResolution(result *depspec.ResolutionResult) {
	fmt.Println(terminal.BoldText(fmt.Sprintf("resolved %d packages (%d from lockfile, %d newly resolved, %d via fallback) in %dms",
		result.Stats.Total, result.Stats.FromLockfile, result.Stats.NewlyResolved, result.Stats.FallbacksUsed, result.Stats.ElapsedMS)))
	for name, pkg := range result.Packages {
		fmt.Printf("  %s %s (%s)\n", terminal.Success(name), pkg.Version, pkg.SourceType)
	}
	for _, w := range result.Warnings {
		fmt.Println(terminal.Warning("warning: " + w))
	}
}
