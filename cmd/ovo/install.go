package main

import (
	"fmt"

	"github.com/donaldfilimon/ovo/internal/manager"
	"github.com/donaldfilimon/ovo/pkg/terminal"
	"github.com/spf13/cobra"
)

func newInstallCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "install [dependency ...]",
		Short: "resolve, fetch, and lock a dependency set",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := parseDeps(args)
			if err != nil {
				return err
			}
			cfg := flags.managerConfig()
			m := manager.New(cfg)
			result, err := m.Install(cmd.Context(), deps)
			if err != nil {
				return err
			}
			printResolution(result.Resolution)
			fmt.Println(terminal.Success(fmt.Sprintf("fetched %d packages; lockfile written to %s", len(result.Fetched), cfg.LockfilePath)))
			return nil
		},
	}
}

func newUpdateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "update [dependency ...]",
		Short: "re-resolve ignoring the lockfile, then fetch and rewrite it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := parseDeps(args)
			if err != nil {
				return err
			}
			cfg := flags.managerConfig()
			m := manager.New(cfg)
			result, err := m.Update(cmd.Context(), deps)
			if err != nil {
				return err
			}
			printResolution(result.Resolution)
			fmt.Println(terminal.Success(fmt.Sprintf("updated %d packages; lockfile rewritten at %s", len(result.Fetched), cfg.LockfilePath)))
			return nil
		},
	}
}
