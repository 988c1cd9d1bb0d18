package main

import (
	"fmt"

	"github.com/donaldfilimon/ovo/internal/manager"
	"github.com/donaldfilimon/ovo/pkg/terminal"
	"github.com/spf13/cobra"
)

func newCleanCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "evict cache entries past their TTL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := manager.New(flags.managerConfig())
			removed, err := m.Clean()
			if err != nil {
				return err
			}
			fmt.Println(terminal.Success(fmt.Sprintf("removed %d cache entries", len(removed))))
			return nil
		},
	}
}

func newCacheCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "inspect or manage the local fetch cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "print cache size and entry counts by source type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := manager.New(flags.managerConfig())
			stats, err := m.CacheStats()
			if err != nil {
				return err
			}
			fmt.Println(terminal.BoldText(fmt.Sprintf("cache holds %d bytes", stats.TotalBytes)))
			for srcType, count := range stats.CountBySource {
				fmt.Printf("  %s: %d entries\n", srcType, count)
			}
			return nil
		},
	})
	cmd.AddCommand(newCleanCmd(flags))
	return cmd
}
