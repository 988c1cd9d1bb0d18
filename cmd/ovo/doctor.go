package main

import (
	"fmt"
	"strings"

	"github.com/donaldfilimon/ovo/internal/cache"
	"github.com/donaldfilimon/ovo/internal/manager"
	"github.com/donaldfilimon/ovo/pkg/terminal"
	"github.com/spf13/cobra"
)

func newDoctorCmd(flags *globalFlags) *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "run health checks over external tools, cache, and config state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.managerConfig()
			c := cache.New(cfg.CacheDir, cfg.CacheTTL)
			d := manager.NewDoctor(cfg, c, false)

			fmt.Println(terminal.BoldText("ovo doctor - system health check"))
			fmt.Println(strings.Repeat("=", 52))

			report, results := d.Run()
			for _, r := range results {
				printCheckResult(r)
			}
			fmt.Printf("\nscore: %d/100 (%d ok, %d warnings, %d errors, %d critical)\n",
				report.Score, report.Passed, report.Warnings, report.Errors, report.Critical)

			if fix {
				if err := d.Fix(); err != nil {
					return err
				}
				fmt.Println(terminal.Success("applied available auto-fixes"))
			} else {
				fmt.Println("run 'ovo doctor --fix' to auto-fix issues where possible")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "attempt to auto-fix detected issues")
	return cmd
}

func printCheckResult(r manager.CheckResult) {
	var icon string
	switch r.Status {
	case manager.StatusOK:
		icon = "[ok]"
	case manager.StatusWarning:
		icon = "[warn]"
	case manager.StatusError:
		icon = "[error]"
	case manager.StatusCritical:
		icon = "[critical]"
	}
	fmt.Printf("%s %s\n", icon, r.Message)
	if r.Impact != "" {
		fmt.Println(terminal.Warning("  impact: " + r.Impact))
	}
}
