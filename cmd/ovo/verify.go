package main

import (
	"fmt"

	"github.com/donaldfilimon/ovo/internal/manager"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
	"github.com/donaldfilimon/ovo/pkg/terminal"
	"github.com/spf13/cobra"
)

func newVerifyCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "re-hash every locked package and report integrity mismatches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := manager.New(flags.managerConfig())
			result, err := m.Verify()
			if err != nil {
				return err
			}
			for _, name := range result.Missing {
				fmt.Println(terminal.Warning("missing: " + name))
			}
			for _, name := range result.Mismatches {
				fmt.Println(terminal.Error("mismatch: " + name))
			}
			if len(result.Missing) == 0 && len(result.Mismatches) == 0 {
				fmt.Println(terminal.Success("all locked packages verified"))
				return nil
			}
			return ovoerrors.New(ovoerrors.HashMismatch, fmt.Sprintf("%d missing, %d mismatched", len(result.Missing), len(result.Mismatches)))
		},
	}
}
