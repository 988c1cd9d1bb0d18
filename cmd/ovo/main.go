package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/donaldfilimon/ovo/internal/config"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
	"github.com/donaldfilimon/ovo/pkg/logger"
	"github.com/donaldfilimon/ovo/pkg/terminal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{}
	}

	verbose := strings.EqualFold(os.Getenv("OVO_VERBOSE"), "1")
	debug := strings.EqualFold(os.Getenv("OVO_DEBUG"), "1")
	logger.Initialize(verbose, debug)
	defer logger.Close()

	root := newRootCmd(cfg)
	if err := root.Execute(); err != nil {
		if ovoErr, ok := err.(*ovoerrors.OvoError); ok {
			fmt.Fprintln(os.Stderr, terminal.Error(ovoErr.Error()))
			if ovoErr.Suggestion != "" {
				fmt.Fprintln(os.Stderr, terminal.Info("suggestion: "+ovoErr.Suggestion))
			}
		} else {
			fmt.Fprintln(os.Stderr, terminal.Error(err.Error()))
		}
		os.Exit(1)
	}
}
