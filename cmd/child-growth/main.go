package main

import (
	"os"

	"child-growth-go/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	log := logger.NewFromEnv()

	if err := newRootCmd(log).Execute(); err != nil {
		log.Critical("app: command failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd(log logger.Logger) *cobra.Command {
	serve := newServeCmd(log)

	root := &cobra.Command{
		Use:           "child-growth",
		Short:         "Child growth tracking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, newMigrateCmd(log))

	return root
}
