// Package main is the entry point for the tripmate API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		// Cobra has already printed usage errors; log the cause for everything else.
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tripmate",
		Short: "group trip planner API",
		Long: `tripmate serves the API behind the group trip planner: trips, their
day-by-day itinerary, activities, travelers and invite links.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().String("env-file", ".env", "file to seed environment variables from")
	cmd.AddCommand(serveCommand())
	cmd.AddCommand(migrateCommand())
	return cmd
}
