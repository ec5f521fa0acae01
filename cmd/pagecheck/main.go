// Package main provides the pagecheck command, which drives a browser through
// fixed verification scenarios against a resource-management deployment and
// writes screenshots as evidence.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/pagecheck/pkg/runner"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if err := newRootCmd(runner.LaunchBrowser).ExecuteContext(ctx); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cancel()
}

func newRootCmd(launch runner.LaunchFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "pagecheck",
		Short: "Visual verification scenarios for the resource-management UI",
		Long: `pagecheck signs in to a running resource-management application, walks
through fixed pages and modals, and saves a screenshot at every checkpoint.
A failing scenario leaves an error.png behind and never aborts the command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(launch),
		newListCmd(),
		newVersionCmd(),
	)
	return root
}
