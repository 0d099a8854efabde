// Command gatewayd runs the specialist gateway: an OpenAI-compatible
// chat-completions proxy that routes each turn to a domain specialist and,
// optionally, mines it for check-ins, journal entries, and memories.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes: 0 success, 1 precondition failure, 2 argument parse error.
const (
	exitOK                  = 0
	exitPreconditionFailure = 1
	exitArgError            = 2
)

func main() {
	root := &cobra.Command{
		Use:           "gatewayd",
		Short:         "Specialist gateway: an OpenAI-compatible chat-completions router",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config-dir", defaultConfigDir(), "directory containing gateway.yaml")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &argError{err}
	})

	root.AddCommand(serveCmd())
	root.AddCommand(onboardCmd())
	root.AddCommand(dbCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}

func defaultConfigDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "./config"
}

// exitCodeFor maps a command failure to the exit code contract: an
// argError wraps a cobra argument-parsing failure, everything else is
// treated as a runtime precondition failure.
func exitCodeFor(err error) int {
	if _, ok := err.(*argError); ok {
		return exitArgError
	}
	return exitPreconditionFailure
}

// argError marks an error as an argument/flag parse failure rather than a
// runtime precondition failure, for the exit-code contract above.
type argError struct{ err error }

func (e *argError) Error() string { return e.err.Error() }
func (e *argError) Unwrap() error { return e.err }
