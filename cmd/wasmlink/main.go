// Command wasmlink runs exported functions of WebAssembly binaries from
// the command line.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "0.3.0"

func main() {
	cmd := newRootCmd(afero.NewOsFs(), os.Stdout)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The filesystem and output writer
// are injected so tests can run against an in-memory filesystem.
func newRootCmd(fs afero.Fs, out io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "wasmlink",
		Short:         "Run WebAssembly 1.0 binaries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.SetOut(out)

	newLogger := func() (*zap.Logger, error) {
		if !verbose {
			return zap.NewNop(), nil
		}
		return zap.NewDevelopment()
	}

	root.AddCommand(newRunCmd(fs, out, newLogger))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(out, "wasmlink", version)
		},
	})
	return root
}
