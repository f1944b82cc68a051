package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/hlzconv/internal/config"
	"github.com/dgallion1/hlzconv/internal/failure"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var fe *failure.Error
		if errors.As(err, &fe) {
			fmt.Fprintf(os.Stderr, "conversion failed (%s): %s\n", fe.Kind, failure.Message(err))
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	rootCmd := &cobra.Command{
		Use:   "hlzconv",
		Short: "Convert Korean patent DOCX filings to HLZ",
		Long: `hlzconv converts Korean patent application drafts (.docx) into HLZ
markup and packages the result with its images, rendered math and QC
reports.

Settings not given as flags are read from the environment and an
optional .env file in the working directory.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotenv(".env")
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress to stderr")

	logger := func() *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelInfo
		}
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	rootCmd.AddCommand(convertCmd(logger))
	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(sectionsCmd())
	return rootCmd
}
