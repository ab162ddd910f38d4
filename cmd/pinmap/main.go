// Package main provides the CLI entry point for pinmap.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ukaji3/pinmap-go/pkg/pinmap"
	"github.com/ukaji3/pinmap-go/pkg/pinmap/output"
)

var (
	configPath string
	outputPath string
	pretty     bool
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pinmap",
		Short: "Extract chip images, fields and pin tables from Excel files",
		Long: `pinmap reads an xlsx workbook and extracts, per sheet, the largest
embedded picture, the labeled chip size and project fields, and the pin table.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file (default: built-in settings)")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug details to stderr")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "sheets <input.xlsx>",
			Short: "List sheets with image and data availability",
			Args:  cobra.ExactArgs(1),
			RunE:  runSheets,
		},
		&cobra.Command{
			Use:   "info <input.xlsx> <sheet>",
			Short: "Extract chip size, project code and extras of a sheet",
			Args:  cobra.ExactArgs(2),
			RunE:  runInfo,
		},
		&cobra.Command{
			Use:   "pins <input.xlsx> <sheet>",
			Short: "Extract the pin table of a sheet",
			Args:  cobra.ExactArgs(2),
			RunE:  runPins,
		},
		newImagesCmd(),
		newServeCmd(),
	)
	return rootCmd
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (pinmap.Config, error) {
	if configPath == "" {
		return pinmap.DefaultConfig(), nil
	}
	return pinmap.LoadConfig(configPath)
}

func openWorkbook(path string) (*pinmap.Workbook, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return pinmap.Open(path, cfg, newLogger())
}

func runSheets(cmd *cobra.Command, args []string) error {
	wb, err := openWorkbook(args[0])
	if err != nil {
		return err
	}
	defer wb.Close()

	summary, err := wb.Summary()
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	return writeJSON(output.SheetsPayload(summary))
}

func runInfo(cmd *cobra.Command, args []string) error {
	wb, err := openWorkbook(args[0])
	if err != nil {
		return err
	}
	defer wb.Close()

	info, err := wb.SheetInfo(args[1])
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	return writeJSON(info)
}

func runPins(cmd *cobra.Command, args []string) error {
	wb, err := openWorkbook(args[0])
	if err != nil {
		return err
	}
	defer wb.Close()

	result, err := wb.Pins(args[1])
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	return writeJSON(output.PinsPayload(result))
}

func writeJSON(v any) error {
	jsonData, err := output.ToJSON(v, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	fmt.Println(string(jsonData))
	return nil
}
