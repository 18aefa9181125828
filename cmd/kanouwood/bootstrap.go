package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saifelleuhci/kanouwood2/internal/services"
)

var (
	seedFile        string
	skipTextContent bool
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Seed site details, categories and admin keys",
	Long: `Seeds the configured row store from an optional YAML file and writes the
default text content document when none exists. Running it again changes
nothing. When the store holds no admin key afterwards, one is generated
and printed once.`,
	Args: cobra.NoArgs,
	RunE: runBootstrap,
}

func init() {
	bootstrapCmd.Flags().StringVar(&seedFile, "seed", "", "YAML seed file (details, categories, admin_keys)")
	bootstrapCmd.Flags().BoolVar(&skipTextContent, "skip-text-content", false, "do not write the default text content document")
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	seed, err := readSeed(seedFile)
	if err != nil {
		return err
	}

	cfg, resolver, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer closeQuietly("secret resolver", resolver.Close)

	registry, err := openRegistry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open row store: %w", err)
	}
	defer closeQuietly("row store", registry.Close)

	textPath := cfg.TextContent.FilePath
	if skipTextContent || cfg.TextContent.SourceURL != "" {
		textPath = ""
	}
	report, err := services.Bootstrap(ctx, services.BootstrapDeps{
		Registry:        registry,
		TextContentPath: textPath,
		Logger:          logger.Named("bootstrap"),
	}, seed)
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}

func readSeed(path string) (services.Seed, error) {
	if strings.TrimSpace(path) == "" {
		return services.Seed{}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return services.Seed{}, fmt.Errorf("open seed: %w", err)
	}
	defer file.Close()
	return services.LoadSeed(file)
}

func printReport(w io.Writer, report services.BootstrapReport) {
	fmt.Fprintf(w, "details seeded:       %t\n", report.DetailsSeeded)
	fmt.Fprintf(w, "categories added:     %d", len(report.CategoriesAdded))
	if len(report.CategoriesAdded) > 0 {
		fmt.Fprintf(w, " (%s)", strings.Join(report.CategoriesAdded, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "admin keys added:     %d\n", report.AdminKeysAdded)
	fmt.Fprintf(w, "text content written: %t\n", report.TextContentWritten)
	if report.GeneratedKey != "" {
		fmt.Fprintf(w, "\ngenerated admin access key (shown once):\n  %s\n", report.GeneratedKey)
	}
}
