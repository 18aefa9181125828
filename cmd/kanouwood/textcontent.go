package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saifelleuhci/kanouwood2/internal/services"
	"github.com/saifelleuhci/kanouwood2/internal/textcontent"
)

var (
	sourceURL string
	lintJSON  bool
)

var errLintFindings = errors.New("text content has lint findings")

var textContentCmd = &cobra.Command{
	Use:     "text-content",
	Aliases: []string{"tc"},
	Short:   "Inspect the site copy document",
}

var textContentParseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Print the parsed document as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTextContentParse,
}

var textContentLintCmd = &cobra.Command{
	Use:   "lint [file]",
	Short: "Report lines the parser skips or overrides",
	Long: `Reports comment-free lines that the parser ignores: keys outside a
section, lines without a colon, empty values, unknown sections or fields and
keys written more than once. Exits non-zero when anything is reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTextContentLint,
}

var textContentWatchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Reparse a document file every time it changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runTextContentWatch,
}

var textContentDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the built-in default document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := io.WriteString(cmd.OutOrStdout(), textcontent.Render(services.DefaultCopy()))
		return err
	},
}

func init() {
	textContentCmd.PersistentFlags().StringVar(&sourceURL, "url", "", "site base URL to fetch "+textcontent.DocumentPath+" from instead of a file")
	textContentLintCmd.Flags().BoolVar(&lintJSON, "json", false, "print findings as JSON")

	textContentCmd.AddCommand(textContentParseCmd)
	textContentCmd.AddCommand(textContentLintCmd)
	textContentCmd.AddCommand(textContentWatchCmd)
	textContentCmd.AddCommand(textContentDefaultCmd)
}

func readDocument(ctx context.Context, args []string) (string, error) {
	var source textcontent.Source
	switch {
	case sourceURL != "":
		httpSource, err := textcontent.NewHTTPSource(sourceURL, &http.Client{Timeout: 10 * time.Second})
		if err != nil {
			return "", err
		}
		source = httpSource
	case len(args) == 1:
		source = textcontent.FileSource{Path: args[0]}
	default:
		return "", errors.New("a document file or --url is required")
	}
	return source.Read(ctx)
}

func runTextContentParse(cmd *cobra.Command, args []string) error {
	doc, err := readDocument(cmd.Context(), args)
	if err != nil {
		return err
	}
	parsed := textcontent.NewParser(textcontent.WithLogger(logger.Named("textcontent"))).Parse(doc)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(parsed)
}

func runTextContentLint(cmd *cobra.Command, args []string) error {
	doc, err := readDocument(cmd.Context(), args)
	if err != nil {
		return err
	}
	findings := textcontent.Lint(doc)
	out := cmd.OutOrStdout()
	if lintJSON {
		if findings == nil {
			findings = []textcontent.Diagnostic{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(findings); err != nil {
			return err
		}
	} else {
		for _, d := range findings {
			fmt.Fprintln(out, d.String())
		}
	}
	if len(findings) > 0 {
		return fmt.Errorf("%w: %d", errLintFindings, len(findings))
	}
	return nil
}

func runTextContentWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	watcher, err := textcontent.NewWatcher(ctx, args[0], textcontent.WithLogger(logger.Named("textcontent")))
	if err != nil {
		return err
	}
	report := func(c textcontent.TextContent) {
		logger.Info("text content loaded",
			zap.String("path", args[0]),
			zap.Bool("empty", c.IsEmpty()),
			zap.String("heroTitle", c.Hero.Title),
		)
	}
	report(watcher.Current())
	watcher.OnReload(report)
	return watcher.Run(ctx)
}
