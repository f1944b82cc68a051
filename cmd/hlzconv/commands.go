package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/hlzconv/internal/config"
	"github.com/dgallion1/hlzconv/internal/convert"
	"github.com/dgallion1/hlzconv/internal/diff"
	"github.com/dgallion1/hlzconv/internal/mapping"
	"github.com/dgallion1/hlzconv/internal/report"
)

func convertCmd(logger func() *slog.Logger) *cobra.Command {
	var (
		output      string
		reportsPath string
		noDiff      bool
	)
	cmd := &cobra.Command{
		Use:   "convert <input.docx>",
		Short: "Convert a DOCX filing into an HLZ bundle",
		Long: `Convert a DOCX filing into a zip bundle holding the HLZ file, images,
rendered math and the QC reports.

Example:
  hlzconv convert 출원서.docx -o 출원서.zip --reports reports.json
  hlzconv convert draft.docx --renderer-url http://localhost:3000/render`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			applyFlags(cmd, &cfg)

			input := args[0]
			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + ".zip"
			}

			opts, err := convert.FromConfig(cfg, nil)
			if err != nil {
				return err
			}
			if noDiff {
				opts.Extractor = nil
			}
			opts.Logger = logger().With("filename", filepath.Base(input))

			res, err := convert.Convert(cmd.Context(), data, filepath.Base(input), opts)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, res.Bundle, 0o644); err != nil {
				return fmt.Errorf("write bundle: %w", err)
			}
			if reportsPath != "" {
				if err := writeJSON(reportsPath, res.Reports); err != nil {
					return err
				}
			}
			printSummary(cmd.OutOrStdout(), output, res.Reports)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "bundle path (default: input name with .zip)")
	cmd.Flags().StringVar(&reportsPath, "reports", "", "also write the reports as JSON to this path")
	cmd.Flags().BoolVar(&noDiff, "no-diff", false, "skip reference extraction and the diff report")
	cmd.Flags().String("renderer-url", "", "LaTeX-to-SVG renderer endpoint (env MATH_RENDERER_URL)")
	cmd.Flags().String("extractor-url", "", "document-to-HTML extraction endpoint (env EXTRACTOR_URL)")
	cmd.Flags().String("style-map", "", "YAML style map override (env STYLE_MAP_PATH)")
	cmd.Flags().Int("concurrency", 0, "concurrent math render requests (env MATH_RENDER_CONCURRENCY)")
	cmd.Flags().Int("diff-max-cells", 0, "diff table budget before coarse fallback (env DIFF_MAX_CELLS)")
	return cmd
}

// applyFlags overrides cfg with flags the user actually set.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("renderer-url") {
		cfg.MathRendererURL, _ = f.GetString("renderer-url")
	}
	if f.Changed("extractor-url") {
		cfg.ExtractorURL, _ = f.GetString("extractor-url")
	}
	if f.Changed("style-map") {
		cfg.StyleMapPath, _ = f.GetString("style-map")
	}
	if f.Changed("concurrency") {
		cfg.MathRenderConcurrency, _ = f.GetInt("concurrency")
	}
	if f.Changed("diff-max-cells") {
		cfg.DiffMaxCells, _ = f.GetInt("diff-max-cells")
	}
}

func printSummary(w io.Writer, output string, r *report.Reports) {
	fmt.Fprintf(w, "Wrote %s\n", output)
	for _, c := range r.Counting {
		if c.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-15s %d\n", c.Kind, c.Count)
	}
	var errs, warns int
	for _, m := range r.Inspections {
		switch m.Kind {
		case report.KindError:
			errs++
		case report.KindWarning:
			warns++
		}
	}
	fmt.Fprintf(w, "  %d errors, %d warnings\n", errs, warns)
	s := r.DiffStats
	fmt.Fprintf(w, "  diff: %d same, %d modified, %d deleted, %d added\n", s.Same, s.Modified, s.Deleted, s.Added)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func diffCmd() *cobra.Command {
	var (
		asJSON   bool
		maxCells int
	)
	cmd := &cobra.Command{
		Use:   "diff <reference.txt> <generated.txt>",
		Short: "Compare two text files line by line",
		Long: `Compare two text files the way the QC report does: lines are
normalized, aligned, and changed lines are diffed character by character.

Output prefixes: "  " same, "- " deleted, "+ " added, "~ " modified.
Inside modified lines [-...-] marks deleted and {+...+} inserted text.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := readLines(args[0])
			if err != nil {
				return err
			}
			gen, err := readLines(args[1])
			if err != nil {
				return err
			}
			lines := diff.Compare(diff.Normalize(ref), diff.Normalize(gen), diff.Options{MaxCells: maxCells})
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(lines)
			}
			writeDiff(cmd.OutOrStdout(), lines)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the diff report as JSON")
	cmd.Flags().IntVar(&maxCells, "max-cells", diff.DefaultMaxCells, "comparison budget before coarse fallback")
	return cmd
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

func writeDiff(w io.Writer, lines []diff.Line) {
	for _, l := range lines {
		switch l.Kind {
		case diff.Same:
			fmt.Fprintf(w, "  %s\n", l.Content)
		case diff.Deleted:
			fmt.Fprintf(w, "- %s\n", l.Content)
		case diff.Added:
			fmt.Fprintf(w, "+ %s\n", l.Content)
		case diff.Modified:
			var sb strings.Builder
			for _, op := range l.Ops {
				switch op.Kind {
				case diff.OpEqual:
					sb.WriteString(op.Text)
				case diff.OpDelete:
					sb.WriteString("[-" + op.Text + "-]")
				case diff.OpInsert:
					sb.WriteString("{+" + op.Text + "+}")
				}
			}
			fmt.Fprintf(w, "~ %s\n", sb.String())
		}
	}
}

func sectionsCmd() *cobra.Command {
	var styleMap string
	cmd := &cobra.Command{
		Use:   "sections <input.docx>",
		Short: "Print the classified section outline of a DOCX filing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			var sm *mapping.StyleMap
			if styleMap != "" {
				if sm, err = mapping.LoadStyleMap(styleMap); err != nil {
					return err
				}
			}
			a, err := convert.Analyze(data, sm)
			if err != nil {
				return err
			}
			writeOutline(cmd.OutOrStdout(), a.Mapped.Outline)
			for _, m := range a.Report.Inspections() {
				if m.Kind == report.KindWarning {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s (%s)\n", m.Message, m.Position)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&styleMap, "style-map", "", "YAML style map override")
	return cmd
}

func writeOutline(w io.Writer, outline []mapping.OutlineEntry) {
	for _, o := range outline {
		label := o.Tag
		if o.Num != "" {
			label += " " + o.Num
		}
		fmt.Fprintf(w, "%s%-*s %s\n", strings.Repeat("  ", o.Depth), 28-2*o.Depth, label, strings.TrimSpace(o.Text))
	}
}
