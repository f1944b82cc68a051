// Package convert runs one DOCX-to-HLZ conversion end to end and packages
// the result.
package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/hlzconv/internal/builder"
	"github.com/dgallion1/hlzconv/internal/diff"
	"github.com/dgallion1/hlzconv/internal/docmodel"
	"github.com/dgallion1/hlzconv/internal/docpkg"
	"github.com/dgallion1/hlzconv/internal/failure"
	"github.com/dgallion1/hlzconv/internal/hlz"
	"github.com/dgallion1/hlzconv/internal/mapping"
	"github.com/dgallion1/hlzconv/internal/refsource"
	"github.com/dgallion1/hlzconv/internal/report"
	"github.com/dgallion1/hlzconv/internal/resolve"
)

// FinTransform derives the FIN artifact from serialized HLZ.
type FinTransform func(ctx context.Context, hlz []byte) ([]byte, error)

// Options configures the collaborators of a conversion. Every field is
// optional.
type Options struct {
	Renderer          builder.MathRenderer
	RenderConcurrency int
	Extractor         refsource.Extractor
	StyleMap          *mapping.StyleMap
	DiffMaxCells      int
	Fin               FinTransform
	Logger            *slog.Logger
}

// Result is everything a conversion produces.
type Result struct {
	Name    string
	HLZ     []byte
	Fin     []byte
	Bundle  []byte
	Reports *report.Reports
	Outline []mapping.OutlineEntry
}

// Analysis is the in-memory state after mapping, before anything is
// serialized.
type Analysis struct {
	Package  *docpkg.Package
	Document *docmodel.Document
	Mapped   *mapping.Result
	Report   *report.Context
}

// Analyze parses, builds and maps a package without rendering math or
// extracting reference text.
func Analyze(data []byte, sm *mapping.StyleMap) (*Analysis, error) {
	a, err := load(data)
	if err != nil {
		return nil, err
	}
	a.Mapped = mapping.Map(a.Document, sm, a.Report)
	return a, nil
}

func load(data []byte) (*Analysis, error) {
	if len(data) == 0 {
		return nil, failure.New(failure.InvalidInput, "empty input")
	}
	pkg, err := docpkg.Open(data)
	if err != nil {
		return nil, failure.Wrap(failure.InvalidInput, err, "input is not a zip container")
	}
	res, docRoot, err := resolve.Build(pkg)
	switch {
	case err == nil:
	case errors.Is(err, docpkg.ErrNotFound):
		return nil, classify(err, failure.MissingRequiredPart)
	default:
		// Parse failures already carry MalformedXML; anything else is a
		// part that could not be read out of the container.
		return nil, classify(err, failure.InvalidInput)
	}
	rep := report.NewContext()
	doc, err := builder.Build(docRoot, res, rep)
	if err != nil {
		return nil, classify(err, failure.MalformedXML)
	}
	return &Analysis{Package: pkg, Document: doc, Report: rep}, nil
}

// Convert runs the whole pipeline. Fatal failures are returned as
// *failure.Error; everything else ends up in the reports.
func Convert(ctx context.Context, data []byte, filename string, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	a, err := load(data)
	if err != nil {
		log.Error("conversion failed", "kind", failure.KindOf(err), "error", err)
		return nil, err
	}
	rep := a.Report
	name := baseName(filename, rep)

	// Reference text does not depend on the conversion, so it is fetched
	// while math renders and the document is mapped.
	var refParas []string
	var refErr error
	g, gctx := errgroup.WithContext(ctx)
	if opts.Extractor != nil {
		g.Go(func() error {
			refParas, refErr = opts.Extractor.Paragraphs(gctx, data)
			return nil
		})
	}

	if opts.Renderer != nil {
		if err := builder.RenderMath(ctx, a.Document, opts.Renderer, rep, opts.RenderConcurrency); err != nil {
			_ = g.Wait()
			return nil, fmt.Errorf("render math: %w", err)
		}
	} else if n := len(builder.Maths(a.Document)); n > 0 {
		rep.Notef("math", "no math renderer configured; %d expressions left unrendered", n)
	}

	a.Mapped = mapping.Map(a.Document, opts.StyleMap, rep)

	var buf bytes.Buffer
	if err := hlz.Write(&buf, a.Mapped.Root, hlz.Options{Breaks: mapping.Breaks}); err != nil {
		return nil, fmt.Errorf("write hlz: %w", err)
	}
	result := &Result{Name: name, HLZ: buf.Bytes(), Outline: a.Mapped.Outline}

	if opts.Fin != nil {
		fin, err := opts.Fin(ctx, result.HLZ)
		if err != nil {
			rep.Warnf("fin", "FIN transform failed: %v", err)
			log.Warn("fin transform failed", "error", err)
		} else {
			result.Fin = fin
		}
	} else {
		rep.Notef("fin", "no FIN transform configured; %s.fin not written", name)
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines := []diff.Line{}
	switch {
	case opts.Extractor == nil:
		rep.Notef("diff", "no reference extractor configured; diff skipped")
	case refErr != nil:
		rep.Recover("diff", classify(refErr, failure.ExternalExtractionFailure))
		log.Warn("reference extraction failed", "error", refErr)
	default:
		ref := diff.Normalize(refParas)
		gen := diff.Normalize(mapping.Lines(a.Mapped.Root))
		lines = diff.Compare(ref, gen, diff.Options{MaxCells: opts.DiffMaxCells})
	}

	bundle := docpkg.New()
	bundle.Write(name+".hlz", result.HLZ)
	if result.Fin != nil {
		bundle.Write(name+".fin", result.Fin)
	}
	addImages(bundle, a.Package, a.Mapped.Images, rep)
	for _, m := range a.Mapped.Maths {
		if m.File != "" {
			bundle.Write(m.File, []byte(m.Math.SVG))
		}
	}

	result.Reports = rep.Freeze(lines)
	reportJSON, err := json.MarshalIndent(result.Reports, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal reports: %w", err)
	}
	bundle.Write("report.json", reportJSON)
	page, err := result.Reports.HTML(name)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	bundle.Write("report.html", page)

	result.Bundle, err = bundle.Bytes()
	if err != nil {
		return nil, fmt.Errorf("commit bundle: %w", err)
	}

	log.Info("conversion complete",
		"paragraphs", count(result.Reports, report.CountParagraph),
		"tables", count(result.Reports, report.CountTable),
		"math", count(result.Reports, report.CountMath),
		"warnings", len(result.Reports.Inspections),
		"diff_modified", result.Reports.DiffStats.Modified,
	)
	return result, nil
}

func addImages(bundle, src *docpkg.Package, images []mapping.ImageRef, rep *report.Context) {
	for _, img := range images {
		if img.File == "" {
			continue
		}
		if img.Image.External {
			rep.Notef(img.ID, "linked image %s is not bundled", img.Image.Source)
			continue
		}
		data, err := src.Read(img.Image.Source)
		if err != nil {
			rep.Warnf(img.ID, "image part %s is missing from the package", img.Image.Source)
			continue
		}
		bundle.Write(img.File, data)
	}
}

// baseName derives the artifact base name from the upload name. Names the
// legacy code page cannot hold fall back to "document".
func baseName(filename string, rep *report.Context) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		return "document"
	}
	if _, err := docpkg.EncodeName(base); err != nil {
		rep.Warnf("bundle", "file name %q cannot be encoded for the bundle; using \"document\"", base)
		return "document"
	}
	return base
}

// classify keeps an existing failure kind or assigns kind.
func classify(err error, kind failure.Kind) error {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return err
	}
	return failure.Wrap(kind, err, "conversion")
}

func count(r *report.Reports, kind report.CountKind) int {
	for _, c := range r.Counting {
		if c.Kind == kind {
			return c.Count
		}
	}
	return 0
}
