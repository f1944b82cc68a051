package builder

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/hlzconv/internal/docmodel"
	"github.com/dgallion1/hlzconv/internal/report"
)

// MathRenderer turns a LaTeX expression into an SVG fragment.
type MathRenderer interface {
	Render(ctx context.Context, latex string) (string, error)
}

// Maths returns every math node of doc in document order.
func Maths(doc *docmodel.Document) []*docmodel.Math {
	var out []*docmodel.Math
	for _, c := range doc.Children {
		docmodel.Walk(c, func(n docmodel.Node) {
			if m, ok := n.(*docmodel.Math); ok {
				out = append(out, m)
			}
		})
	}
	return out
}

// RenderMath fills in the SVG of every math node, up to concurrency
// requests at a time. A failed node keeps an empty rendering and gets an
// error inspection; messages are recorded in document order. Only context
// cancellation is returned as an error.
func RenderMath(ctx context.Context, doc *docmodel.Document, r MathRenderer, rep *report.Context, concurrency int) error {
	maths := Maths(doc)
	if len(maths) == 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	errs := make([]error, len(maths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, m := range maths {
		if m.LaTeX == "" {
			errs[i] = fmt.Errorf("empty expression")
			continue
		}
		g.Go(func() error {
			svg, err := r.Render(gctx, m.LaTeX)
			if err != nil {
				errs[i] = err
				return nil
			}
			m.SVG = svg
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			rep.Add(report.InspectionMsg{
				Kind:     report.KindError,
				Message:  fmt.Sprintf("math rendering failed: %v", err),
				Position: fmt.Sprintf("math %d", i+1),
				Source:   maths[i].LaTeX,
			})
		}
	}
	return ctx.Err()
}
