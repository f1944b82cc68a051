package convert

import (
	"time"

	"github.com/dgallion1/hlzconv/internal/config"
	"github.com/dgallion1/hlzconv/internal/mapping"
	"github.com/dgallion1/hlzconv/internal/mathrender"
	"github.com/dgallion1/hlzconv/internal/refsource"
)

// FromConfig builds conversion options from service configuration. Math
// rendering is enabled only with a renderer URL. Reference text comes from
// the extraction service when one is configured, falling back to local
// extraction. stats may be nil.
func FromConfig(cfg config.Config, stats *mathrender.Stats) (Options, error) {
	opts := Options{
		RenderConcurrency: cfg.MathRenderConcurrency,
		DiffMaxCells:      cfg.DiffMaxCells,
		Extractor:         refsource.DocxExtractor{},
	}
	if cfg.StyleMapPath != "" {
		sm, err := mapping.LoadStyleMap(cfg.StyleMapPath)
		if err != nil {
			return Options{}, err
		}
		opts.StyleMap = sm
	}
	if cfg.MathRendererURL != "" {
		opts.Renderer = mathrender.NewClient(cfg.MathRendererURL, cfg.MathRenderTimeout, stats)
	}
	if cfg.ExtractorURL != "" {
		opts.Extractor = refsource.Fallback{
			refsource.NewHTMLExtractor(cfg.ExtractorURL, 60*time.Second),
			refsource.DocxExtractor{},
		}
	}
	return opts, nil
}
