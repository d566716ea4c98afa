package factory

import (
	"fmt"
	"log/slog"

	"github.com/MachariaP/TextLineServer/cmd/textline/internal/config"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/core"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/index"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/metrics"
)

// IndexFactory picks the lookup strategy once, at startup.
type IndexFactory struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewIndexFactory creates a new index factory. m may be nil.
func NewIndexFactory(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *IndexFactory {
	return &IndexFactory{cfg: cfg, logger: logger, metrics: m}
}

// Create returns a LiveIndex when the source must be re-read on every
// query and a CachedIndex otherwise.
func (f *IndexFactory) Create() (core.MatchIndex, error) {
	if f.cfg.RereadOnQuery {
		f.logger.Info("Creating live index, source is re-read on every query", "path", f.cfg.SourcePath)
		return index.NewLive(f.cfg.SourcePath), nil
	}
	return f.createCachedIndex()
}

func (f *IndexFactory) createCachedIndex() (core.MatchIndex, error) {
	f.logger.Info("Creating cached index", "path", f.cfg.SourcePath)

	idx, err := index.NewCached(f.cfg.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load source file: %w", err)
	}
	f.metrics.SetIndexLines(idx.Len())
	f.logger.Info("Source file loaded", "lines", idx.Len())

	return idx, nil
}
