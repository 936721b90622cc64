// Package source provides the places a tracker workbook can be read from.
package source

import (
	"context"

	"travelboard/internal/config"
	"travelboard/internal/travel"
)

var (
	_ travel.Source = (*File)(nil)
	_ travel.Source = (*S3)(nil)
)

// New picks the source configured in cfg; an S3 bucket wins over a local path
func New(ctx context.Context, cfg config.SourceConfig) (travel.Source, error) {
	if cfg.UsesS3() {
		return NewS3(ctx, cfg.S3, S3Options{})
	}
	return NewFile(cfg.Path), nil
}
