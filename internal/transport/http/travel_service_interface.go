package http

import (
	"context"
	"time"

	"travelboard/internal/services"
	"travelboard/internal/travel"
)

// TravelServiceInterface is what the travel handlers need from the service layer
type TravelServiceInterface interface {
	Today() time.Time
	QueryByName(ctx context.Context, name string, raw travel.RawCriteria) (*services.ViewResult, error)
	Query(ctx context.Context, kind travel.ViewKind, raw travel.RawCriteria) (*services.ViewResult, error)
	Years(ctx context.Context) []int
	Status(ctx context.Context) services.DatasetStatus
	Reload(ctx context.Context) (services.DatasetStatus, error)
}

var _ TravelServiceInterface = (*services.TravelService)(nil)
