// Package gig writes service listings. Listing management is out of scope
// for the API; the bid ledger reads gigs itself, so the seeder is the only
// caller.
package gig

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/gigbid/internal/database"
	"github.com/Additional-Code/gigbid/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/gigbid/repository/gig")

// Module provides the gig repository to Fx.
var Module = fx.Provide(NewRepository)

// Repository encapsulates access to gigs.
type Repository struct {
	writer *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer}
}

// Create persists a gig.
func (r *Repository) Create(ctx context.Context, gig *entity.Gig) error {
	if gig == nil {
		return errors.New("nil gig")
	}
	ctx, span := repoTracer.Start(ctx, "GigRepository.Create", trace.WithAttributes(attribute.Int64("gig.seller_id", gig.SellerID)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(gig).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}
