package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/provenia/provenia/internal/server/models"
)

// IngestBatch runs the pipeline for every staged file independently,
// bounded by the configured concurrency limit. One file's failure never
// aborts or rolls back its siblings: workers report through their outcome
// slot and never return an error, so the group is only used for bounding
// and joining. Outcomes keep input order.
func (s *IngestService) IngestBatch(ctx context.Context, reqs []*models.UploadRequest) *models.BatchResult {
	outcomes := make([]*models.FileOutcome, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.maxParallel)

	for i, req := range reqs {
		g.Go(func() error {
			outcomes[i] = s.IngestFile(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	summary := models.BatchSummary{Total: len(reqs)}
	for _, out := range outcomes {
		if out.Status == models.OutcomeFailed {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}

	return &models.BatchResult{Outcomes: outcomes, Summary: summary}
}
