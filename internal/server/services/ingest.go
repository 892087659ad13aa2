package services

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/provenia/provenia/internal/common"
	"github.com/provenia/provenia/internal/filetype"
	"github.com/provenia/provenia/internal/hashx"
	"github.com/provenia/provenia/internal/logging"
	"github.com/provenia/provenia/internal/objectstore"
	"github.com/provenia/provenia/internal/server/models"
	"github.com/provenia/provenia/internal/server/repositories/catalog"
	"github.com/provenia/provenia/internal/staging"
	"github.com/provenia/provenia/internal/thumbnail"
)

// IngestService runs the per-file ingestion pipeline: validate, hash,
// deduplicate, derive, upload, pin, persist. It holds only configuration
// and injected collaborators and is safe for concurrent use.
type IngestService struct {
	stager      *staging.Stager
	validator   *filetype.Validator
	deriver     *thumbnail.Deriver
	store       objectstore.Store
	repo        catalog.Repository
	dedup       *DedupChecker
	logger      logging.Logger
	maxParallel int
}

func NewIngestService(
	stager *staging.Stager,
	validator *filetype.Validator,
	deriver *thumbnail.Deriver,
	store objectstore.Store,
	repo catalog.Repository,
	dedup *DedupChecker,
	logger logging.Logger,
	maxParallel int,
) *IngestService {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	return &IngestService{
		stager:      stager,
		validator:   validator,
		deriver:     deriver,
		store:       store,
		repo:        repo,
		dedup:       dedup,
		logger:      logger,
		maxParallel: maxParallel,
	}
}

// IngestFile drives one staged file to a terminal outcome. The staged
// bytes are removed before returning, whatever the outcome; the outcome is
// always non-nil and failures are reported in it, not as an error return.
func (s *IngestService) IngestFile(ctx context.Context, req *models.UploadRequest) *models.FileOutcome {
	defer func() {
		if err := s.stager.Remove(req.Path); err != nil {
			s.logger.Warn(ctx, "staged file cleanup failed", "path", req.Path, "error", err)
		}
	}()

	out := &models.FileOutcome{FileName: req.FileName}

	// 1. validate
	res, err := s.validate(req)
	if err != nil {
		s.logger.Info(ctx, "upload rejected", "file", req.FileName, "owner_id", req.OwnerID, "reason", err.Error())
		return fail(out, models.FailureValidation, err)
	}

	// 2. hash
	digest, err := s.hashStaged(req.Path)
	if err != nil {
		s.logger.Warn(ctx, "hashing failed", "file", req.FileName, "error", err)
		return fail(out, models.FailureIntegrity, err)
	}

	// 3. dedup short-circuit: no remote work for content the owner already has
	existing, err := s.dedup.FindExisting(ctx, digest, req.OwnerID)
	if err != nil {
		s.logger.Error(ctx, "dedup lookup failed", "owner_id", req.OwnerID, "error", err)
		return fail(out, models.FailurePersistence, err)
	}
	if existing != nil {
		out.Status = models.OutcomeDuplicate
		out.Entry = existing
		return out
	}

	// 4. derive thumbnail (images only, best-effort)
	thumbBytes := s.deriveThumbnail(ctx, req, res)

	// 5. canonical upload
	obj, err := s.uploadCanonical(ctx, req)
	if err != nil {
		s.logger.Warn(ctx, "canonical upload failed", "file", req.FileName, "error", err)
		return fail(out, models.FailureTransientStore, err)
	}

	// 6. thumbnail upload, only after the canonical bytes are stored so a
	// canonical failure can never strand a derived artifact
	thumbCID := s.uploadThumbnail(ctx, req, thumbBytes)

	// 7. pin is a durability hint, not a correctness gate
	if err := s.store.Pin(ctx, obj.ContentID); err != nil {
		s.logger.Warn(ctx, "pin failed", "cid", obj.ContentID, "error", err)
	} else {
		obj.Pinned = true
	}

	// 8. persist the catalog entry
	entry := &models.CatalogEntry{
		ID:           uuid.NewString(),
		OwnerID:      req.OwnerID,
		ContentHash:  digest,
		ContentID:    obj.ContentID,
		ThumbnailCID: thumbCID,
		Category:     string(res.Category),
		MimeType:     res.MimeType,
		SizeBytes:    req.SizeBytes,
		Public:       req.Public,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			// lost a race against a concurrent identical upload; report the
			// winner's entry
			winner, ferr := s.repo.FindActive(ctx, digest, req.OwnerID)
			if ferr == nil {
				out.Status = models.OutcomeDuplicate
				out.Entry = winner
				return out
			}
			err = ferr
		}
		s.logger.Error(ctx, "catalog write failed after remote upload, stored object is orphaned",
			"cid", obj.ContentID, "owner_id", req.OwnerID, "error", err)
		return fail(out, models.FailurePersistence, err)
	}

	s.dedup.Remember(entry)
	s.logger.Info(ctx, "file ingested", "file", req.FileName, "owner_id", req.OwnerID,
		"cid", entry.ContentID, "category", entry.Category, "pinned", obj.Pinned)

	out.Status = models.OutcomeSucceeded
	out.Entry = entry
	return out
}

func (s *IngestService) validate(req *models.UploadRequest) (*filetype.Result, error) {
	f, err := s.stager.Open(req.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return s.validator.Validate(f, req.FileName, req.SizeBytes)
}

func (s *IngestService) hashStaged(path string) (string, error) {
	f, err := s.stager.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return hashx.SumReader(f)
}

func (s *IngestService) deriveThumbnail(ctx context.Context, req *models.UploadRequest, res *filetype.Result) []byte {
	if res.Category != filetype.CategoryImages {
		return nil
	}

	f, err := s.stager.Open(req.Path)
	if err != nil {
		s.logger.Warn(ctx, "thumbnail derivation skipped", "file", req.FileName, "error", err)
		return nil
	}
	defer f.Close()

	thumb, err := s.deriver.Derive(f)
	if err != nil {
		s.logger.Warn(ctx, "thumbnail derivation failed", "file", req.FileName, "error", err)
		return nil
	}
	return thumb
}

func (s *IngestService) uploadCanonical(ctx context.Context, req *models.UploadRequest) (*objectstore.StoredObject, error) {
	f, err := s.stager.Open(req.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return s.store.Add(ctx, f, req.FileName)
}

func (s *IngestService) uploadThumbnail(ctx context.Context, req *models.UploadRequest, thumb []byte) string {
	if len(thumb) == 0 {
		return ""
	}

	obj, err := s.store.Add(ctx, bytes.NewReader(thumb), req.FileName+".thumb.png")
	if err != nil {
		s.logger.Warn(ctx, "thumbnail upload failed, continuing without one", "file", req.FileName, "error", err)
		return ""
	}
	return obj.ContentID
}

func fail(out *models.FileOutcome, kind models.FailureKind, err error) *models.FileOutcome {
	out.Status = models.OutcomeFailed
	out.FailureKind = kind
	out.Reason = err.Error()
	return out
}
