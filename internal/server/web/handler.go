package web

import (
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/provenia/provenia/internal/common"
	"github.com/provenia/provenia/internal/logging"
	"github.com/provenia/provenia/internal/server/models"
	"github.com/provenia/provenia/internal/server/services"
	"github.com/provenia/provenia/internal/staging"
)

// FileHandler exposes the ingestion pipeline and catalog over HTTP.
type FileHandler struct {
	ingest           *services.IngestService
	catalog          *services.CatalogService
	stager           *staging.Stager
	logger           logging.Logger
	maxFileSizeBytes int64
	maxFilesPerBatch int
}

func NewFileHandler(
	ingest *services.IngestService,
	catalog *services.CatalogService,
	stager *staging.Stager,
	logger logging.Logger,
	maxFileSizeBytes int64,
	maxFilesPerBatch int,
) *FileHandler {
	return &FileHandler{
		ingest:           ingest,
		catalog:          catalog,
		stager:           stager,
		logger:           logger,
		maxFileSizeBytes: maxFileSizeBytes,
		maxFilesPerBatch: maxFilesPerBatch,
	}
}

func (h *FileHandler) RegisterRoutes(server *gin.Engine, secretKey []byte) {
	g := server.Group("/api/v1", AuthMiddleware(secretKey))
	g.POST("/files", h.Upload)
	g.POST("/files/batch", h.UploadBatch)
	g.GET("/files", h.List)
	g.GET("/files/:id", h.Get)
	g.GET("/files/:id/url", h.URL)
	g.DELETE("/files/:id", h.Delete)
}

type entryResponse struct {
	ID           string    `json:"id"`
	ContentHash  string    `json:"content_hash"`
	ContentID    string    `json:"content_id"`
	ThumbnailCID string    `json:"thumbnail_cid,omitempty"`
	Category     string    `json:"category"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Public       bool      `json:"public"`
	CreatedAt    time.Time `json:"created_at"`
	URL          string    `json:"url,omitempty"`
}

type outcomeResponse struct {
	FileName    string         `json:"file_name,omitempty"`
	Outcome     string         `json:"outcome"`
	Entry       *entryResponse `json:"entry,omitempty"`
	FailureKind string         `json:"failure_kind,omitempty"`
	Reason      string         `json:"reason,omitempty"`
}

func (h *FileHandler) entryJSON(entry *models.CatalogEntry) *entryResponse {
	return &entryResponse{
		ID:           entry.ID,
		ContentHash:  entry.ContentHash,
		ContentID:    entry.ContentID,
		ThumbnailCID: entry.ThumbnailCID,
		Category:     entry.Category,
		MimeType:     entry.MimeType,
		SizeBytes:    entry.SizeBytes,
		Public:       entry.Public,
		CreatedAt:    entry.CreatedAt,
		URL:          h.catalog.EntryURL(entry),
	}
}

func (h *FileHandler) outcomeJSON(out *models.FileOutcome) *outcomeResponse {
	resp := &outcomeResponse{
		FileName: out.FileName,
		Outcome:  string(out.Status),
		Reason:   out.Reason,
	}
	if out.FailureKind != "" {
		resp.FailureKind = string(out.FailureKind)
	}
	if out.Entry != nil {
		resp.Entry = h.entryJSON(out.Entry)
	}
	return resp
}

// Upload ingests a single multipart file. A failed file fails the whole
// call, unlike the batch endpoint.
func (h *FileHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	req, ok := h.stageUpload(c, file)
	if !ok {
		return
	}

	out := h.ingest.IngestFile(c.Request.Context(), req)
	c.JSON(statusFor(out), h.outcomeJSON(out))
}

// UploadBatch ingests up to maxFilesPerBatch files and always answers with
// a partial-success structure, never all-or-nothing.
func (h *FileHandler) UploadBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart body"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files in batch"})
		return
	}
	if len(files) > h.maxFilesPerBatch {
		c.JSON(http.StatusBadRequest, gin.H{"error": common.ErrBatchTooLarge.Error(), "max": h.maxFilesPerBatch})
		return
	}

	// A file that cannot even be staged fails alone; its siblings still run.
	outcomes := make([]*models.FileOutcome, len(files))
	var reqs []*models.UploadRequest
	var slots []int
	for i, file := range files {
		req, failed := h.stageForBatch(c, file)
		if failed != nil {
			outcomes[i] = failed
			continue
		}
		reqs = append(reqs, req)
		slots = append(slots, i)
	}

	res := h.ingest.IngestBatch(c.Request.Context(), reqs)
	for j, out := range res.Outcomes {
		outcomes[slots[j]] = out
	}

	summary := models.BatchSummary{Total: len(files)}
	for _, out := range outcomes {
		if out.Status == models.OutcomeFailed {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}

	results := make([]*outcomeResponse, len(outcomes))
	for i, out := range outcomes {
		results[i] = h.outcomeJSON(out)
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"summary": gin.H{
			"total":     summary.Total,
			"succeeded": summary.Succeeded,
			"failed":    summary.Failed,
		},
	})
}

// stageForBatch stages one batch member. Unlike the single-file path it
// never writes an HTTP response: a file that is oversized, empty or
// unreadable comes back as a failed outcome for its own slot.
func (h *FileHandler) stageForBatch(c *gin.Context, file *multipart.FileHeader) (*models.UploadRequest, *models.FileOutcome) {
	if h.maxFileSizeBytes > 0 && file.Size > h.maxFileSizeBytes {
		return nil, batchFailure(file.Filename, models.FailureValidation, common.ErrFileTooLarge)
	}

	src, err := file.Open()
	if err != nil {
		return nil, batchFailure(file.Filename, models.FailureValidation, err)
	}
	defer src.Close()

	path, size, err := h.stager.Stage(src)
	if err != nil {
		h.logger.Error(c.Request.Context(), "staging batch member failed", "file", file.Filename, "error", err)
		return nil, batchFailure(file.Filename, models.FailureIntegrity, err)
	}
	if size == 0 {
		_ = h.stager.Remove(path)
		return nil, batchFailure(file.Filename, models.FailureValidation, common.ErrEmptyFile)
	}

	return &models.UploadRequest{
		Path:      path,
		FileName:  file.Filename,
		SizeBytes: size,
		OwnerID:   OwnerID(c),
		Public:    c.PostForm("public") == "true",
	}, nil
}

func batchFailure(name string, kind models.FailureKind, err error) *models.FileOutcome {
	return &models.FileOutcome{
		FileName:    name,
		Status:      models.OutcomeFailed,
		FailureKind: kind,
		Reason:      err.Error(),
	}
}

// stageUpload copies one multipart file into the staging area and builds
// the upload request. On failure it writes the HTTP error itself and
// returns ok=false.
func (h *FileHandler) stageUpload(c *gin.Context, file *multipart.FileHeader) (*models.UploadRequest, bool) {
	if h.maxFileSizeBytes > 0 && file.Size > h.maxFileSizeBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": common.ErrFileTooLarge.Error(),
			"file":  file.Filename,
			"max":   h.maxFileSizeBytes,
		})
		return nil, false
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file", "file": file.Filename})
		return nil, false
	}
	defer src.Close()

	path, size, err := h.stager.Stage(src)
	if err != nil {
		h.logger.Error(c.Request.Context(), "staging upload failed", "file", file.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not stage upload"})
		return nil, false
	}
	if size == 0 {
		_ = h.stager.Remove(path)
		c.JSON(http.StatusBadRequest, gin.H{"error": common.ErrEmptyFile.Error(), "file": file.Filename})
		return nil, false
	}

	return &models.UploadRequest{
		Path:      path,
		FileName:  file.Filename,
		SizeBytes: size,
		OwnerID:   OwnerID(c),
		Public:    c.PostForm("public") == "true",
	}, true
}

func (h *FileHandler) List(c *gin.Context) {
	entries, err := h.catalog.List(c.Request.Context(), OwnerID(c))
	if err != nil {
		h.logger.Error(c.Request.Context(), "listing catalog failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	out := make([]*entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, h.entryJSON(e))
	}
	c.JSON(http.StatusOK, gin.H{"files": out})
}

func (h *FileHandler) Get(c *gin.Context) {
	entry, err := h.catalog.Get(c.Request.Context(), OwnerID(c), c.Param("id"))
	if err != nil {
		h.writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.entryJSON(entry))
}

func (h *FileHandler) URL(c *gin.Context) {
	entry, err := h.catalog.Get(c.Request.Context(), OwnerID(c), c.Param("id"))
	if err != nil {
		h.writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": h.catalog.EntryURL(entry)})
}

func (h *FileHandler) Delete(c *gin.Context) {
	entry, err := h.catalog.Delete(c.Request.Context(), OwnerID(c), c.Param("id"))
	if err != nil {
		h.writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": entry.ID, "active": entry.IsActive})
}

func (h *FileHandler) writeLookupError(c *gin.Context, err error) {
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.logger.Error(c.Request.Context(), "catalog lookup failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// statusFor maps a single-file outcome to an HTTP status. Duplicates are a
// success variant: the caller gets the existing entry back.
func statusFor(out *models.FileOutcome) int {
	switch out.Status {
	case models.OutcomeSucceeded:
		return http.StatusCreated
	case models.OutcomeDuplicate:
		return http.StatusOK
	}

	switch out.FailureKind {
	case models.FailureValidation:
		return http.StatusBadRequest
	case models.FailureTransientStore:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
