package models

// UploadRequest describes one staged file handed over by the HTTP boundary.
// The staged bytes at Path are owned by the ingestion call and are removed
// when it finishes, whatever the outcome.
type UploadRequest struct {
	// Path is the local temp path of the staged bytes.
	Path string
	// FileName is the client-declared name, used for type fallback only.
	FileName string
	// SizeBytes is the staged size as reported by the upload boundary.
	SizeBytes int64
	// OwnerID is the authenticated owner.
	OwnerID string
	// Public is the requested visibility.
	Public bool
}

// OutcomeStatus is the terminal state of one file's ingestion.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeDuplicate OutcomeStatus = "duplicate"
	OutcomeFailed    OutcomeStatus = "failed"
)

// FailureKind classifies a failed ingestion by the pipeline step that
// rejected it.
type FailureKind string

const (
	FailureValidation     FailureKind = "validation"
	FailureIntegrity      FailureKind = "integrity"
	FailureTransientStore FailureKind = "transient-store"
	FailurePersistence    FailureKind = "persistence"
)

// FileOutcome is the per-file result reported to the caller. Entry is set
// for succeeded and duplicate outcomes; FailureKind and Reason are set for
// failed ones.
type FileOutcome struct {
	FileName    string
	Status      OutcomeStatus
	Entry       *CatalogEntry
	FailureKind FailureKind
	Reason      string
}

// BatchSummary aggregates a batch run. Duplicates count as succeeded:
// the caller got a usable entry back.
type BatchSummary struct {
	Total     int
	Succeeded int
	Failed    int
}

// BatchResult holds per-file outcomes in input order plus the summary.
type BatchResult struct {
	Outcomes []*FileOutcome
	Summary  BatchSummary
}
