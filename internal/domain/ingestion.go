package domain

import "time"

// IngestionStatus is the per-chunk outcome of an upsert decision.
type IngestionStatus string

const (
	StatusAdded     IngestionStatus = "added"
	StatusUpdated   IngestionStatus = "updated"
	StatusUnchanged IngestionStatus = "unchanged"
	StatusError     IngestionStatus = "error"
)

// IngestionStage identifies the phase an ingestion run is in.
type IngestionStage string

const (
	StageCrawling  IngestionStage = "crawling"
	StageChunking  IngestionStage = "chunking"
	StageEmbedding IngestionStage = "embedding"
	StageStoring   IngestionStage = "storing"
)

// ProgressFunc reports (stage, current, total) to the caller. May be nil.
type ProgressFunc func(stage IngestionStage, current, total int)

// IngestionResult is the outcome for a single chunk.
type IngestionResult struct {
	SectionReference string
	ChunkIndex       int
	Status           IngestionStatus
	Err              error
}

// IngestionError pairs a failing section with its error message.
type IngestionError struct {
	Section string `json:"section"`
	Error   string `json:"error"`
	// Fatal marks pre-flight failures that aborted the whole run.
	Fatal bool `json:"fatal,omitempty"`
}

// IngestionSummary aggregates one run over one source. A run never aborts
// on a single chunk failure; fatal pre-flight errors produce a summary
// with exactly one fatal error entry.
type IngestionSummary struct {
	SourceCode string           `json:"source_code"`
	Added      int              `json:"added"`
	Updated    int              `json:"updated"`
	Unchanged  int              `json:"unchanged"`
	Errors     []IngestionError `json:"errors"`
	Sections   int              `json:"sections"`
	Chunks     int              `json:"chunks"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// Record adds one chunk result to the summary tallies.
func (s *IngestionSummary) Record(r IngestionResult) {
	switch r.Status {
	case StatusAdded:
		s.Added++
	case StatusUpdated:
		s.Updated++
	case StatusUnchanged:
		s.Unchanged++
	case StatusError:
		msg := "unknown error"
		if r.Err != nil {
			msg = r.Err.Error()
		}
		s.Errors = append(s.Errors, IngestionError{
			Section: r.SectionReference,
			Error:   msg,
		})
	}
}

// Fatal returns true when the run aborted before any chunk was processed.
func (s *IngestionSummary) Fatal() bool {
	return len(s.Errors) == 1 && s.Errors[0].Fatal
}

// IngestionRun is the persisted audit record, one row per run regardless
// of outcome.
type IngestionRun struct {
	ID         string
	SourceCode string
	Added      int
	Updated    int
	Unchanged  int
	Errors     []IngestionError
	Sections   int
	Chunks     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// StalenessCount reports how many non-superseded entries for a source have
// not been checked since the threshold. Reporting only; never triggers a
// re-crawl.
type StalenessCount struct {
	ManualCode string    `json:"manual_code"`
	Stale      int       `json:"stale"`
	Total      int       `json:"total"`
	Threshold  time.Time `json:"threshold"`
}
