package domain

import "time"

// KnowledgeCategory labels the broad area of law a record belongs to.
type KnowledgeCategory string

const (
	CategoryHMRCPowers     KnowledgeCategory = "hmrc_powers"
	CategoryComplaints     KnowledgeCategory = "complaints_process"
	CategoryInvestigations KnowledgeCategory = "investigations"
	CategoryLegislation    KnowledgeCategory = "legislation"
	CategoryCaseLaw        KnowledgeCategory = "case_law"
)

// DocumentType labels the kind of source document a record was built from.
type DocumentType string

const (
	DocumentTypeManual      DocumentType = "hmrc_manual"
	DocumentTypeLegislation DocumentType = "legislation"
	DocumentTypeCaseLaw     DocumentType = "case_law"
)

// VerificationStatus records how a knowledge entry has been checked.
type VerificationStatus string

const (
	VerificationAuto     VerificationStatus = "auto"
	VerificationReviewed VerificationStatus = "reviewed"
)

// KnowledgeEntry is the persisted unit of the knowledge store, one row per
// chunk. At most one non-superseded entry exists per
// (SectionReference, ManualCode, ChunkIndex).
type KnowledgeEntry struct {
	ID               string
	Category         KnowledgeCategory
	Title            string
	Content          string
	Source           string
	SourceURL        string
	Verification     VerificationStatus
	SectionReference string
	ManualCode       string
	ParentSection    string
	Breadcrumb       []string
	CitationFormat   string
	DocumentType     DocumentType
	Embedding        []float32
	ChunkIndex       int
	TotalChunks      int
	Superseded       bool
	LastCheckedAt    time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
