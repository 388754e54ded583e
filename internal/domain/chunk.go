package domain

// ManualChunk is a retrieval-sized fragment derived from one ManualSection.
// Chunks live only for the duration of an ingestion run; the store persists
// KnowledgeEntry records built from them.
type ManualChunk struct {
	SectionReference string
	ChunkIndex       int
	// TotalChunks is stamped after every chunk for the section exists.
	TotalChunks int
	Title       string
	// Content is the trimmed chunk text.
	Content string
	// EmbeddingText is Content prefixed with the hierarchical context
	// header so the chunk is self-describing out of context.
	EmbeddingText  string
	ParentSection  string
	Breadcrumb     []string
	SourceURL      string
	ManualCode     string
	CitationFormat string
}
