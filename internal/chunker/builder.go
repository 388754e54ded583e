package chunker

import (
	"fmt"
	"strings"

	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
)

// builder accumulates chunk drafts for one section. TotalChunks is only
// known once every chunk exists, so drafts stay mutable until finalize.
type builder struct {
	section domain.ManualSection
	source  domain.SourceConfig
	header  string
	drafts  []string
}

func newBuilder(section domain.ManualSection, source domain.SourceConfig, header string) *builder {
	return &builder{
		section: section,
		source:  source,
		header:  header,
	}
}

func (b *builder) empty() bool {
	return len(b.drafts) == 0
}

func (b *builder) add(content string) {
	b.drafts = append(b.drafts, strings.TrimSpace(content))
}

// mergeIntoLast appends a below-minimum tail to the previous draft rather
// than emitting it standalone.
func (b *builder) mergeIntoLast(tail string) {
	if len(b.drafts) == 0 {
		b.drafts = []string{tail}
		return
	}
	b.drafts[len(b.drafts)-1] += "\n\n" + tail
}

// finalize stamps every draft with the final chunk count, citation, and
// embedding text, and yields immutable chunk records.
func (b *builder) finalize() []domain.ManualChunk {
	total := len(b.drafts)
	chunks := make([]domain.ManualChunk, 0, total)

	for i, content := range b.drafts {
		citation := b.section.SectionReference
		if i > 0 {
			citation = fmt.Sprintf("%s (part %d)", b.section.SectionReference, i+1)
		}

		chunks = append(chunks, domain.ManualChunk{
			SectionReference: b.section.SectionReference,
			ChunkIndex:       i,
			TotalChunks:      total,
			Title:            b.section.Title,
			Content:          content,
			EmbeddingText:    b.header + "\n\n" + content,
			ParentSection:    b.section.ParentSection,
			Breadcrumb:       b.section.Breadcrumb,
			SourceURL:        b.section.SourceURL,
			ManualCode:       b.source.Code,
			CitationFormat:   citation,
		})
	}

	return chunks
}
