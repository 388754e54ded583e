// Package chunker splits crawled sections into retrieval-sized chunks
// along paragraph and sentence boundaries, preserving hierarchical context
// in every chunk's embedding text.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
)

// Config controls chunk sizing.
type Config struct {
	// MaxChunkSize is the upper bound on chunk content length in chars.
	MaxChunkSize int
	// MinChunkSize is the lower bound; a short tail is merged into the
	// previous chunk instead of stored standalone.
	MinChunkSize int
	// Overlap is the number of trailing chars carried into the next
	// chunk for retrieval continuity across the artificial boundary.
	Overlap int
	// MaxContextLength caps the context header prefixed to embedding
	// text.
	MaxContextLength int
}

// DefaultConfig provides sane defaults for manual sections.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize:     1500,
		MinChunkSize:     300,
		Overlap:          150,
		MaxContextLength: 200,
	}
}

var sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)

// Chunker produces ManualChunks from ManualSections.
type Chunker struct {
	cfg Config
}

func New(cfg Config) *Chunker {
	if cfg.MaxChunkSize <= 0 {
		cfg = DefaultConfig()
	}
	return &Chunker{cfg: cfg}
}

func NewDefault() *Chunker {
	return New(DefaultConfig())
}

// ChunkSection splits one section into finalized chunks. Chunk drafts are
// accumulated first and only stamped with TotalChunks, citations, and
// embedding text once the whole section has been consumed, so callers
// never see a partially-finalized chunk.
func (c *Chunker) ChunkSection(section domain.ManualSection, source domain.SourceConfig) []domain.ManualChunk {
	b := newBuilder(section, source, c.contextHeader(section, source))

	content := strings.TrimSpace(section.Content)
	if content == "" {
		return nil
	}

	if len(content) <= c.cfg.MaxChunkSize {
		b.add(content)
		return b.finalize()
	}

	var buf string
	var seedLen int
	for _, u := range c.splitUnits(content) {
		candidate := u.text
		if buf != "" {
			candidate = buf + u.sep + u.text
		}

		if len(candidate) > c.cfg.MaxChunkSize && len(buf) >= c.cfg.MinChunkSize {
			b.add(buf)
			buf, seedLen = c.seed(buf, u)
			continue
		}
		buf = candidate
	}

	tail := strings.TrimSpace(buf)
	switch {
	case tail == "":
	case len(tail) >= c.cfg.MinChunkSize || b.empty():
		b.add(tail)
	default:
		// Strip the overlap seed before merging so the tail is not
		// duplicated inside the previous chunk.
		if seedLen > 0 && seedLen < len(tail) {
			tail = strings.TrimSpace(tail[seedLen:])
		}
		b.mergeIntoLast(tail)
	}

	return b.finalize()
}

// seed starts the next buffer with the trailing overlap of the chunk just
// flushed, returning the seeded buffer and the length of the seed prefix.
// The overlap is dropped when it would leave no room for the next unit.
func (c *Chunker) seed(flushed string, u unit) (string, int) {
	trimmed := strings.TrimSpace(flushed)
	if c.cfg.Overlap <= 0 || len(trimmed) <= c.cfg.Overlap {
		return u.text, 0
	}
	tail := trimmed[len(trimmed)-c.cfg.Overlap:]
	seeded := tail + u.sep + u.text
	if len(seeded) > c.cfg.MaxChunkSize {
		return u.text, 0
	}
	return seeded, len(tail) + len(u.sep)
}

// unit is one splittable piece of content plus the separator that joined
// it to the previous piece in the original text.
type unit struct {
	text string
	sep  string
}

// splitUnits breaks content at paragraph boundaries, falling back to
// sentence boundaries for paragraphs that alone exceed the max chunk
// size, and hard-wrapping pathological single sentences.
func (c *Chunker) splitUnits(content string) []unit {
	var units []unit
	for _, para := range splitParagraphs(content) {
		if len(para) <= c.cfg.MaxChunkSize {
			units = append(units, unit{text: para, sep: "\n\n"})
			continue
		}

		sep := "\n\n"
		for _, sentence := range splitSentences(para) {
			for _, piece := range c.hardWrap(sentence) {
				units = append(units, unit{text: piece, sep: sep})
				sep = " "
			}
		}
	}
	return units
}

func splitParagraphs(content string) []string {
	var paras []string
	for _, p := range strings.Split(content, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// splitSentences cuts after sentence-ending punctuation followed by
// whitespace.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		// Cut after the punctuation, before the whitespace.
		s := strings.TrimSpace(text[last : loc[0]+1])
		if s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// hardWrap splits a single run longer than the chunk budget, leaving room
// for an overlap seed in front. Cuts fall back to the last space inside
// the window, then to a rune boundary, so words and multibyte characters
// survive even a degenerate unbroken run.
func (c *Chunker) hardWrap(text string) []string {
	width := c.cfg.MaxChunkSize - c.cfg.Overlap - 2
	if width <= 0 {
		width = c.cfg.MaxChunkSize
	}
	if len(text) <= width {
		return []string{text}
	}

	var pieces []string
	for len(text) > width {
		cut := wrapPoint(text, width)
		pieces = append(pieces, strings.TrimRight(text[:cut], " "))
		text = strings.TrimLeft(text[cut:], " ")
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}

// wrapPoint picks the cut index for one wrapped piece: the last space in
// the window if any, otherwise backed off to the start of the rune
// straddling the window boundary.
func wrapPoint(text string, width int) int {
	if idx := strings.LastIndexByte(text[:width], ' '); idx > 0 {
		return idx
	}
	cut := width
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == 0 {
		return width
	}
	return cut
}
