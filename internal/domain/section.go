package domain

import (
	"strings"
	"time"
)

// MinContentLength is the minimum normalized content length for a parsed
// section to count as real content. Shorter pages are treated as not found
// rather than as empty sections.
const MinContentLength = 50

// ManualSection is one logical unit of crawled source content.
// Sections are immutable once produced by the crawler; a re-crawl yields a
// new section with the same reference that supersedes the stored copy.
type ManualSection struct {
	// SectionReference is the stable identifier (manual code + number),
	// used as the idempotency key, e.g. "CH14100".
	SectionReference string
	Title            string
	Content          string
	// ParentSection is a non-owning back-reference to the section this
	// one hangs under, empty at the top of a manual.
	ParentSection string
	// Breadcrumb holds ancestor titles, outermost first.
	Breadcrumb    []string
	SourceURL     string
	InternalLinks []string
	LastModified  *time.Time
}

// Validate checks the crawler's section invariants.
func (s *ManualSection) Validate(manualCode string) error {
	if s.SectionReference == "" {
		return ErrMissingRequiredField
	}
	if !strings.HasPrefix(s.SectionReference, manualCode) {
		return ErrInvalidSectionRef
	}
	if len(strings.TrimSpace(s.Content)) < MinContentLength {
		return ErrContentTooShort
	}
	return nil
}
