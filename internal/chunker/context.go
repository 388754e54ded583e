package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
)

const ellipsis = "…"

// maxBreadcrumbEntries bounds the breadcrumb trail inside the context
// header: longer trails keep the first entry and the last two.
const maxBreadcrumbEntries = 3

// contextHeader builds the compact hierarchy string prefixed to every
// chunk's embedding text so each chunk is self-describing for retrieval
// out of context.
func (c *Chunker) contextHeader(section domain.ManualSection, source domain.SourceConfig) string {
	parts := []string{source.Name}

	if crumb := capBreadcrumb(section.Breadcrumb); crumb != "" {
		parts = append(parts, crumb)
	}

	parts = append(parts, fmt.Sprintf("Section %s: %s", section.SectionReference, section.Title))

	header := strings.Join(parts, " | ")
	if max := c.cfg.MaxContextLength; max > 0 && len(header) > max {
		cut := max - len(ellipsis)
		for cut > 0 && !utf8.RuneStart(header[cut]) {
			cut--
		}
		header = header[:cut] + ellipsis
	}
	return header
}

func capBreadcrumb(crumb []string) string {
	if len(crumb) == 0 {
		return ""
	}
	if len(crumb) <= maxBreadcrumbEntries {
		return strings.Join(crumb, " > ")
	}

	capped := []string{crumb[0], ellipsis, crumb[len(crumb)-2], crumb[len(crumb)-1]}
	return strings.Join(capped, " > ")
}
