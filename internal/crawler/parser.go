package crawler

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
)

// Candidate selectors, tried in order until one yields content. GOV.UK
// templates drift over time, so the older container classes stay on the
// list behind the current ones.
var (
	titleSelectors = []string{
		"main h1",
		"article h1",
		"h1",
	}
	breadcrumbSelectors = []string{
		".gem-c-breadcrumbs ol li",
		"nav.breadcrumbs li",
		".breadcrumbs li",
		".breadcrumb li",
	}
	contentSelectors = []string{
		"main .gem-c-govspeak",
		"main .govspeak",
		"article .govspeak",
		"article",
		"main",
		"#content",
	}
	previousSelectors = []string{
		"a[rel=prev]",
		".gem-c-pagination__link--previous",
		".previous-page a",
	}
)

// genericCrumbs are navigation entries that carry no hierarchy
// information and are filtered from breadcrumbs.
var genericCrumbs = map[string]bool{
	"home":     true,
	"contents": true,
}

var (
	spaceRunRe = regexp.MustCompile(`[ \t\r\f]+`)
	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// parseSectionHTML extracts a structured section from one page. Returns
// nil (no error) when the page fails validation: a reference that does
// not belong to the source, or content too short to be a real section.
func parseSectionHTML(pageURL string, body []byte, source domain.SourceConfig) (*domain.ManualSection, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	ref := referenceFromURL(pageURL)
	if !strings.HasPrefix(ref, source.Code) {
		return nil, nil
	}

	section := &domain.ManualSection{
		SectionReference: ref,
		Title:            extractTitle(doc, ref),
		Breadcrumb:       extractBreadcrumb(doc),
		Content:          extractContent(doc),
		InternalLinks:    extractInternalLinks(doc, source, ref),
		ParentSection:    extractParent(doc, source, ref),
		SourceURL:        pageURL,
	}

	if err := section.Validate(source.Code); err != nil {
		return nil, nil
	}
	return section, nil
}

// referenceFromURL derives the section reference from the last path
// segment, e.g. ".../compliance-handbook/ch14100" -> "CH14100".
func referenceFromURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	path := strings.TrimSuffix(u.Path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return strings.ToUpper(path)
	}
	return strings.ToUpper(path[idx+1:])
}

func extractTitle(doc *goquery.Document, ref string) string {
	for _, sel := range titleSelectors {
		heading := doc.Find(sel).First()
		if heading.Length() == 0 {
			continue
		}
		title := strings.TrimSpace(heading.Text())
		if title == "" {
			continue
		}
		// Headings often repeat the reference in front of the title.
		title = strings.TrimSpace(strings.TrimPrefix(title, ref))
		title = strings.TrimSpace(strings.TrimLeft(title, ":-–"))
		return title
	}
	return ""
}

func extractBreadcrumb(doc *goquery.Document) []string {
	for _, sel := range breadcrumbSelectors {
		var crumb []string
		doc.Find(sel).Each(func(_ int, li *goquery.Selection) {
			text := strings.TrimSpace(li.Text())
			if text == "" || genericCrumbs[strings.ToLower(text)] {
				return
			}
			crumb = append(crumb, text)
		})
		if len(crumb) > 0 {
			return crumb
		}
	}
	return nil
}

func extractContent(doc *goquery.Document) string {
	for _, sel := range contentSelectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}

		// Navigation chrome inside the container would pollute the text.
		container.Find("nav, .gem-c-breadcrumbs, .breadcrumbs, .breadcrumb, script, style, noscript").Remove()

		var blocks []string
		container.Find("p, h2, h3, h4, li, td").Each(func(_ int, block *goquery.Selection) {
			if text := strings.TrimSpace(block.Text()); text != "" {
				blocks = append(blocks, text)
			}
		})

		text := strings.Join(blocks, "\n\n")
		if text == "" {
			text = container.Text()
		}

		if normalized := normalizeWhitespace(text); normalized != "" {
			return normalized
		}
	}
	return ""
}

func extractInternalLinks(doc *goquery.Document, source domain.SourceConfig, self string) []string {
	seen := map[string]bool{}
	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if !strings.Contains(href, source.IndexPath+"/") {
			return
		}
		ref := referenceFromURL(href)
		if ref == "" || ref == self || !strings.HasPrefix(ref, source.Code) {
			return
		}
		if !seen[ref] {
			seen[ref] = true
			links = append(links, ref)
		}
	})
	return links
}

// extractParent resolves the "previous page" navigation link, accepted
// only when it points at a different section of the same source.
func extractParent(doc *goquery.Document, source domain.SourceConfig, self string) string {
	for _, sel := range previousSelectors {
		link := doc.Find(sel).First()
		if link.Length() == 0 {
			continue
		}
		ref := referenceFromURL(link.AttrOr("href", ""))
		if ref != "" && ref != self && strings.HasPrefix(ref, source.Code) {
			return ref
		}
	}
	return ""
}

// normalizeWhitespace collapses runs of spaces, trims every line, and
// allows at most one blank line between paragraphs.
func normalizeWhitespace(text string) string {
	text = spaceRunRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
