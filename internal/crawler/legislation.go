package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
)

// legislation.gov.uk markup differs from GOV.UK manuals, so the section
// parser gets its own candidate selectors.
var (
	legTitleSelectors = []string{
		".LegSnippet .LegP1GroupTitle",
		"h1 .LegTitle",
		"h1",
	}
	legContentSelectors = []string{
		".LegSnippet",
		"#viewLegSnippet",
		"#content",
	}
)

// ParseLegislationSection fetches one numbered section of an Act. The
// validation contract matches ParseSection: nil with no error means the
// page had no usable provision text.
func (c *Crawler) ParseLegislationSection(ctx context.Context, act domain.ActConfig, sectionNumber string) (*domain.LegislationSection, error) {
	pageURL := act.SectionURL(sectionNumber)
	body, err := c.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse legislation page %s: %w", pageURL, err)
	}

	title := extractLegTitle(doc, sectionNumber)
	content := extractLegContent(doc)
	if len(content) < domain.MinContentLength {
		return nil, nil
	}

	return &domain.LegislationSection{
		ActIdentifier: act.Identifier,
		ActName:       act.Name,
		SectionNumber: sectionNumber,
		Title:         title,
		Content:       content,
		SourceURL:     pageURL,
	}, nil
}

func extractLegTitle(doc *goquery.Document, sectionNumber string) string {
	for _, sel := range legTitleSelectors {
		heading := doc.Find(sel).First()
		if heading.Length() == 0 {
			continue
		}
		title := strings.TrimSpace(heading.Text())
		if title == "" {
			continue
		}
		// Provision headings lead with the section number.
		title = strings.TrimSpace(strings.TrimPrefix(title, sectionNumber))
		title = strings.TrimSpace(strings.TrimLeft(title, ".:-–"))
		return title
	}
	return ""
}

func extractLegContent(doc *goquery.Document) string {
	for _, sel := range legContentSelectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}

		container.Find("nav, script, style, noscript, .LegNavLinks").Remove()

		var blocks []string
		container.Find("p, li, td, .LegP2Container, .LegP3Container").Each(func(_ int, block *goquery.Selection) {
			if block.Children().Filter("p, li, .LegP2Container, .LegP3Container").Length() > 0 {
				return
			}
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
