package crawler

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
)

// SnapshotArchive persists raw page bodies for audit and reprocessing.
// Optional; a nil archive disables snapshots.
type SnapshotArchive interface {
	Store(ctx context.Context, key string, body []byte) error
}

// Crawler walks one manual source: index discovery, then strictly
// sequential section fetches with a polite delay between each. The delay
// is a deliberate politeness tradeoff, not a performance limitation.
type Crawler struct {
	fetcher *Fetcher
	delay   time.Duration
	archive SnapshotArchive
}

func New(fetcher *Fetcher, delay time.Duration) *Crawler {
	return &Crawler{fetcher: fetcher, delay: delay}
}

func NewWithArchive(fetcher *Fetcher, delay time.Duration, archive SnapshotArchive) *Crawler {
	return &Crawler{fetcher: fetcher, delay: delay, archive: archive}
}

// CheckAccessible is the pre-flight HEAD probe of the source index page.
func (c *Crawler) CheckAccessible(ctx context.Context, source domain.SourceConfig) error {
	if err := c.fetcher.Head(ctx, source.IndexURL()); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeUnreachable, "source index page is unreachable", err)
	}
	return nil
}

// SectionURLs fetches the index page and extracts section links matching
// the source path, excluding the index itself and anchor-only links,
// deduplicated in discovery order.
func (c *Crawler) SectionURLs(ctx context.Context, source domain.SourceConfig) ([]string, error) {
	body, err := c.fetcher.Get(ctx, source.IndexURL())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse index page: %w", err)
	}

	seen := map[string]bool{}
	var urls []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		resolved, ok := c.resolveSectionURL(href, source)
		if !ok || seen[resolved] {
			return
		}
		seen[resolved] = true
		urls = append(urls, resolved)
	})

	return urls, nil
}

func (c *Crawler) resolveSectionURL(href string, source domain.SourceConfig) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if u.Fragment != "" && u.Path == "" {
		return "", false
	}

	path := u.Path
	if !strings.HasPrefix(path, source.IndexPath+"/") {
		return "", false
	}
	if strings.TrimSuffix(path, "/") == source.IndexPath {
		return "", false
	}

	return source.BaseURL + path, true
}

// ParseSection fetches and parses one section page. A nil section with a
// nil error means the page failed validation and should be silently
// skipped; it is not a fetch failure.
func (c *Crawler) ParseSection(ctx context.Context, pageURL string, source domain.SourceConfig) (*domain.ManualSection, error) {
	body, err := c.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	section, err := parseSectionHTML(pageURL, body, source)
	if err != nil {
		return nil, err
	}

	if section != nil && c.archive != nil {
		key := fmt.Sprintf("%s/%s.html", source.Code, section.SectionReference)
		if err := c.archive.Store(ctx, key, body); err != nil {
			// Snapshots are best-effort; the section itself is fine.
			log.Printf("snapshot archive failed for %s: %v", key, err)
		}
	}

	return section, nil
}

// Crawl discovers and fetches every section of a source, one at a time in
// discovery order. Per-URL failures are recorded and skipped; the crawl
// continues with the remaining URLs.
func (c *Crawler) Crawl(ctx context.Context, source domain.SourceConfig, onProgress func(current, total int)) ([]domain.ManualSection, []domain.IngestionError, error) {
	urls, err := c.SectionURLs(ctx, source)
	if err != nil {
		return nil, nil, err
	}

	var sections []domain.ManualSection
	var errs []domain.IngestionError

	for i, pageURL := range urls {
		if i > 0 && c.delay > 0 {
			if err := sleep(ctx, c.delay); err != nil {
				return sections, errs, err
			}
		}

		section, err := c.ParseSection(ctx, pageURL, source)
		if err != nil {
			log.Printf("crawl %s: section %s failed: %v", source.Code, pageURL, err)
			errs = append(errs, domain.IngestionError{Section: pageURL, Error: err.Error()})
		} else if section != nil {
			sections = append(sections, *section)
		}

		if onProgress != nil {
			onProgress(i+1, len(urls))
		}
	}

	return sections, errs, nil
}
