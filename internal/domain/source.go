package domain

import "sort"

// SourceConfig describes one crawlable manual source.
type SourceConfig struct {
	// Code prefixes every section reference in the manual, e.g. "CH".
	Code string
	// Name is the human-readable manual title used in context headers.
	Name      string
	BaseURL   string
	IndexPath string
	Category  KnowledgeCategory
	Document  DocumentType
	// Priority orders multi-source runs; lower runs first.
	Priority int
}

// IndexURL returns the absolute URL of the manual's contents page.
func (c SourceConfig) IndexURL() string {
	return c.BaseURL + c.IndexPath
}

// manualSources is the registry of HMRC manuals the ingestor knows about.
var manualSources = map[string]SourceConfig{
	"CH": {
		Code:      "CH",
		Name:      "Compliance Handbook",
		BaseURL:   "https://www.gov.uk",
		IndexPath: "/hmrc-internal-manuals/compliance-handbook",
		Category:  CategoryHMRCPowers,
		Document:  DocumentTypeManual,
		Priority:  1,
	},
	"CHG": {
		Code:      "CHG",
		Name:      "Complaints Handling Guidance",
		BaseURL:   "https://www.gov.uk",
		IndexPath: "/hmrc-internal-manuals/complaints-handling-guidance",
		Category:  CategoryComplaints,
		Document:  DocumentTypeManual,
		Priority:  2,
	},
	"EM": {
		Code:      "EM",
		Name:      "Enquiry Manual",
		BaseURL:   "https://www.gov.uk",
		IndexPath: "/hmrc-internal-manuals/enquiry-manual",
		Category:  CategoryInvestigations,
		Document:  DocumentTypeManual,
		Priority:  3,
	},
	"ARTG": {
		Code:      "ARTG",
		Name:      "Appeals reviews and tribunals guidance",
		BaseURL:   "https://www.gov.uk",
		IndexPath: "/hmrc-internal-manuals/appeals-reviews-and-tribunals-guidance",
		Category:  CategoryComplaints,
		Document:  DocumentTypeManual,
		Priority:  4,
	},
	"COG": {
		Code:      "COG",
		Name:      "Compliance Operational Guidance",
		BaseURL:   "https://www.gov.uk",
		IndexPath: "/hmrc-internal-manuals/compliance-operational-guidance",
		Category:  CategoryInvestigations,
		Document:  DocumentTypeManual,
		Priority:  5,
	},
}

// SourceByCode looks up a registered manual source.
func SourceByCode(code string) (SourceConfig, error) {
	src, ok := manualSources[code]
	if !ok {
		return SourceConfig{}, ErrUnknownSource
	}
	return src, nil
}

// Sources returns all registered manual sources in priority order.
func Sources() []SourceConfig {
	out := make([]SourceConfig, 0, len(manualSources))
	for _, src := range manualSources {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}
