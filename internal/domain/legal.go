package domain

import "fmt"

// ActConfig identifies one Act on legislation.gov.uk and the numbered
// sections worth ingesting from it.
type ActConfig struct {
	Identifier string
	Name       string
	BaseURL    string
	Sections   []string
}

// SectionURL returns the page URL for one numbered section of the Act.
func (a ActConfig) SectionURL(sectionNumber string) string {
	return fmt.Sprintf("%s/section/%s", a.BaseURL, sectionNumber)
}

// acts lists the statutory provisions most relevant to HMRC complaint
// work: enquiry powers, information powers, and penalty regimes.
var acts = []ActConfig{
	{
		Identifier: "TMA1970",
		Name:       "Taxes Management Act 1970",
		BaseURL:    "https://www.legislation.gov.uk/ukpga/1970/9",
		Sections:   []string{"9A", "12B", "19A", "29", "34", "49A"},
	},
	{
		Identifier: "CRCA2005",
		Name:       "Commissioners for Revenue and Customs Act 2005",
		BaseURL:    "https://www.legislation.gov.uk/ukpga/2005/11",
		Sections:   []string{"5", "9", "18", "51"},
	},
	{
		Identifier: "FA2007",
		Name:       "Finance Act 2007",
		BaseURL:    "https://www.legislation.gov.uk/ukpga/2007/11",
		Sections:   []string{"97"},
	},
}

// Acts returns the legislation ingestion registry.
func Acts() []ActConfig {
	out := make([]ActConfig, len(acts))
	copy(out, acts)
	return out
}

// ActByIdentifier looks up a configured Act.
func ActByIdentifier(id string) (ActConfig, error) {
	for _, a := range acts {
		if a.Identifier == id {
			return a, nil
		}
	}
	return ActConfig{}, fmt.Errorf("%w: %s", ErrUnknownSource, id)
}

// LegislationSection is one numbered sub-part of an Act, fetched from
// legislation.gov.uk. Keyed by (SectionNumber, ActIdentifier).
type LegislationSection struct {
	ActIdentifier string
	ActName       string
	SectionNumber string
	Title         string
	Content       string
	SourceURL     string
}

// CasePrecedent is a decided tax case, keyed by its neutral citation.
type CasePrecedent struct {
	CaseReference string
	CaseName      string
	Court         string
	Year          int
	Summary       string
	Outcome       string
	KeyPrinciples []string
	SourceURL     string
}

// CaseLawCode is the manual-code slot used for precedent records in the
// unified knowledge store.
const CaseLawCode = "CASELAW"

// seedPrecedents are the leading authorities on HMRC conduct and
// complaint handling, maintained by hand rather than crawled.
var seedPrecedents = []CasePrecedent{
	{
		CaseReference: "[2013] UKFTT 317 (TC)",
		CaseName:      "Portland Gas Storage Ltd v HMRC",
		Court:         "First-tier Tribunal (Tax Chamber)",
		Year:          2013,
		Summary:       "The tribunal considered the scope of its jurisdiction over HMRC conduct in handling an enquiry, holding that complaints about the manner of an investigation fall outside the appeal jurisdiction and belong with the Adjudicator.",
		Outcome:       "Jurisdiction declined in part",
		KeyPrinciples: []string{"tribunal jurisdiction limits", "conduct complaints routed to the Adjudicator"},
		SourceURL:     "https://www.bailii.org/uk/cases/UKFTT/TC/2013/TC02720.html",
	},
	{
		CaseReference: "[2016] UKUT 320 (TCC)",
		CaseName:      "R (oao Ingenious Media) v HMRC",
		Court:         "Supreme Court",
		Year:          2016,
		Summary:       "HMRC officials disclosed taxpayer information to journalists in an off-the-record briefing. The Supreme Court held the disclosure breached the duty of confidentiality in s 18 CRCA 2005; the statutory exceptions are to be construed narrowly.",
		Outcome:       "Appeal allowed; disclosure unlawful",
		KeyPrinciples: []string{"taxpayer confidentiality", "narrow construction of s 18(2) CRCA 2005 gateways"},
		SourceURL:     "https://www.bailii.org/uk/cases/UKSC/2016/54.html",
	},
	{
		CaseReference: "[2012] UKFTT 333 (TC)",
		CaseName:      "Hok Ltd v HMRC",
		Court:         "Upper Tribunal (Tax and Chancery)",
		Year:          2012,
		Summary:       "The Upper Tribunal held that the First-tier Tribunal has no judicial-review jurisdiction and cannot discharge penalties on fairness grounds alone; challenges to HMRC's conduct in delaying penalty notices must proceed by complaint or judicial review.",
		Outcome:       "HMRC appeal allowed",
		KeyPrinciples: []string{"no general fairness jurisdiction in the FTT", "delay complaints sit outside penalty appeals"},
		SourceURL:     "https://www.bailii.org/uk/cases/UKUT/TCC/2012/363.html",
	},
}

// SeedPrecedents returns the built-in precedent registry.
func SeedPrecedents() []CasePrecedent {
	out := make([]CasePrecedent, len(seedPrecedents))
	copy(out, seedPrecedents)
	return out
}
