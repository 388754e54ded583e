package sanitize

import "regexp"

// Rule is one ordered regex substitution. Rules are applied strictly in
// slice order: the more specific patterns sit first so a general pattern
// cannot consume text a later rule needs (a 10-digit UTR would otherwise
// be eaten by the phone rule, and vice versa).
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// piiRules is the fixed first-pass rule set. Replacement placeholders are
// chosen so no rule can match the output of another: re-sanitizing already
// sanitized text is a no-op.
var piiRules = []Rule{
	{
		Name:        "NI Number",
		Pattern:     regexp.MustCompile(`\b[A-CEGHJ-PR-TW-Z]{2}\s?\d{2}\s?\d{2}\s?\d{2}\s?[A-D]\b`),
		Replacement: "[NI NUMBER]",
	},
	{
		// 10-digit UTR, optionally grouped 5+5. Guarded against matching
		// inside longer digit runs such as 11-digit phone numbers.
		Name:        "Tax Reference",
		Pattern:     regexp.MustCompile(`(^|[^0-9])(\d{5}\s?\d{5})([^0-9]|$)`),
		Replacement: "${1}[TAX REFERENCE]${3}",
	},
	{
		Name:        "Postcode",
		Pattern:     regexp.MustCompile(`\b[A-Z]{1,2}\d[A-Z\d]?\s?\d[A-Z]{2}\b`),
		Replacement: "[POSTCODE]",
	},
	{
		Name:        "Email",
		Pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
		Replacement: "[EMAIL]",
	},
	{
		Name:        "Mobile",
		Pattern:     regexp.MustCompile(`\b(?:\+44\s?7\d{3}|07\d{3})\s?\d{3}\s?\d{3}\b`),
		Replacement: "[PHONE]",
	},
	{
		Name:        "Phone",
		Pattern:     regexp.MustCompile(`\b(?:\+44\s?\d{3,4}|\(?0\d{3,4}\)?)[\s\-]?\d{3,4}[\s\-]?\d{3,4}\b`),
		Replacement: "[PHONE]",
	},
	{
		// Bank accounts are bare 8-digit numbers, so require a nearby
		// account keyword to avoid redacting arbitrary figures.
		Name:        "Bank Account",
		Pattern:     regexp.MustCompile(`(?i)\b(account\s*(?:no\.?|number|#)?\s*[:\-]?\s*)(\d{8})\b`),
		Replacement: "${1}[ACCOUNT NUMBER]",
	},
	{
		Name:        "Sort Code",
		Pattern:     regexp.MustCompile(`\b\d{2}[\-\s]\d{2}[\-\s]\d{2}\b`),
		Replacement: "[SORT CODE]",
	},
	{
		Name:        "Address",
		Pattern:     regexp.MustCompile(`\b\d{1,4}\s+(?:[A-Z][a-z]+\s+){1,3}(?:Street|Road|Lane|Avenue|Close|Drive|Way|Grove|Court|Place|Gardens|Crescent|Terrace|Hill|Row)\b`),
		Replacement: "[ADDRESS]",
	},
	{
		Name:        "Company Number",
		Pattern:     regexp.MustCompile(`(?i)\b(company\s+(?:registration\s+)?(?:no\.?|number)\s*[:\-]?\s*)(\d{7,8})\b`),
		Replacement: "${1}[COMPANY NUMBER]",
	},
	{
		// Employer PAYE references (123/AB456) and HMRC charge
		// references (XA followed by 12 digits).
		Name:        "HMRC Reference",
		Pattern:     regexp.MustCompile(`\b(?:\d{3}/[A-Z]{1,2}\d{1,8}|X[A-Z]\d{12,13})\b`),
		Replacement: "[HMRC REFERENCE]",
	},
	{
		Name:        "Date of Birth",
		Pattern:     regexp.MustCompile(`(?i)\b(?:date\s+of\s+birth|d\.?o\.?b\.?)\s*[:\-]?\s*\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\b`),
		Replacement: "[DATE OF BIRTH]",
	},
}

// nameRules is the optional second pass. The line-start pattern catches
// salutations and bare "First Last" signature lines.
var nameRules = []Rule{
	{
		Name:        "Name",
		Pattern:     regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Miss|Dr|Prof)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\b`),
		Replacement: "[NAME]",
	},
	{
		Name:        "Name",
		Pattern:     regexp.MustCompile(`(?m)^(Dear\s+)[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`),
		Replacement: "${1}[NAME]",
	},
	{
		Name:        "Name",
		Pattern:     regexp.MustCompile(`(?m)^[A-Z][a-z]+\s+[A-Z][a-z]+$`),
		Replacement: "[NAME]",
	},
}

// clientRefRules is the optional third pass: the label is kept, the value
// replaced.
var clientRefRules = []Rule{
	{
		Name:        "Client Reference",
		Pattern:     regexp.MustCompile(`(?i)\b((?:client|your|our)\s+ref(?:erence)?\s*[:\-]\s*)[A-Za-z0-9][A-Za-z0-9/\-]*`),
		Replacement: "${1}[REFERENCE]",
	},
}
