// Package sanitize strips personally identifiable information from
// free-text letter drafts before they reach human review.
//
// The engine is a pure function over an ordered rule list: no I/O, never
// fails. Input with no PII comes back untouched with a zero count.
package sanitize

import "fmt"

// Options controls the optional redaction passes.
type Options struct {
	// RedactNames enables the honorific/name second pass.
	RedactNames bool
	// RedactClientRefs enables the client-reference third pass.
	RedactClientRefs bool
	// PreserveStructure prepends a one-line banner reporting the total
	// redaction count.
	PreserveStructure bool
}

// Result is the outcome of one Sanitize call.
type Result struct {
	Sanitized string
	// RedactionCount is the total number of substitutions made, one per
	// match (not per rule).
	RedactionCount int
	// RedactedTypes lists the distinct rule names that matched, in rule
	// order.
	RedactedTypes []string
}

// Sanitize applies the PII rules, then the optional name and
// client-reference passes, to text.
func Sanitize(text string, opts Options) Result {
	res := Result{Sanitized: text}

	res.applyRules(piiRules)
	if opts.RedactNames {
		res.applyRules(nameRules)
	}
	if opts.RedactClientRefs {
		res.applyRules(clientRefRules)
	}

	if opts.PreserveStructure {
		res.Sanitized = fmt.Sprintf("[%d redaction(s) applied]\n\n%s", res.RedactionCount, res.Sanitized)
	}

	return res
}

func (r *Result) applyRules(rules []Rule) {
	for _, rule := range rules {
		// Delimiter-guarded patterns consume their boundary character, so
		// two adjacent matches separated by a single delimiter need a
		// rescan. Rules never match placeholder output, so this
		// terminates.
		for {
			matches := len(rule.Pattern.FindAllStringIndex(r.Sanitized, -1))
			if matches == 0 {
				break
			}
			r.Sanitized = rule.Pattern.ReplaceAllString(r.Sanitized, rule.Replacement)
			r.RedactionCount += matches
			r.addType(rule.Name)
		}
	}
}

func (r *Result) addType(name string) {
	for _, t := range r.RedactedTypes {
		if t == name {
			return
		}
	}
	r.RedactedTypes = append(r.RedactedTypes, name)
}

// ContainsPII reports whether any first-pass PII pattern matches,
// short-circuiting on the first hit. Cheap pre-check before a full
// Sanitize.
func ContainsPII(text string) bool {
	for _, rule := range piiRules {
		if rule.Pattern.MatchString(text) {
			return true
		}
	}
	return false
}
