package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_NoPII(t *testing.T) {
	text := "Thank you for your letter regarding the compliance check."

	res := Sanitize(text, Options{})

	assert.Equal(t, text, res.Sanitized)
	assert.Equal(t, 0, res.RedactionCount)
	assert.Empty(t, res.RedactedTypes)
}

func TestSanitize_IndividualPatterns(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		wantType string
	}{
		{
			name:     "ni number",
			input:    "My NI number is AB 12 34 56 C for reference.",
			want:     "My NI number is [NI NUMBER] for reference.",
			wantType: "NI Number",
		},
		{
			name:     "utr",
			input:    "Your UTR is 1234567890 as registered.",
			want:     "Your UTR is [TAX REFERENCE] as registered.",
			wantType: "Tax Reference",
		},
		{
			name:     "postcode",
			input:    "Write to us at SW1A 1AA promptly.",
			want:     "Write to us at [POSTCODE] promptly.",
			wantType: "Postcode",
		},
		{
			name:     "email",
			input:    "Contact john.smith@example.co.uk for details.",
			want:     "Contact [EMAIL] for details.",
			wantType: "Email",
		},
		{
			name:     "mobile",
			input:    "Call me on 07700 900123 after five.",
			want:     "Call me on [PHONE] after five.",
			wantType: "Mobile",
		},
		{
			name:     "landline",
			input:    "The office number is 01632 960001 during opening hours.",
			want:     "The office number is [PHONE] during opening hours.",
			wantType: "Phone",
		},
		{
			name:     "bank account with context",
			input:    "Refund to account number: 12345678 please.",
			want:     "Refund to account number: [ACCOUNT NUMBER] please.",
			wantType: "Bank Account",
		},
		{
			name:     "sort code",
			input:    "Sort code 12-34-56 applies.",
			want:     "Sort code [SORT CODE] applies.",
			wantType: "Sort Code",
		},
		{
			name:     "street address",
			input:    "I live at 14 High Street in town.",
			want:     "I live at [ADDRESS] in town.",
			wantType: "Address",
		},
		{
			name:     "company number",
			input:    "Registered under company number: 01234567 in England.",
			want:     "Registered under company number: [COMPANY NUMBER] in England.",
			wantType: "Company Number",
		},
		{
			name:     "paye reference",
			input:    "The employer reference 123/AB456 is on file.",
			want:     "The employer reference [HMRC REFERENCE] is on file.",
			wantType: "HMRC Reference",
		},
		{
			name:     "date of birth",
			input:    "Date of birth: 12/05/1980 confirmed.",
			want:     "[DATE OF BIRTH] confirmed.",
			wantType: "Date of Birth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Sanitize(tt.input, Options{})
			assert.Equal(t, tt.want, res.Sanitized)
			assert.Equal(t, 1, res.RedactionCount)
			assert.Equal(t, []string{tt.wantType}, res.RedactedTypes)
		})
	}
}

func TestSanitize_CountAndTypes(t *testing.T) {
	text := "Email john@example.com, postcode M1 4BT."

	res := Sanitize(text, Options{})

	assert.Equal(t, 2, res.RedactionCount)
	assert.ElementsMatch(t, []string{"Email", "Postcode"}, res.RedactedTypes)
}

func TestSanitize_TypesAreDeduplicated(t *testing.T) {
	text := "Mail a@b.com and c@d.com and e@f.com."

	res := Sanitize(text, Options{})

	assert.Equal(t, 3, res.RedactionCount)
	assert.Equal(t, []string{"Email"}, res.RedactedTypes)
}

func TestSanitize_Idempotent(t *testing.T) {
	text := "AB 12 34 56 C, UTR 1234567890, a@b.com, SW1A 1AA, 07700 900123, " +
		"sort code 12-34-56, account number: 12345678, 14 High Street, " +
		"123/AB456, date of birth: 01/02/1990."
	opts := Options{RedactNames: true, RedactClientRefs: true}

	first := Sanitize(text, opts)
	second := Sanitize(first.Sanitized, opts)

	assert.Equal(t, first.Sanitized, second.Sanitized)
	assert.Equal(t, 0, second.RedactionCount)
	assert.Empty(t, second.RedactedTypes)
}

func TestSanitize_UTRNotEatenByPhoneRule(t *testing.T) {
	res := Sanitize("UTR 1234567890 and phone 01632 960001.", Options{})

	assert.Contains(t, res.Sanitized, "[TAX REFERENCE]")
	assert.Contains(t, res.Sanitized, "[PHONE]")
	assert.Equal(t, 2, res.RedactionCount)
}

func TestSanitize_PhoneNotSplitIntoUTR(t *testing.T) {
	// An 11-digit phone number must not have its first ten digits taken
	// by the tax reference rule.
	res := Sanitize("Call 01632960001 now.", Options{})

	assert.NotContains(t, res.Sanitized, "[TAX REFERENCE]")
	assert.Contains(t, res.Sanitized, "[PHONE]")
}

func TestSanitize_AdjacentUTRsBothRedacted(t *testing.T) {
	// The delimiter between the two references is consumed by the first
	// match; the second must still be caught on the rescan.
	res := Sanitize("References 12345 67890,09876 54321 apply.", Options{})

	assert.NotContains(t, res.Sanitized, "09876")
	assert.NotContains(t, res.Sanitized, "12345")
	assert.Equal(t, "References [TAX REFERENCE],[TAX REFERENCE] apply.", res.Sanitized)
	assert.Equal(t, 2, res.RedactionCount)
}

func TestSanitize_BankAccountRequiresContext(t *testing.T) {
	res := Sanitize("The assessment came to 12345678 pence.", Options{})

	assert.NotContains(t, res.Sanitized, "[ACCOUNT NUMBER]")
}

func TestSanitize_Names(t *testing.T) {
	text := "Dear Mr John Smith,\nplease respond soon.\nJane Doe"

	withoutNames := Sanitize(text, Options{})
	assert.Equal(t, text, withoutNames.Sanitized)

	withNames := Sanitize(text, Options{RedactNames: true})
	assert.NotContains(t, withNames.Sanitized, "John Smith")
	assert.NotContains(t, withNames.Sanitized, "Jane Doe")
	assert.Contains(t, withNames.Sanitized, "[NAME]")
}

func TestSanitize_ClientRefs(t *testing.T) {
	text := "Our reference: LP-2024/0042\nYour reference: AB123"

	withoutRefs := Sanitize(text, Options{})
	assert.Equal(t, text, withoutRefs.Sanitized)

	withRefs := Sanitize(text, Options{RedactClientRefs: true})
	assert.Contains(t, withRefs.Sanitized, "Our reference: [REFERENCE]")
	assert.Contains(t, withRefs.Sanitized, "Your reference: [REFERENCE]")
	assert.Equal(t, 2, withRefs.RedactionCount)
}

func TestSanitize_PreserveStructureBanner(t *testing.T) {
	res := Sanitize("Email a@b.com please.", Options{PreserveStructure: true})

	require.True(t, strings.HasPrefix(res.Sanitized, "[1 redaction(s) applied]\n\n"))
	assert.Contains(t, res.Sanitized, "[EMAIL]")
}

func TestContainsPII(t *testing.T) {
	assert.True(t, ContainsPII("My email is a@b.com"))
	assert.True(t, ContainsPII("NI AB 12 34 56 C"))
	assert.False(t, ContainsPII("Nothing sensitive here."))
	assert.False(t, ContainsPII(""))
}

func TestRuleOrder(t *testing.T) {
	// Rule order is load-bearing: specific patterns must run before the
	// general ones that could consume the same digits.
	names := make([]string, len(piiRules))
	for i, r := range piiRules {
		names[i] = r.Name
	}

	assert.Equal(t, []string{
		"NI Number",
		"Tax Reference",
		"Postcode",
		"Email",
		"Mobile",
		"Phone",
		"Bank Account",
		"Sort Code",
		"Address",
		"Company Number",
		"HMRC Reference",
		"Date of Birth",
	}, names)
}
