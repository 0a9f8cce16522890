package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/flowbit/intake-triage/internal/core/domain"
	"github.com/flowbit/intake-triage/internal/core/ports"
)

const highValueDefault = 10_000

var (
	keyValueColon  = regexp.MustCompile(`(?m)^\s*([A-Za-z][A-Za-z0-9 _/-]{0,40}?)\s*:\s*(\S.*)$`)
	keyValueEquals = regexp.MustCompile(`(?m)^\s*([A-Za-z][A-Za-z0-9 _/-]{0,40}?)\s*=\s*(\S.*)$`)

	invoiceNumberPattern = regexp.MustCompile(`(?i)invoice\s*(?:number|no\.?|#)?\s*[:#]?\s*((?-i:[A-Z0-9][A-Z0-9-]+))`)
	amountPattern        = regexp.MustCompile(`(?i)(?:total|amount\s+due|grand\s+total)\s*[:=]?\s*(?:USD|EUR|GBP|\$|€|£)?\s*([\d,]+(?:\.\d{1,2})?)`)
	currencyPattern      = regexp.MustCompile(`\b(USD|EUR|GBP|JPY|CAD|AUD)\b`)
	datePattern          = regexp.MustCompile(`(?i)(?:date|dated|issued)\s*[:=]?\s*(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4}|[A-Z][a-z]+ \d{1,2}, \d{4})`)

	lineItemQtyFirst  = regexp.MustCompile(`(?m)^\s*(\d+)\s*x\s+([A-Za-z0-9][A-Za-z0-9 _-]*)`)
	lineItemSKUQty    = regexp.MustCompile(`(?m)^\s*([A-Z0-9][A-Z0-9-]{2,})\s+qty\s*[:=]?\s*(\d+)`)
	lineItemTabular   = regexp.MustCompile(`(?m)^\s*([A-Za-z0-9-]+)\s*\|\s*(\d+)\s*\|`)
	policyNumber      = regexp.MustCompile(`(?i)policy\s*(?:number|no\.?|#)?\s*[:#]?\s*((?-i:[A-Z0-9][A-Z0-9-]+))`)
	effectiveDate     = regexp.MustCompile(`(?i)effective\s*(?:date)?\s*[:=]?\s*(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4}|[A-Z][a-z]+ \d{1,2}, \d{4})`)
	issuerPattern     = regexp.MustCompile(`(?i)(?:issued\s+by|issuer)\s*[:=]?\s*(.+)`)
	sectionHeader     = regexp.MustCompile(`(?m)^\s*(?:(?:Section|Article)\s+[\dIVX]+[.:]?\s*.*|\d+\.\d*\s+[A-Z].*)$`)
	tableRowIndicator = regexp.MustCompile(`(?m)^.*\|.*\|.*$`)
)

// DocumentExtractor turns binary documents into DocumentRecord. Extraction
// failures are reported inside the record, never as an error return.
type DocumentExtractor struct {
	text      ports.DocumentText
	typeWords map[string][]string
	typeOrder []string

	regulatoryTerms []string
	highValueLimit  float64
	excerptLimit    int
}

// WithHighValueLimit overrides the invoice amount above which a document is
// marked high value. Non-positive limits keep the default.
func (e *DocumentExtractor) WithHighValueLimit(limit float64) *DocumentExtractor {
	if limit > 0 {
		e.highValueLimit = limit
	}
	return e
}

func NewDocumentExtractor(text ports.DocumentText) *DocumentExtractor {
	return &DocumentExtractor{
		text: text,
		typeWords: map[string][]string{
			"invoice":  {"invoice", "amount due", "bill to", "remit", "payment terms"},
			"contract": {"agreement", "contract", "hereinafter", "party of the first part", "terms and conditions"},
			"report":   {"report", "executive summary", "findings", "analysis", "conclusion"},
			"policy":   {"policy", "coverage", "insured", "premium", "effective date"},
			"letter":   {"dear", "sincerely", "regards", "yours truly"},
			"resume":   {"resume", "curriculum vitae", "work experience", "education", "skills"},
		},
		typeOrder: []string{"invoice", "contract", "report", "policy", "letter", "resume"},
		regulatoryTerms: []string{
			"GDPR", "HIPAA", "SOX", "PCI-DSS", "CCPA", "FDA", "SEC", "OSHA", "anti-money laundering", "KYC",
		},
		highValueLimit: highValueDefault,
		excerptLimit:   500,
	}
}

func (e *DocumentExtractor) Extract(ctx context.Context, blob []byte) *domain.DocumentRecord {
	text, err := e.text.ExtractText(ctx, blob)
	if err != nil {
		return &domain.DocumentRecord{DocumentType: "unknown", Error: err.Error()}
	}

	record := &domain.DocumentRecord{
		DocumentType:       e.documentType(text),
		KeyValues:          e.keyValues(text),
		HasTabularContent:  tableRowIndicator.MatchString(text),
		RegulatoryMentions: e.regulatoryMentions(text),
		TextLength:         len(text),
		Excerpt:            excerpt(text, e.excerptLimit),
	}

	switch record.DocumentType {
	case "invoice":
		record.Invoice = e.invoiceDetails(text)
	case "policy":
		record.Policy = e.policyDetails(text)
	}
	return record
}

func (e *DocumentExtractor) documentType(text string) string {
	lower := strings.ToLower(text)
	best, bestScore := "unknown", 0
	for _, docType := range e.typeOrder {
		score := 0
		for _, word := range e.typeWords[docType] {
			if strings.Contains(lower, word) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = docType, score
		}
	}
	return best
}

func (e *DocumentExtractor) keyValues(text string) map[string]string {
	out := make(map[string]string)
	for _, pattern := range []*regexp.Regexp{keyValueColon, keyValueEquals} {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			key := strings.TrimSpace(m[1])
			if _, taken := out[key]; !taken {
				out[key] = strings.TrimSpace(m[2])
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (e *DocumentExtractor) regulatoryMentions(text string) []string {
	lower := strings.ToLower(text)
	var mentions []string
	for _, term := range e.regulatoryTerms {
		if strings.Contains(lower, strings.ToLower(term)) {
			mentions = append(mentions, term)
		}
	}
	return mentions
}

func (e *DocumentExtractor) invoiceDetails(text string) *domain.InvoiceDetails {
	details := &domain.InvoiceDetails{}
	if m := invoiceNumberPattern.FindStringSubmatch(text); m != nil {
		details.InvoiceNumber = m[1]
	}
	if m := datePattern.FindStringSubmatch(text); m != nil {
		details.Date = m[1]
	}
	if m := amountPattern.FindStringSubmatch(text); m != nil {
		cleaned := strings.ReplaceAll(m[1], ",", "")
		if amount, err := strconv.ParseFloat(cleaned, 64); err == nil {
			details.TotalAmount = &amount
			details.HighValue = amount > e.highValueLimit
		}
	}
	if m := currencyPattern.FindStringSubmatch(text); m != nil {
		details.Currency = m[1]
	}
	details.LineItems = e.invoiceLineItems(text)
	return details
}

// invoiceLineItems tries three common layouts in order; the first layout that
// matches anything wins.
func (e *DocumentExtractor) invoiceLineItems(text string) []domain.LineItem {
	var items []domain.LineItem
	for _, m := range lineItemQtyFirst.FindAllStringSubmatch(text, -1) {
		qty, _ := strconv.Atoi(m[1])
		items = append(items, domain.LineItem{SKU: strings.TrimSpace(m[2]), Quantity: qty})
	}
	if len(items) > 0 {
		return items
	}
	for _, m := range lineItemSKUQty.FindAllStringSubmatch(text, -1) {
		qty, _ := strconv.Atoi(m[2])
		items = append(items, domain.LineItem{SKU: m[1], Quantity: qty})
	}
	if len(items) > 0 {
		return items
	}
	for _, m := range lineItemTabular.FindAllStringSubmatch(text, -1) {
		qty, _ := strconv.Atoi(m[2])
		items = append(items, domain.LineItem{SKU: m[1], Quantity: qty})
	}
	return items
}

func (e *DocumentExtractor) policyDetails(text string) *domain.PolicyDetails {
	details := &domain.PolicyDetails{}
	if m := policyNumber.FindStringSubmatch(text); m != nil {
		details.PolicyNumber = m[1]
	}
	if m := effectiveDate.FindStringSubmatch(text); m != nil {
		details.EffectiveDate = m[1]
	}
	if m := issuerPattern.FindStringSubmatch(text); m != nil {
		details.Issuer = strings.TrimSpace(m[1])
	}
	for _, m := range sectionHeader.FindAllString(text, -1) {
		details.SectionHeaders = append(details.SectionHeaders, strings.TrimSpace(m))
	}
	return details
}
