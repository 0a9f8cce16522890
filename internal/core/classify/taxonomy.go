package classify

import "github.com/flowbit/intake-triage/internal/core/domain"

// Taxonomy is the immutable keyword/field configuration the classifier scores
// against. It is injected at construction so tests can substitute smaller
// vocabularies without shared state.
type Taxonomy struct {
	// IntentKeywords score +1 per containment hit in the input's textual form
	// (+2 for FraudRisk, where a lexical hit is stronger evidence of abuse).
	IntentKeywords map[domain.IntentKind][]string

	// IntentFields score +2 per field name present in the flattened key set of
	// a structured record; a structural match outweighs a lexical one.
	IntentFields map[domain.IntentKind][]string

	// RiskScoreThreshold is the numeric cutoff for "risk"-named fields that
	// adds fraud evidence.
	RiskScoreThreshold float64

	// SuspicionFieldMarkers are substrings of boolean-like field names that
	// add fraud evidence when truthy.
	SuspicionFieldMarkers []string
}

// DefaultTaxonomy returns the production vocabulary.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		IntentKeywords: map[domain.IntentKind][]string{
			domain.IntentInvoice:    {"invoice", "bill", "payment", "receipt", "amount due"},
			domain.IntentRFQ:        {"rfq", "quote", "quotation", "pricing", "proposal", "request for quote"},
			domain.IntentComplaint:  {"complaint", "issue", "problem", "dissatisfied", "unhappy", "unacceptable"},
			domain.IntentRegulation: {"regulation", "compliance", "legal", "requirement", "policy", "regulatory"},
			domain.IntentFraudRisk:  {"fraud", "suspicious", "laundering", "chargeback", "stolen"},
		},
		IntentFields: map[domain.IntentKind][]string{
			domain.IntentInvoice:    {"invoice_number", "total_amount", "amount_due", "bill_to", "due_date"},
			domain.IntentRFQ:        {"rfq_id", "quote_id", "requested_items", "deadline"},
			domain.IntentComplaint:  {"complaint_id", "issue_description", "ticket_id"},
			domain.IntentRegulation: {"regulation_id", "compliance_status", "policy_number"},
			domain.IntentFraudRisk:  {"risk_score", "fraud_flag", "chargeback_count"},
		},
		RiskScoreThreshold:    0.7,
		SuspicionFieldMarkers: []string{"suspicious", "fraud", "anomaly"},
	}
}
