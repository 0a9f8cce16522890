package domain

// InvoiceDetails is the type-specific payload extracted from invoice-like
// documents.
type InvoiceDetails struct {
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	Date          string     `json:"date,omitempty"`
	TotalAmount   *float64   `json:"total_amount,omitempty"`
	Currency      string     `json:"currency,omitempty"`
	LineItems     []LineItem `json:"line_items,omitempty"`
	HighValue     bool       `json:"high_value"`
}

// PolicyDetails is the type-specific payload extracted from policy documents.
type PolicyDetails struct {
	PolicyNumber   string   `json:"policy_number,omitempty"`
	EffectiveDate  string   `json:"effective_date,omitempty"`
	Issuer         string   `json:"issuer,omitempty"`
	SectionHeaders []string `json:"section_headers,omitempty"`
}

// DocumentRecord is the normalized output for binary documents. At most one of
// Invoice/Policy is set, depending on DocumentType; both are nil for types
// without secondary extraction.
type DocumentRecord struct {
	DocumentType       string            `json:"document_type"`
	KeyValues          map[string]string `json:"key_values,omitempty"`
	HasTabularContent  bool              `json:"has_tabular_content"`
	RegulatoryMentions []string          `json:"regulatory_mentions,omitempty"`
	Invoice            *InvoiceDetails   `json:"invoice,omitempty"`
	Policy             *PolicyDetails    `json:"policy,omitempty"`
	TextLength         int               `json:"text_length"`
	Excerpt            string            `json:"excerpt,omitempty"`

	// Error is set when text extraction failed; the record is still a valid
	// result, not an exception.
	Error string `json:"error,omitempty"`
}
