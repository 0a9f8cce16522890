package extract

import (
	"context"
	"errors"
	"testing"
)

type staticText struct {
	text string
	err  error
}

func (s staticText) ExtractText(ctx context.Context, blob []byte) (string, error) {
	return s.text, s.err
}

func TestDocumentExtractorInvoice(t *testing.T) {
	text := "INVOICE\nInvoice Number: INV-2026-001\nDate: 2026-02-01\nBill To: Acme Corp\n2 x Widget\n5 x Gadget\nTotal: USD 12,500.00\nPayment terms: net 30\n"
	e := NewDocumentExtractor(staticText{text: text})
	record := e.Extract(context.Background(), []byte("%PDF-1.7"))

	if record.DocumentType != "invoice" {
		t.Fatalf("document_type = %q", record.DocumentType)
	}
	if record.Invoice == nil {
		t.Fatal("invoice details missing")
	}
	if record.Invoice.InvoiceNumber != "INV-2026-001" {
		t.Fatalf("invoice_number = %q", record.Invoice.InvoiceNumber)
	}
	if record.Invoice.TotalAmount == nil || *record.Invoice.TotalAmount != 12500.00 {
		t.Fatalf("total_amount = %v", record.Invoice.TotalAmount)
	}
	if !record.Invoice.HighValue {
		t.Fatal("high_value = false, want true")
	}
	if record.Invoice.Currency != "USD" {
		t.Fatalf("currency = %q", record.Invoice.Currency)
	}
	if len(record.Invoice.LineItems) != 2 || record.Invoice.LineItems[0].Quantity != 2 {
		t.Fatalf("line_items = %+v", record.Invoice.LineItems)
	}
	if record.KeyValues["Date"] != "2026-02-01" {
		t.Fatalf("key_values = %v", record.KeyValues)
	}
}

func TestDocumentExtractorPolicy(t *testing.T) {
	text := "Data Protection Policy\nPolicy Number: POL-88\nEffective Date: 2026-01-01\nIssued by: Compliance Office\nSection 1: Scope\nSection 2: GDPR obligations\nCoverage of insured parties and premium schedules.\n"
	e := NewDocumentExtractor(staticText{text: text})
	record := e.Extract(context.Background(), []byte("%PDF-1.7"))

	if record.DocumentType != "policy" {
		t.Fatalf("document_type = %q", record.DocumentType)
	}
	if record.Policy == nil {
		t.Fatal("policy details missing")
	}
	if record.Policy.PolicyNumber != "POL-88" {
		t.Fatalf("policy_number = %q", record.Policy.PolicyNumber)
	}
	if record.Policy.EffectiveDate != "2026-01-01" {
		t.Fatalf("effective_date = %q", record.Policy.EffectiveDate)
	}
	if len(record.Policy.SectionHeaders) != 2 {
		t.Fatalf("section_headers = %v", record.Policy.SectionHeaders)
	}
	if len(record.RegulatoryMentions) != 1 || record.RegulatoryMentions[0] != "GDPR" {
		t.Fatalf("regulatory_mentions = %v", record.RegulatoryMentions)
	}
}

func TestDocumentExtractorTabularContent(t *testing.T) {
	text := "Quarterly Report\nExecutive Summary\nFindings below.\nSKU-1 | 4 | 19.99\nSKU-2 | 1 | 5.00\n"
	e := NewDocumentExtractor(staticText{text: text})
	record := e.Extract(context.Background(), nil)

	if record.DocumentType != "report" {
		t.Fatalf("document_type = %q", record.DocumentType)
	}
	if !record.HasTabularContent {
		t.Fatal("has_tabular_content = false")
	}
}

func TestDocumentExtractorFailureKeptInRecord(t *testing.T) {
	e := NewDocumentExtractor(staticText{err: errors.New("corrupt stream")})
	record := e.Extract(context.Background(), []byte("%PDF"))

	if record == nil {
		t.Fatal("record is nil")
	}
	if record.Error != "corrupt stream" {
		t.Fatalf("error = %q", record.Error)
	}
	if record.DocumentType != "unknown" {
		t.Fatalf("document_type = %q", record.DocumentType)
	}
}
