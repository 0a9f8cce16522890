package usecase

import (
	"fmt"
	"strings"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

// Summarize renders a one-paragraph human-readable digest of a triage result.
func Summarize(envelope *domain.ResultEnvelope) string {
	if envelope.Error != "" {
		return fmt.Sprintf("Input could not be processed (%s).", envelope.Error)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s input classified as %s.", envelope.Format, envelope.Intent)

	switch {
	case envelope.ProcessedData.Record != nil:
		record := envelope.ProcessedData.Record
		if record.RecordID != nil {
			fmt.Fprintf(&b, " Record %s", *record.RecordID)
			if record.Party != nil {
				fmt.Fprintf(&b, " from %s", *record.Party)
			}
			if record.TotalAmount != nil && record.Currency != nil {
				fmt.Fprintf(&b, " totaling %.2f %s", *record.TotalAmount, *record.Currency)
			}
			b.WriteString(".")
		}
		if n := len(envelope.ProcessedData.Anomalies); n > 0 {
			fmt.Fprintf(&b, " %d anomal%s detected.", n, pluralY(n))
		}
	case envelope.ProcessedData.Correspondence != nil:
		c := envelope.ProcessedData.Correspondence
		fmt.Fprintf(&b, " Message from %s <%s>", c.SenderName, c.SenderAddress)
		if c.Subject != "" {
			fmt.Fprintf(&b, " regarding %q", c.Subject)
		}
		fmt.Fprintf(&b, ", urgency %s, tone %s.", c.Urgency, c.Tone)
	case envelope.ProcessedData.Document != nil:
		d := envelope.ProcessedData.Document
		fmt.Fprintf(&b, " Document type %s, %d characters of text.", d.DocumentType, d.TextLength)
		if d.Invoice != nil && d.Invoice.TotalAmount != nil {
			fmt.Fprintf(&b, " Invoice total %.2f", *d.Invoice.TotalAmount)
			if d.Invoice.HighValue {
				b.WriteString(" (high value)")
			}
			b.WriteString(".")
		}
		if len(d.RegulatoryMentions) > 0 {
			fmt.Fprintf(&b, " Regulatory mentions: %s.", strings.Join(d.RegulatoryMentions, ", "))
		}
	}

	if len(envelope.Actions) > 0 {
		fmt.Fprintf(&b, " %d action chain%s triggered.", len(envelope.Actions), pluralS(len(envelope.Actions)))
	}
	if len(envelope.Alerts) > 0 {
		fmt.Fprintf(&b, " %d alert%s raised.", len(envelope.Alerts), pluralS(len(envelope.Alerts)))
	}
	return b.String()
}

func pluralS(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
