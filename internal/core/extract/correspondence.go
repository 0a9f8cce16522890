package extract

import (
	"regexp"
	"strings"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

var (
	fromAddrPattern = regexp.MustCompile(`(?m)^From:\s*(?:"?([^"<\r\n]*)"?\s*)?<([^>\r\n]+)>`)
	fromBarePattern = regexp.MustCompile(`(?m)^From:\s*([^\s<\r\n]+@[^\s>\r\n]+)`)
	subjectPattern  = regexp.MustCompile(`(?m)^Subject:\s*(.+)$`)
)

// CorrespondenceExtractor derives sender, urgency, tone and issue type from
// free-text correspondence. Every input yields a record; absent headers fall
// back to placeholder identities.
type CorrespondenceExtractor struct {
	highUrgency   []string
	mediumUrgency []string
	toneKeywords  map[domain.Tone][]string
	tonePriority  []domain.Tone
	issueKeywords map[string][]string
	issueOrder    []string
	excerptLimit  int
}

func NewCorrespondenceExtractor() *CorrespondenceExtractor {
	return &CorrespondenceExtractor{
		highUrgency:   []string{"urgent", "asap", "immediately", "emergency", "critical", "important"},
		mediumUrgency: []string{"soon", "timely", "promptly", "attention", "priority"},
		toneKeywords: map[domain.Tone][]string{
			domain.ToneThreatening: {"legal action", "lawsuit", "sue", "attorney", "unacceptable", "demand", "or else"},
			domain.ToneEscalation:  {"escalate", "manager", "supervisor", "complaint", "disappointed", "frustrated"},
			domain.TonePolite:      {"please", "thank you", "kindly", "appreciate", "grateful"},
		},
		tonePriority: []domain.Tone{domain.ToneThreatening, domain.ToneEscalation, domain.TonePolite},
		issueKeywords: map[string][]string{
			"complaint":          {"complaint", "refund", "broken", "defective", "unacceptable", "wrong item", "damaged"},
			"billing":            {"invoice", "bill", "charge", "payment", "overcharged"},
			"quote_request":      {"quote", "quotation", "pricing", "rfq", "estimate"},
			"compliance_inquiry": {"compliance", "regulation", "gdpr", "policy", "audit"},
		},
		issueOrder:   []string{"complaint", "billing", "quote_request", "compliance_inquiry"},
		excerptLimit: 300,
	}
}

func (e *CorrespondenceExtractor) Extract(text string) *domain.CorrespondenceRecord {
	name, address := e.sender(text)
	lower := strings.ToLower(text)
	return &domain.CorrespondenceRecord{
		SenderName:    name,
		SenderAddress: address,
		Subject:       e.subject(text),
		Urgency:       e.urgency(lower),
		Tone:          e.tone(lower),
		IssueType:     e.issueType(lower),
		BodyExcerpt:   excerpt(text, e.excerptLimit),
	}
}

func (e *CorrespondenceExtractor) sender(text string) (string, string) {
	if m := fromAddrPattern.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(m[1])
		address := strings.TrimSpace(m[2])
		if name == "" {
			name = localPart(address)
		}
		return name, address
	}
	if m := fromBarePattern.FindStringSubmatch(text); m != nil {
		address := strings.TrimSpace(m[1])
		return localPart(address), address
	}
	return "Unknown", "unknown@example.com"
}

func (e *CorrespondenceExtractor) subject(text string) string {
	if m := subjectPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func (e *CorrespondenceExtractor) urgency(lower string) domain.Urgency {
	for _, keyword := range e.highUrgency {
		if strings.Contains(lower, keyword) {
			return domain.UrgencyHigh
		}
	}
	for _, keyword := range e.mediumUrgency {
		if strings.Contains(lower, keyword) {
			return domain.UrgencyMedium
		}
	}
	return domain.UrgencyLow
}

func (e *CorrespondenceExtractor) tone(lower string) domain.Tone {
	best, bestHits := domain.ToneNeutral, 0
	// Priority order doubles as the tie-break: a threatening hit count equal
	// to a polite one reads as threatening.
	for _, tone := range e.tonePriority {
		hits := 0
		for _, keyword := range e.toneKeywords[tone] {
			if strings.Contains(lower, keyword) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = tone, hits
		}
	}
	return best
}

func (e *CorrespondenceExtractor) issueType(lower string) string {
	best, bestHits := "general_inquiry", 0
	for _, issue := range e.issueOrder {
		hits := 0
		for _, keyword := range e.issueKeywords[issue] {
			if strings.Contains(lower, keyword) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = issue, hits
		}
	}
	return best
}

func localPart(address string) string {
	if at := strings.Index(address, "@"); at > 0 {
		return address[:at]
	}
	return address
}

func excerpt(text string, limit int) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= limit {
		return trimmed
	}
	return trimmed[:limit]
}
