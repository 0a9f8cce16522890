package domain

type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

type Tone string

const (
	ToneNeutral     Tone = "neutral"
	TonePolite      Tone = "polite"
	ToneEscalation  Tone = "escalation"
	ToneThreatening Tone = "threatening"
)

// CorrespondenceRecord is the normalized output for free-text correspondence.
type CorrespondenceRecord struct {
	SenderName    string  `json:"sender_name"`
	SenderAddress string  `json:"sender_address"`
	Subject       string  `json:"subject"`
	Urgency       Urgency `json:"urgency"`
	Tone          Tone    `json:"tone"`
	IssueType     string  `json:"issue_type"`
	BodyExcerpt   string  `json:"body_excerpt"`
}
