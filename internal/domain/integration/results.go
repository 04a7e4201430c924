package integration

import (
	"strings"
	"time"

	"github.com/mar-ia/crm/internal/domain/shared"
)

// ErrMalformedResponse is returned when a provider payload fails validation
var ErrMalformedResponse = shared.NewDomainError("PROVIDER_MALFORMED_RESPONSE", "Provider returned an unexpected response")

// CallScript is a personalized call script produced by a language model
type CallScript struct {
	Opening     string    `json:"opening"`
	KeyPoints   []string  `json:"keyPoints"`
	Objections  []string  `json:"objections"`
	Closing     string    `json:"closing"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Validate rejects scripts missing their mandatory parts
func (s *CallScript) Validate() error {
	if strings.TrimSpace(s.Opening) == "" || strings.TrimSpace(s.Closing) == "" {
		return ErrMalformedResponse.WithDetails("call script needs opening and closing")
	}
	if len(s.KeyPoints) == 0 {
		return ErrMalformedResponse.WithDetails("call script needs at least one key point")
	}
	if s.Objections == nil {
		s.Objections = []string{}
	}
	return nil
}

// Sentiment is the overall tone of a conversation
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentMixed    Sentiment = "mixed"
)

// IsValid checks if the sentiment is known
func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative, SentimentMixed:
		return true
	}
	return false
}

// ConversationMetrics are computed locally from a transcript, never by a model
type ConversationMetrics struct {
	AgentTurns      int     `json:"agentTurns"`
	ClientTurns     int     `json:"clientTurns"`
	AgentWords      int     `json:"agentWords"`
	ClientWords     int     `json:"clientWords"`
	TalkRatio       float64 `json:"talkRatio"`
	Questions       int     `json:"questions"`
	Interruptions   int     `json:"interruptions"`
	DurationSeconds int     `json:"durationSeconds"`
}

// NextStep is a recommended follow-up action
type NextStep struct {
	Action    string `json:"action"`
	Priority  string `json:"priority"`
	DueInDays int    `json:"dueInDays"`
}

// ConversationAnalysis is the model's reading of a conversation plus local metrics
type ConversationAnalysis struct {
	Sentiment     Sentiment           `json:"sentiment"`
	Score         int                 `json:"score"`
	Summary       string              `json:"summary"`
	KeyTopics     []string            `json:"keyTopics"`
	BuyingSignals []string            `json:"buyingSignals"`
	Personality   string              `json:"personality"`
	NextSteps     []NextStep          `json:"nextSteps"`
	Metrics       ConversationMetrics `json:"metrics"`
	Provider      string              `json:"provider"`
	Model         string              `json:"model"`
}

// Validate rejects analyses with unknown sentiment, out of range score or no summary
func (a *ConversationAnalysis) Validate() error {
	a.Sentiment = Sentiment(strings.ToLower(string(a.Sentiment)))
	if !a.Sentiment.IsValid() {
		return ErrMalformedResponse.WithDetails("unknown sentiment: " + string(a.Sentiment))
	}
	if a.Score < 0 || a.Score > 100 {
		return ErrMalformedResponse.WithDetails("score out of range")
	}
	if strings.TrimSpace(a.Summary) == "" {
		return ErrMalformedResponse.WithDetails("analysis needs a summary")
	}
	if a.KeyTopics == nil {
		a.KeyTopics = []string{}
	}
	if a.BuyingSignals == nil {
		a.BuyingSignals = []string{}
	}
	return validateNextSteps(&a.NextSteps)
}

// NextStepsResult is the next-steps-only analysis
type NextStepsResult struct {
	NextSteps []NextStep `json:"nextSteps"`
	Provider  string     `json:"provider"`
	Model     string     `json:"model"`
}

// Validate rejects empty or malformed step lists
func (r *NextStepsResult) Validate() error {
	if len(r.NextSteps) == 0 {
		return ErrMalformedResponse.WithDetails("no next steps returned")
	}
	return validateNextSteps(&r.NextSteps)
}

func validateNextSteps(steps *[]NextStep) error {
	if *steps == nil {
		*steps = []NextStep{}
	}
	for i := range *steps {
		st := &(*steps)[i]
		if strings.TrimSpace(st.Action) == "" {
			return ErrMalformedResponse.WithDetails("next step without action")
		}
		switch strings.ToLower(st.Priority) {
		case "low", "medium", "high":
			st.Priority = strings.ToLower(st.Priority)
		default:
			st.Priority = "medium"
		}
		if st.DueInDays < 0 {
			st.DueInDays = 0
		}
	}
	return nil
}

// WhatsAppDelivery is the provider acknowledgement of a sent message
type WhatsAppDelivery struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// Validate requires a message id
func (d *WhatsAppDelivery) Validate() error {
	if d.MessageID == "" {
		return ErrMalformedResponse.WithDetails("missing message id")
	}
	if d.Status == "" {
		d.Status = "accepted"
	}
	return nil
}

// VoiceAgentCall is the provider acknowledgement of an outbound call
type VoiceAgentCall struct {
	ConversationID string `json:"conversationId"`
	Status         string `json:"status"`
}

// Validate requires a conversation id
func (c *VoiceAgentCall) Validate() error {
	if c.ConversationID == "" {
		return ErrMalformedResponse.WithDetails("missing conversation id")
	}
	if c.Status == "" {
		c.Status = "initiated"
	}
	return nil
}
