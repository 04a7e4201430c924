package integration

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	crmapp "github.com/mar-ia/crm/internal/application/crm"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const analysisSystemPrompt = `You analyse sales conversations. Reply with one JSON object:
{"sentiment": "positive|neutral|negative|mixed", "score": 0-100, "summary": string,
"keyTopics": [string], "buyingSignals": [string], "personality": string,
"nextSteps": [{"action": string, "priority": "low|medium|high", "dueInDays": int}]}.
No prose outside the JSON.`

const nextStepsSystemPrompt = `You recommend follow-up actions after a sales conversation. Reply with one JSON object:
{"nextSteps": [{"action": string, "priority": "low|medium|high", "dueInDays": int}]}.
No prose outside the JSON.`

// ConversationAnalysisService reads transcripts through a language model and
// keeps the result on the client's profile
type ConversationAnalysisService struct {
	clients   crm.ClientRepository
	documents crm.ClientDocumentStore
	model     integration.LanguageModel
	calls     callRecorder
	logger    *zap.Logger
}

// NewConversationAnalysisService creates the service
func NewConversationAnalysisService(
	clients crm.ClientRepository,
	documents crm.ClientDocumentStore,
	model integration.LanguageModel,
	metrics *telemetry.CRMMetrics,
	logger *zap.Logger,
) *ConversationAnalysisService {
	return &ConversationAnalysisService{
		clients:   clients,
		documents: documents,
		model:     model,
		calls:     newCallRecorder(metrics, logger),
		logger:    logger,
	}
}

// Analyze returns the full analysis. With a client it also replaces the
// client's AI profile and appends the conversation to its history.
func (s *ConversationAnalysisService) Analyze(ctx context.Context, scope shared.Scope, req AnalysisRequest) (*integration.ConversationAnalysis, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ConversationAnalysisService", "Analyze")
	defer span.End()

	if err := s.ensureClient(ctx, scope, req.ClientID); err != nil {
		return nil, err
	}
	metrics := computeMetrics(req.Transcript)

	var analysis integration.ConversationAnalysis
	completion, err := s.calls.complete(ctx, s.model, "analyze_conversation", integration.CompletionRequest{
		System:      analysisSystemPrompt,
		Prompt:      buildAnalysisPrompt(req.Transcript, metrics),
		Temperature: 0.2,
		MaxTokens:   1500,
	}, &analysis)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := analysis.Validate(); err != nil {
		s.logger.Warn("Conversation analysis failed validation",
			zap.String("provider", completion.Provider), zap.Error(err))
		return nil, err
	}
	analysis.Metrics = metrics
	analysis.Provider = completion.Provider
	analysis.Model = completion.Model

	if req.ClientID != nil {
		if err := s.store(ctx, scope, *req.ClientID, req.Transcript, &analysis); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	telemetry.SetOK(span)
	return &analysis, nil
}

// Metrics computes the transcript metrics locally; no provider is called
func (s *ConversationAnalysisService) Metrics(transcript string) integration.ConversationMetrics {
	return computeMetrics(transcript)
}

// NextSteps asks the model for follow-up actions only
func (s *ConversationAnalysisService) NextSteps(ctx context.Context, scope shared.Scope, req AnalysisRequest) (*integration.NextStepsResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ConversationAnalysisService", "NextSteps")
	defer span.End()

	if err := s.ensureClient(ctx, scope, req.ClientID); err != nil {
		return nil, err
	}

	var result integration.NextStepsResult
	completion, err := s.calls.complete(ctx, s.model, "next_steps", integration.CompletionRequest{
		System:      nextStepsSystemPrompt,
		Prompt:      buildNextStepsPrompt(req.Transcript, computeMetrics(req.Transcript)),
		Temperature: 0.3,
		MaxTokens:   800,
	}, &result)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	result.Provider = completion.Provider
	result.Model = completion.Model
	telemetry.SetOK(span)
	return &result, nil
}

func (s *ConversationAnalysisService) ensureClient(ctx context.Context, scope shared.Scope, clientID *uuid.UUID) error {
	if clientID == nil {
		return nil
	}
	if _, err := s.clients.FindByID(ctx, scope.TenantID, scope.OrganizationID, *clientID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return crmapp.ErrClientNotFound
		}
		return fmt.Errorf("find client: %w", err)
	}
	return nil
}

func (s *ConversationAnalysisService) store(ctx context.Context, scope shared.Scope, clientID uuid.UUID, transcript string, a *integration.ConversationAnalysis) error {
	profile := crm.AIProfile{
		Personality:   a.Personality,
		Preferences:   a.KeyTopics,
		BuyingSignals: a.BuyingSignals,
		Sentiment:     string(a.Sentiment),
		Score:         a.Score,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := s.documents.SaveProfile(ctx, scope.TenantID, scope.OrganizationID, clientID, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	rec, err := crm.NewCommunicationRecord(crm.ChannelCall, crm.DirectionInbound, a.Summary, transcript)
	if err != nil {
		return err
	}
	rec.Metadata["kind"] = "analysis"
	rec.Metadata["sentiment"] = string(a.Sentiment)
	rec.Metadata["score"] = strconv.Itoa(a.Score)
	if err := s.documents.AppendCommunication(ctx, scope.TenantID, scope.OrganizationID, clientID, *rec); err != nil {
		return fmt.Errorf("append communication: %w", err)
	}
	return nil
}

type speaker int

const (
	speakerNone speaker = iota
	speakerAgent
	speakerClient
)

var (
	timestampPattern = regexp.MustCompile(`^\[(?:(\d{1,2}):)?(\d{1,2}):(\d{2})\]\s*`)
	agentPrefixes    = []string{"agent:", "agente:", "vendedor:", "asesor:"}
	clientPrefixes   = []string{"client:", "cliente:", "customer:", "lead:"}
)

// computeMetrics derives turn, word and question counts from a transcript
// whose lines start with "Agent:" or "Client:" (Spanish labels accepted),
// optionally preceded by a [mm:ss] or [hh:mm:ss] timestamp. Lines without a
// label continue the previous turn. A turn ending in "-", "--" or "..."
// followed by the other speaker counts as an interruption.
func computeMetrics(transcript string) integration.ConversationMetrics {
	var (
		m          integration.ConversationMetrics
		current    = speakerNone
		cutOff     bool
		firstStamp = -1
		lastStamp  = -1
	)

	for _, raw := range strings.Split(transcript, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if match := timestampPattern.FindStringSubmatch(line); match != nil {
			secs := stampSeconds(match)
			if firstStamp < 0 {
				firstStamp = secs
			}
			lastStamp = secs
			line = line[len(match[0]):]
		}

		who, text := splitSpeaker(line)
		if who == speakerNone {
			who = current
			text = line
		} else if who != current {
			if cutOff && current != speakerNone {
				m.Interruptions++
			}
			switch who {
			case speakerAgent:
				m.AgentTurns++
			case speakerClient:
				m.ClientTurns++
			}
			current = who
		}

		words := len(strings.Fields(text))
		switch who {
		case speakerAgent:
			m.AgentWords += words
			m.Questions += strings.Count(text, "?")
		case speakerClient:
			m.ClientWords += words
		}
		trimmed := strings.TrimSpace(text)
		cutOff = strings.HasSuffix(trimmed, "-") || strings.HasSuffix(trimmed, "...") || strings.HasSuffix(trimmed, "…")
	}

	if total := m.AgentWords + m.ClientWords; total > 0 {
		m.TalkRatio = math.Round(float64(m.AgentWords)/float64(total)*100) / 100
	}
	if firstStamp >= 0 && lastStamp > firstStamp {
		m.DurationSeconds = lastStamp - firstStamp
	}
	return m
}

func splitSpeaker(line string) (speaker, string) {
	lower := strings.ToLower(line)
	for _, p := range agentPrefixes {
		if strings.HasPrefix(lower, p) {
			return speakerAgent, line[len(p):]
		}
	}
	for _, p := range clientPrefixes {
		if strings.HasPrefix(lower, p) {
			return speakerClient, line[len(p):]
		}
	}
	return speakerNone, line
}

func stampSeconds(match []string) int {
	h, _ := strconv.Atoi(match[1])
	mi, _ := strconv.Atoi(match[2])
	se, _ := strconv.Atoi(match[3])
	return h*3600 + mi*60 + se
}

func writeMetrics(b *strings.Builder, m integration.ConversationMetrics) {
	fmt.Fprintf(b, "Metrics: agent turns %d, client turns %d, talk ratio %.2f, agent questions %d, interruptions %d",
		m.AgentTurns, m.ClientTurns, m.TalkRatio, m.Questions, m.Interruptions)
	if m.DurationSeconds > 0 {
		fmt.Fprintf(b, ", duration %ds", m.DurationSeconds)
	}
	b.WriteString("\n\n")
}

func buildAnalysisPrompt(transcript string, m integration.ConversationMetrics) string {
	var b strings.Builder
	writeMetrics(&b, m)
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	return b.String()
}

// buildNextStepsPrompt frames the transcript for a next-steps-only request
func buildNextStepsPrompt(transcript string, m integration.ConversationMetrics) string {
	var b strings.Builder
	b.WriteString("Recommend at most five concrete follow-up actions for the agent.\n")
	writeMetrics(&b, m)
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	return b.String()
}
