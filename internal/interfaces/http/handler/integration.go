package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	intapp "github.com/mar-ia/crm/internal/application/integration"
	"github.com/mar-ia/crm/internal/interfaces/http/dto"
)

// MetricsRequest carries a bare transcript
type MetricsRequest struct {
	Transcript string `json:"transcript" binding:"required,max=200000"`
}

// IntegrationHandler serves the AI, messaging and voice-agent endpoints
type IntegrationHandler struct {
	BaseHandler
	personalization *intapp.CallPersonalizationService
	analysis        *intapp.ConversationAnalysisService
	whatsapp        *intapp.WhatsAppService
	agents          *intapp.VoiceAgentService
}

// NewIntegrationHandler creates a new integration handler
func NewIntegrationHandler(
	personalization *intapp.CallPersonalizationService,
	analysis *intapp.ConversationAnalysisService,
	whatsapp *intapp.WhatsAppService,
	agents *intapp.VoiceAgentService,
) *IntegrationHandler {
	return &IntegrationHandler{
		personalization: personalization,
		analysis:        analysis,
		whatsapp:        whatsapp,
		agents:          agents,
	}
}

// Personalize godoc
// @ID           personalizeCall
// @Summary      Personalized call script
// @Description  Builds a script for one lead from its data and campaign
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        request body intapp.PersonalizeRequest true "Lead and objective"
// @Success      200 {object} dto.Response{data=intapp.PersonalizeResult}
// @Failure      402 {object} dto.Response
// @Failure      429 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Security     BearerAuth
// @Router       /calls/personalize [post]
func (h *IntegrationHandler) Personalize(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req intapp.PersonalizeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.personalization.Personalize(c.Request.Context(), scope, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// AnalyzeConversation godoc
// @ID           analyzeConversation
// @Summary      Analyze conversation
// @Description  With clientId the analysis updates the client's AI profile and history
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        request body intapp.AnalysisRequest true "Transcript"
// @Success      200 {object} dto.Response{data=integration.ConversationAnalysis}
// @Failure      402 {object} dto.Response
// @Failure      429 {object} dto.Response
// @Security     BearerAuth
// @Router       /analysis/conversation [post]
func (h *IntegrationHandler) AnalyzeConversation(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req intapp.AnalysisRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.analysis.Analyze(c.Request.Context(), scope, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Metrics godoc
// @ID           conversationMetrics
// @Summary      Conversation metrics
// @Description  Talk ratio, turns, questions and interruptions computed locally
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        request body MetricsRequest true "Transcript"
// @Success      200 {object} dto.Response{data=integration.ConversationMetrics}
// @Security     BearerAuth
// @Router       /analysis/metrics [post]
func (h *IntegrationHandler) Metrics(c *gin.Context) {
	if _, ok := h.scope(c); !ok {
		return
	}
	var req MetricsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		h.Error(c, dto.CodeValidation, "La transcripción está vacía", "transcript")
		return
	}
	h.Success(c, h.analysis.Metrics(req.Transcript))
}

// NextSteps godoc
// @ID           conversationNextSteps
// @Summary      Suggested next steps
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        request body intapp.AnalysisRequest true "Transcript"
// @Success      200 {object} dto.Response{data=integration.NextStepsResult}
// @Failure      402 {object} dto.Response
// @Security     BearerAuth
// @Router       /analysis/next-steps [post]
func (h *IntegrationHandler) NextSteps(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req intapp.AnalysisRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.analysis.NextSteps(c.Request.Context(), scope, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// SendWhatsApp godoc
// @ID           sendWhatsApp
// @Summary      Send WhatsApp message
// @Tags         messaging
// @Accept       json
// @Produce      json
// @Param        request body intapp.SendWhatsAppRequest true "Message"
// @Success      200 {object} dto.Response{data=intapp.WhatsAppResult}
// @Failure      401 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Security     BearerAuth
// @Router       /whatsapp/send [post]
func (h *IntegrationHandler) SendWhatsApp(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req intapp.SendWhatsAppRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.whatsapp.Send(c.Request.Context(), scope, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// ListAgents godoc
// @ID           listVoiceAgents
// @Summary      List voice agents
// @Tags         agents
// @Produce      json
// @Success      200 {object} dto.Response{data=[]crm.AgentConfig}
// @Security     BearerAuth
// @Router       /agents/elevenlabs [get]
func (h *IntegrationHandler) ListAgents(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	agents, err := h.agents.ListAgents(c.Request.Context(), scope)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, agents)
}

// GetAgent godoc
// @ID           getVoiceAgent
// @Summary      Get voice agent
// @Tags         agents
// @Produce      json
// @Param        agentId path string true "Agent ID"
// @Success      200 {object} dto.Response{data=crm.AgentConfig}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /agents/elevenlabs/{agentId} [get]
func (h *IntegrationHandler) GetAgent(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	agent, err := h.agents.GetAgent(c.Request.Context(), scope, c.Param("agentId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, agent)
}

// SaveAgent godoc
// @ID           saveVoiceAgent
// @Summary      Save voice agent
// @Description  Stores the configuration and syncs it to ElevenLabs. Requires owner or admin.
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        agentId path string true "Agent ID"
// @Param        request body intapp.AgentRequest true "Configuration"
// @Success      200 {object} dto.Response{data=crm.AgentConfig}
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /agents/elevenlabs/{agentId} [put]
func (h *IntegrationHandler) SaveAgent(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req intapp.AgentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	agent, err := h.agents.SaveAgent(c.Request.Context(), scope, c.Param("agentId"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, agent)
}

// StartCall godoc
// @ID           startVoiceAgentCall
// @Summary      Start outbound call
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        agentId path string true "Agent ID"
// @Param        request body intapp.StartCallRequest true "Lead to call"
// @Success      200 {object} dto.Response{data=integration.VoiceAgentCall}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /agents/elevenlabs/{agentId}/calls [post]
func (h *IntegrationHandler) StartCall(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req intapp.StartCallRequest
	if !h.bindJSON(c, &req) {
		return
	}
	call, err := h.agents.StartCall(c.Request.Context(), scope, c.Param("agentId"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, call)
}
