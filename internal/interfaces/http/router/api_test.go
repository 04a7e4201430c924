package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/mar-ia/crm/internal/application/crm"
	appidentity "github.com/mar-ia/crm/internal/application/identity"
	intapp "github.com/mar-ia/crm/internal/application/integration"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/infrastructure/auth"
	"github.com/mar-ia/crm/internal/infrastructure/cache"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"github.com/mar-ia/crm/internal/infrastructure/document"
	"github.com/mar-ia/crm/internal/infrastructure/persistence"
	"github.com/mar-ia/crm/internal/infrastructure/persistence/models"
	"github.com/mar-ia/crm/internal/infrastructure/storage"
	"github.com/mar-ia/crm/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Sup3r-secret!"

type apiEnv struct {
	engine  *gin.Engine
	db      *gorm.DB
	tenant  *identity.Tenant
	org     *identity.Organization
	second  *identity.Organization
	user    *identity.User
	apiKeys *appidentity.APIKeyService
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
	Meta    *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "client-maria", Env: "test"},
		JWT:    config.JWTConfig{Secret: "router-test-secret-with-32-bytes!!", Expiration: time.Hour, Issuer: "client-maria"},
		Cookie: config.CookieConfig{Name: "crm_session", Path: "/", SameSite: "lax"},
		HTTP: config.HTTPConfig{
			MaxBodySize:           1 << 20,
			RateLimitWindow:       time.Minute,
			AuthRateLimitRequests: 100,
			AuthRateLimitWindow:   time.Minute,
			CORSAllowOrigins:      []string{"http://localhost:3000"},
		},
		Telemetry: config.TelemetryConfig{ServiceName: "client-maria-test"},
	}
}

// newAPIEnv wires every service against an in-memory sqlite database and
// seeds tenant acme with two organizations and an owner.
func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                   logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction:   true,
		DisableNestedTransaction: true,
		TranslateError:           true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	tenants := persistence.NewGormTenantRepository(db)
	orgs := persistence.NewGormOrganizationRepository(db)
	users := persistence.NewGormUserRepository(db)
	memberships := persistence.NewGormMembershipRepository(db)
	keys := persistence.NewGormAPIKeyRepository(db)
	leads := persistence.NewGormLeadRepository(db)
	clients := persistence.NewGormClientRepository(db)
	campaigns := persistence.NewGormCampaignRepository(db)
	products := persistence.NewGormProductRepository(db)

	env := &apiEnv{db: db}
	env.user, err = identity.NewUser("ana@acme.com", testPassword, "Ana")
	require.NoError(t, err)
	require.NoError(t, users.Save(ctx, env.user))
	env.tenant, err = identity.NewTenant("Acme", "acme", env.user.ID)
	require.NoError(t, err)
	require.NoError(t, tenants.Save(ctx, env.tenant))
	env.org, err = identity.NewOrganization(env.tenant.ID, "Ventas", env.user.ID)
	require.NoError(t, err)
	require.NoError(t, orgs.Save(ctx, env.org))
	time.Sleep(5 * time.Millisecond)
	env.second, err = identity.NewOrganization(env.tenant.ID, "Marketing", env.user.ID)
	require.NoError(t, err)
	require.NoError(t, orgs.Save(ctx, env.second))
	for _, org := range []*identity.Organization{env.org, env.second} {
		m, err := identity.NewMembership(env.user.ID, env.tenant.ID, org.ID, identity.RoleOwner)
		require.NoError(t, err)
		require.NoError(t, memberships.Save(ctx, m))
	}

	cfg := testConfig()
	jwtService := auth.NewJWTService(cfg.JWT)
	contextCache := cache.NewMemoryContextCache(100, time.Minute)
	documents := document.NewMemoryClientStore()

	authService := appidentity.NewAuthService(tenants, orgs, users, memberships, jwtService, contextCache, log)
	env.apiKeys = appidentity.NewAPIKeyService(keys, log)
	t.Cleanup(env.apiKeys.Wait)

	analysis := intapp.NewConversationAnalysisService(clients, documents, nil, nil, log)
	h := Handlers{
		Auth:         handler.NewAuthHandler(authService, cfg.Cookie),
		Organization: handler.NewOrganizationHandler(appidentity.NewOrganizationService(tenants, orgs, memberships, leads, contextCache, log)),
		APIKey:       handler.NewAPIKeyHandler(env.apiKeys),
		Lead: handler.NewLeadHandler(crmapp.NewLeadService(leads, campaigns,
			persistence.NewGormUnitOfWork(db), nil, crmapp.BulkOptions{}, log)),
		Client:   handler.NewClientHandler(crmapp.NewClientService(clients, documents, storage.NewLocalAttachmentStorage(""), 0, log)),
		Campaign: handler.NewCampaignHandler(crmapp.NewCampaignService(campaigns, products, log)),
		Product:  handler.NewProductHandler(crmapp.NewProductService(products, log)),
		Integration: handler.NewIntegrationHandler(
			intapp.NewCallPersonalizationService(leads, campaigns, documents, nil, nil, log),
			analysis,
			intapp.NewWhatsAppService(clients, documents, nil, nil, log),
			intapp.NewVoiceAgentService(document.NewMemoryAgentStore(), leads, documents, nil, nil, log),
		),
		System: handler.NewSystemHandler("test", map[string]handler.Pinger{
			"database": handler.PingerFunc(sqlDB.Ping),
		}),
	}

	limiters := NewLimiters(cfg.HTTP)
	t.Cleanup(limiters.Close)
	env.engine = NewEngine(Deps{
		Config:   cfg,
		Logger:   log,
		Tokens:   jwtService,
		Contexts: authService,
		APIKeys:  env.apiKeys,
		Limiters: limiters,
	}, h)
	return env
}

func (e *apiEnv) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var env apiEnvelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (e *apiEnv) login(t *testing.T) string {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email": "ana@acme.com", "password": testPassword, "tenantIdentifier": "acme",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestAPI_Login(t *testing.T) {
	e := newAPIEnv(t)

	t.Run("wrong password", func(t *testing.T) {
		w, env := e.do(t, http.MethodPost, "/api/auth/login", gin.H{
			"email": "ana@acme.com", "password": "nope-nope", "tenantIdentifier": "acme",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, "Contraseña incorrecta", env.Error)
		assert.Equal(t, "INVALID_CREDENTIALS", env.Code)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		w, env := e.do(t, http.MethodPost, "/api/auth/login", gin.H{
			"email": "ana@acme.com", "password": testPassword, "tenantIdentifier": "globex",
		}, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "TENANT_NOT_FOUND", env.Code)
	})

	t.Run("token bound to acme and its first organization", func(t *testing.T) {
		w, env := e.do(t, http.MethodPost, "/api/auth/login", gin.H{
			"email": "ana@acme.com", "password": testPassword, "tenantIdentifier": "acme",
		}, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)

		var res appidentity.LoginResult
		require.NoError(t, json.Unmarshal(env.Data, &res))
		claims, err := auth.NewJWTService(testConfig().JWT).Validate(res.Token)
		require.NoError(t, err)
		tenantID, err := claims.TenantUUID()
		require.NoError(t, err)
		orgID, err := claims.OrganizationUUID()
		require.NoError(t, err)
		assert.Equal(t, e.tenant.ID, tenantID)
		assert.Equal(t, e.org.ID, orgID)
		assert.Equal(t, []string{"owner"}, res.Roles)

		var cookie *http.Cookie
		for _, c := range w.Result().Cookies() {
			if c.Name == "crm_session" {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, res.Token, cookie.Value)
	})

	t.Run("validation error", func(t *testing.T) {
		w, env := e.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "not-an-email"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", env.Code)
	})
}

func TestAPI_Context(t *testing.T) {
	e := newAPIEnv(t)
	token := e.login(t)

	w, env := e.do(t, http.MethodGet, "/api/auth/context", nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res handler.ContextResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "acme", res.Tenant.Slug)
	assert.Equal(t, e.org.ID, res.Organization.ID)

	w, env = e.do(t, http.MethodGet, "/api/auth/context", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
}

func TestAPI_LeadBoard(t *testing.T) {
	e := newAPIEnv(t)
	token := e.login(t)

	t.Run("empty organization", func(t *testing.T) {
		w, _ := e.do(t, http.MethodPost, "/api/leads/get", gin.H{}, bearer(token))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{}}`, w.Body.String())
	})

	t.Run("no body", func(t *testing.T) {
		w, _ := e.do(t, http.MethodPost, "/api/leads/get", nil, bearer(token))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{}}`, w.Body.String())
	})

	t.Run("grouped by status", func(t *testing.T) {
		w, _ := e.do(t, http.MethodPost, "/api/leads", gin.H{"firstName": "Pablo", "company": "Acme", "phone": "600100200"}, bearer(token))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w, env := e.do(t, http.MethodPost, "/api/leads/get", gin.H{
			"tenantId": e.tenant.ID, "organizationId": e.org.ID,
		}, bearer(token))
		require.Equal(t, http.StatusOK, w.Code)
		var board map[string][]crmapp.LeadResponse
		require.NoError(t, json.Unmarshal(env.Data, &board))
		require.Len(t, board["new"], 1)
		assert.Equal(t, "Pablo", board["new"][0].FirstName)
	})

	t.Run("foreign tenant in body", func(t *testing.T) {
		w, env := e.do(t, http.MethodPost, "/api/leads/get", gin.H{"tenantId": uuid.New()}, bearer(token))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "TENANT_MISMATCH", env.Code)
	})

	t.Run("foreign organization in body", func(t *testing.T) {
		w, env := e.do(t, http.MethodPost, "/api/leads/get", gin.H{"organizationId": e.second.ID}, bearer(token))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "TENANT_MISMATCH", env.Code)
	})
}

func TestAPI_SwitchOrganization(t *testing.T) {
	e := newAPIEnv(t)
	token := e.login(t)

	_, _ = e.do(t, http.MethodPost, "/api/leads", gin.H{"firstName": "Solo en Ventas", "phone": "600100201"}, bearer(token))

	w, env := e.do(t, http.MethodPut, "/api/user/set-active-organization", gin.H{
		"newOrganizationId": e.second.ID,
	}, bearer(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res handler.SwitchOrganizationResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.NewAuthToken)

	w, env = e.do(t, http.MethodGet, "/api/leads", nil, bearer(res.NewAuthToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(0), env.Meta.Total)

	w, env = e.do(t, http.MethodPut, "/api/user/set-active-organization", gin.H{
		"newOrganizationId": uuid.New(),
	}, bearer(token))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ORGANIZATION_NOT_FOUND", env.Code)
}

func TestAPI_ConvertLead(t *testing.T) {
	e := newAPIEnv(t)
	token := e.login(t)

	w, env := e.do(t, http.MethodPost, "/api/leads", gin.H{"firstName": "Marta", "lastName": "Gil", "email": "marta@example.com"}, bearer(token))
	require.Equal(t, http.StatusCreated, w.Code)
	var lead crmapp.LeadResponse
	require.NoError(t, json.Unmarshal(env.Data, &lead))

	w, env = e.do(t, http.MethodPost, "/api/leads/convert", gin.H{
		"leadId": lead.ID, "createClientRecord": true, "tags": []string{"vip"},
	}, bearer(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res crmapp.ConvertResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotNil(t, res.ClientID)
	assert.Equal(t, "converted", res.Lead.Status)

	w, env = e.do(t, http.MethodGet, "/api/clients/"+res.ClientID.String(), nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	var client crmapp.ClientResponse
	require.NoError(t, json.Unmarshal(env.Data, &client))
	assert.Equal(t, "Marta Gil", client.Name)

	w, env = e.do(t, http.MethodPost, "/api/leads/convert", gin.H{"leadId": lead.ID}, bearer(token))
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "INVALID_STATE", env.Code)
}

func TestAPI_BulkDelete(t *testing.T) {
	e := newAPIEnv(t)
	token := e.login(t)

	ids := make([]uuid.UUID, 0, 3)
	for _, name := range []string{"Uno", "Dos", "Tres"} {
		_, env := e.do(t, http.MethodPost, "/api/leads", gin.H{"firstName": name, "phone": "600100202"}, bearer(token))
		var lead crmapp.LeadResponse
		require.NoError(t, json.Unmarshal(env.Data, &lead))
		ids = append(ids, lead.ID)
	}
	ids = append(ids, uuid.New())

	w, env := e.do(t, http.MethodPost, "/api/leads/bulk-delete", gin.H{"ids": ids}, bearer(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Summary struct {
			Total     int `json:"total"`
			Succeeded int `json:"succeeded"`
			Failed    int `json:"failed"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 4, res.Summary.Total)
	assert.Equal(t, 3, res.Summary.Succeeded)
	assert.Equal(t, 1, res.Summary.Failed)
}

func (e *apiEnv) upload(t *testing.T, path, csv string, fields map[string]string, headers map[string]string) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "leads.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestAPI_ImportLeads(t *testing.T) {
	e := newAPIEnv(t)
	token := e.login(t)
	csv := "Nombre;Apellidos;Correo;Teléfono\n" +
		"Lucía;Ramos;lucia@example.com;\n" +
		"Jorge;;;\n"

	t.Run("dry run", func(t *testing.T) {
		w, env := e.upload(t, "/api/leads/import", csv, map[string]string{"dryRun": "true"}, bearer(token))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var res crmapp.LeadImportResult
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.True(t, res.DryRun)
		assert.Equal(t, 1, res.Imported)

		w, env = e.do(t, http.MethodGet, "/api/leads", nil, bearer(token))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(0), env.Meta.Total)
	})

	t.Run("imports valid rows", func(t *testing.T) {
		w, env := e.upload(t, "/api/leads/import", csv, nil, bearer(token))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var res crmapp.LeadImportResult
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.Equal(t, 2, res.TotalRows)
		assert.Equal(t, 1, res.Imported)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, 3, res.Errors[0].Row)
		assert.Equal(t, "INVALID_LEAD_CONTACT", res.Errors[0].Code)

		w, env = e.do(t, http.MethodGet, "/api/leads/"+res.LeadIDs[0].String(), nil, bearer(token))
		require.Equal(t, http.StatusOK, w.Code)
		var lead crmapp.LeadResponse
		require.NoError(t, json.Unmarshal(env.Data, &lead))
		assert.Equal(t, "Lucía", lead.FirstName)
		assert.Equal(t, "import", lead.Source)
	})

	t.Run("missing file", func(t *testing.T) {
		w, env := e.do(t, http.MethodPost, "/api/leads/import", gin.H{}, bearer(token))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, env.Success)
	})

	t.Run("unreadable file", func(t *testing.T) {
		w, env := e.upload(t, "/api/leads/import", "email\nx@example.com\n", nil, bearer(token))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_IMPORT_FILE", env.Code)
	})
}

func TestAPI_AdminRoutes(t *testing.T) {
	e := newAPIEnv(t)
	token := e.login(t)

	w, env := e.do(t, http.MethodPost, "/api/api-keys", gin.H{
		"name": "web form", "scopes": []string{"leads:write"}, "rateLimitPerMinute": 2,
	}, bearer(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var issued appidentity.IssuedAPIKey
	require.NoError(t, json.Unmarshal(env.Data, &issued))
	key := map[string]string{"X-API-Key": issued.Key}

	t.Run("create with key", func(t *testing.T) {
		w, env := e.do(t, http.MethodPost, "/api/leads/admin/create", gin.H{"firstName": "Desde API", "email": "api@example.com"}, key)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var lead crmapp.LeadResponse
		require.NoError(t, json.Unmarshal(env.Data, &lead))
		assert.Equal(t, e.tenant.ID, lead.TenantID)
		assert.Equal(t, e.org.ID, lead.OrganizationID)
		assert.Equal(t, "api", lead.Source)
	})

	t.Run("body scope must match the key", func(t *testing.T) {
		w, env := e.do(t, http.MethodPost, "/api/leads/admin/create", gin.H{
			"firstName": "Otro", "organizationId": e.second.ID,
		}, key)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "TENANT_MISMATCH", env.Code)
	})

	t.Run("per-key quota", func(t *testing.T) {
		w, env := e.do(t, http.MethodPost, "/api/leads/admin/create", gin.H{"firstName": "Tercero", "phone": "600100203"}, key)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "RATE_LIMITED", env.Code)
	})

	t.Run("missing scope", func(t *testing.T) {
		// a fresh key, the first one is over its quota
		w, env := e.do(t, http.MethodPost, "/api/api-keys", gin.H{
			"name": "writer", "scopes": []string{"leads:write"}, "rateLimitPerMinute": 10,
		}, bearer(token))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var writer appidentity.IssuedAPIKey
		require.NoError(t, json.Unmarshal(env.Data, &writer))

		w, env = e.do(t, http.MethodDelete, "/api/leads/admin/bulk-delete", gin.H{"leadIds": []uuid.UUID{uuid.New()}},
			map[string]string{"X-API-Key": writer.Key})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "INSUFFICIENT_SCOPE", env.Code)
	})

	t.Run("bearer token is not a key", func(t *testing.T) {
		w, env := e.do(t, http.MethodPost, "/api/leads/admin/create", gin.H{"firstName": "x", "phone": "600100204"}, bearer(token))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", env.Code)
	})

	t.Run("revoked key", func(t *testing.T) {
		w, _ := e.do(t, http.MethodDelete, "/api/api-keys/"+issued.ID.String(), nil, bearer(token))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		w, _ = e.do(t, http.MethodPost, "/api/leads/admin/create", gin.H{"firstName": "x", "phone": "600100204"}, key)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAPI_ProviderNotConfigured(t *testing.T) {
	e := newAPIEnv(t)
	token := e.login(t)

	w, env := e.do(t, http.MethodPost, "/api/analysis/conversation", gin.H{
		"transcript": "Agente: Hola\nCliente: Hola",
	}, bearer(token))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "PROVIDER_NOT_CONFIGURED", env.Code)

	w, env = e.do(t, http.MethodPost, "/api/analysis/metrics", gin.H{
		"transcript": "Agente: ¿Qué tal?\nCliente: Bien",
	}, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	var m struct {
		AgentTurns int `json:"agentTurns"`
		Questions  int `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.Equal(t, 1, m.AgentTurns)
	assert.Equal(t, 1, m.Questions)
}

func TestAPI_Health(t *testing.T) {
	e := newAPIEnv(t)

	w, env := e.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res handler.HealthResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, "up", res.Checks["database"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAPI_SwaggerDisabled(t *testing.T) {
	e := newAPIEnv(t)
	w, _ := e.do(t, http.MethodGet, "/swagger/index.html", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
