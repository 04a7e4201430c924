package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "/api", r.prefix)
	assert.Empty(t, r.registrars)
}

func TestRouterWithPrefix(t *testing.T) {
	r := NewRouter(gin.New(), WithPrefix("/internal"))
	assert.Equal(t, "/internal", r.prefix)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	leads := NewDomainGroup("leads", "/leads")
	leads.POST("/get", func(c *gin.Context) { c.String(http.StatusOK, "board") })
	r.Register(leads).Setup()

	w := serve(engine, http.MethodPost, "/api/leads/get")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "board", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodPost, "/api/v1/leads/get").Code)
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("clients", "/clients")
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
	g.GET("", ok).
		POST("", ok).
		PUT("/:id", ok).
		PATCH("/:id", ok).
		DELETE("/:id", ok)
	g.RegisterRoutes(engine.Group("/api"))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/clients"},
		{http.MethodPost, "/api/clients"},
		{http.MethodPut, "/api/clients/42"},
		{http.MethodPatch, "/api/clients/42"},
		{http.MethodDelete, "/api/clients/42"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.method, w.Body.String())
		})
	}
}

func TestDomainGroup_Middleware(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("campaigns", "/campaigns")
	g.Use(func(c *gin.Context) {
		c.Header("X-Group", "campaigns")
		c.Next()
	})
	g.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })

	other := NewDomainGroup("products", "/products")
	other.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := engine.Group("/api")
	g.RegisterRoutes(api)
	other.RegisterRoutes(api)

	assert.Equal(t, "campaigns", serve(engine, http.MethodGet, "/api/campaigns").Header().Get("X-Group"))
	assert.Empty(t, serve(engine, http.MethodGet, "/api/products").Header().Get("X-Group"))
}

func TestDomainGroup_Subgroups(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("leads", "/leads")

	var order []string
	admin := g.Group("admin", "/admin")
	admin.Use(func(c *gin.Context) { order = append(order, "admin"); c.Next() })
	admin.POST("/create", func(c *gin.Context) { c.String(http.StatusCreated, "admin") })

	pipeline := g.Group("pipeline", "")
	pipeline.Use(func(c *gin.Context) { order = append(order, "bearer"); c.Next() })
	pipeline.POST("/get", func(c *gin.Context) { c.String(http.StatusOK, "board") })

	g.RegisterRoutes(engine.Group("/api"))

	w := serve(engine, http.MethodPost, "/api/leads/admin/create")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"admin"}, order)

	order = nil
	w = serve(engine, http.MethodPost, "/api/leads/get")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"bearer"}, order)
}

func TestDomainGroup_Routes(t *testing.T) {
	g := NewDomainGroup("leads", "/leads")
	g.GET("", nil)
	g.Group("admin", "/admin").POST("/create", nil)
	pipeline := g.Group("pipeline", "")
	pipeline.POST("/get", nil).DELETE("/:id", nil)

	assert.Equal(t, []string{
		"GET /leads",
		"POST /leads/admin/create",
		"POST /leads/get",
		"DELETE /leads/:id",
	}, g.Routes())

	assert.Equal(t, "leads", g.Name())
	assert.Equal(t, "/leads", g.Prefix())
}

func TestRouter_Routes(t *testing.T) {
	r := NewRouter(gin.New())
	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/login", nil)
	orgs := NewDomainGroup("organizations", "/organizations")
	orgs.GET("", nil)
	r.Register(auth).Register(orgs)

	assert.Equal(t, []string{"POST /api/auth/login", "GET /api/organizations"}, r.Routes())
}
