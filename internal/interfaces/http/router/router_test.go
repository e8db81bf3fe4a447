package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter_Defaults(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup_MountsUnderVersion(t *testing.T) {
	engine := gin.New()
	vouchers := NewDomainGroup("vouchers", "/vouchers").
		GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) }).
		POST("/:id/post", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	ledgers := NewDomainGroup("ledgers", "/ledgers").
		GET("/:id/balance", func(c *gin.Context) { c.String(http.StatusOK, "balance") })

	NewRouter(engine, WithAPIVersion("v1")).Register(vouchers, ledgers).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/vouchers/abc")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Body.String())

	assert.Equal(t, http.StatusAccepted, serve(engine, http.MethodPost, "/api/v1/vouchers/abc/post").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/ledgers/1/balance").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/vouchers/abc").Code)
}

func TestRouterSetup_APIMiddlewareSkipsEngineRoutes(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	blockAPI := func(c *gin.Context) { c.AbortWithStatus(http.StatusBadRequest) }
	group := NewDomainGroup("vouchers", "/vouchers").
		GET("", func(c *gin.Context) { c.Status(http.StatusOK) })

	NewRouter(engine, WithAPIMiddleware(blockAPI)).Register(group).Setup()

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusBadRequest, serve(engine, http.MethodGet, "/api/v1/vouchers").Code)
}

func TestDomainGroup_MiddlewareAndSubgroups(t *testing.T) {
	engine := gin.New()
	var order []string

	system := NewDomainGroup("system", "/system").
		Use(func(c *gin.Context) { order = append(order, "system"); c.Next() }).
		GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	system.Group("outbox", "/outbox").
		Use(func(c *gin.Context) { order = append(order, "outbox"); c.Next() }).
		GET("/stats", func(c *gin.Context) { order = append(order, "handler"); c.Status(http.StatusOK) })

	system.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/system/outbox/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"system", "outbox", "handler"}, order)

	assert.Equal(t, "pong", serve(engine, http.MethodGet, "/api/v1/system/ping").Body.String())
}

func TestDomainGroup_Mount(t *testing.T) {
	engine := gin.New()
	outbox := NewDomainGroup("outbox", "/outbox").
		GET("/dead", func(c *gin.Context) { c.String(http.StatusOK, "dead") })
	NewDomainGroup("system", "/system").Mount(outbox).RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/system/outbox/dead")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dead", w.Body.String())
}

func TestDomainGroup_Routes(t *testing.T) {
	noop := func(c *gin.Context) {}
	g := NewDomainGroup("periods", "/periods").
		POST("", noop).
		POST("/:id/close", noop).
		Handle(http.MethodPut, "/:id", noop)

	assert.Equal(t, "periods", g.Name())
	assert.Equal(t, "/periods", g.Prefix())

	routes := g.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, Route{Method: http.MethodPost, Path: "/:id/close", handlers: routes[1].handlers}, routes[1])
	assert.Equal(t, http.MethodPut, routes[2].Method)
}
