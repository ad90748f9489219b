package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/portops/backend/internal/service"
)

func resolveViewer(t *testing.T, headers map[string]string) service.Viewer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var got service.Viewer
	r := gin.New()
	r.Use(Viewer())
	r.GET("/", func(c *gin.Context) {
		got = ViewerFrom(c)
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return got
}

func TestViewerDefaultsToAnalista(t *testing.T) {
	v := resolveViewer(t, nil)
	if v.Role != service.RoleAnalista {
		t.Fatalf("expected ANALISTA default, got %s", v.Role)
	}
	if len(v.CompanyIDs) != 0 {
		t.Fatalf("expected no companies, got %v", v.CompanyIDs)
	}
}

func TestViewerParsesHeaders(t *testing.T) {
	v := resolveViewer(t, map[string]string{
		"X-Role":        "transportista",
		"X-Company-Ids": "10, 11,junk,12",
	})
	if v.Role != service.RoleTransportista {
		t.Fatalf("role must be uppercased, got %s", v.Role)
	}
	if len(v.CompanyIDs) != 3 || v.CompanyIDs[0] != 10 || v.CompanyIDs[2] != 12 {
		t.Fatalf("unexpected companies %v", v.CompanyIDs)
	}
	if !v.IsTransportista() {
		t.Fatalf("viewer should report itself as a carrier")
	}
}

func TestViewerFromWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	v := ViewerFrom(c)
	if v.Role != service.RoleAnalista {
		t.Fatalf("missing viewer must fall back to ANALISTA, got %s", v.Role)
	}
}
