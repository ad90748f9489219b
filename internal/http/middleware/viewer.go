package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/portops/backend/internal/service"
)

const ViewerKey = "viewer"

// Viewer materializes the caller already decided by the external
// authorization layer: role from X-Role, scoped companies from
// X-Company-Ids as a comma-separated list.
func Viewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := strings.ToUpper(strings.TrimSpace(c.GetHeader("X-Role")))
		if role == "" {
			role = service.RoleAnalista
		}

		var companyIDs []int64
		for _, part := range strings.Split(c.GetHeader("X-Company-Ids"), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if id, err := strconv.ParseInt(part, 10, 64); err == nil {
				companyIDs = append(companyIDs, id)
			}
		}

		c.Set(ViewerKey, service.Viewer{Role: role, CompanyIDs: companyIDs})
		c.Next()
	}
}

func ViewerFrom(c *gin.Context) service.Viewer {
	if v, ok := c.Get(ViewerKey); ok {
		if viewer, ok := v.(service.Viewer); ok {
			return viewer
		}
	}
	return service.Viewer{Role: service.RoleAnalista}
}
