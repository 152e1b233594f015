package router

import (
	"cmp"
	"net/http"
	"slices"

	"github.com/vnpay-checkout/internal/authz"
	adminhandlers "github.com/vnpay-checkout/internal/http/handlers/admin"
	"github.com/vnpay-checkout/internal/http/response"

	"github.com/gin-gonic/gin"
)

const adminPermissionCatalogPath = "/authz/permissions/catalog"

// adminRoute 需要 RBAC 的管理端路由，path 相对 /api/v1/admin
type adminRoute struct {
	module  string
	method  string
	path    string
	handler gin.HandlerFunc
}

type permissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func adminRouteTable(h *adminhandlers.Handler) []adminRoute {
	return []adminRoute{
		{"account", http.MethodGet, "/me", h.GetAdminProfile},
		{"payments", http.MethodGet, "/payments", h.GetAdminPayments},
		{"payments", http.MethodGet, "/payments/export", h.ExportAdminPayments},
		{"payments", http.MethodGet, "/payments/:id", h.GetAdminPayment},
		{"payments", http.MethodPost, "/payments/:id/expire", h.ExpireAdminPayment},
		{"authz", http.MethodGet, "/authz/roles", h.ListAuthzRoles},
		{"authz", http.MethodGet, "/authz/roles/:role/policies", h.GetAuthzRolePolicies},
	}
}

// registerAdminRoutes 注册路由表，权限目录由同一张表生成
func registerAdminRoutes(group *gin.RouterGroup, routes []adminRoute) {
	routes = append(slices.Clone(routes), adminRoute{module: "authz", method: http.MethodGet, path: adminPermissionCatalogPath})
	catalog := permissionCatalog(routes)
	routes[len(routes)-1].handler = func(c *gin.Context) { response.Success(c, catalog) }

	for _, route := range routes {
		group.Handle(route.method, route.path, route.handler)
	}
}

// permissionCatalog 供后台配置策略时选择，Object 与 Casbin 策略中的资源一致
func permissionCatalog(routes []adminRoute) []permissionCatalogItem {
	items := make([]permissionCatalogItem, 0, len(routes))
	for _, route := range routes {
		object := authz.NormalizeObject("/admin" + route.path)
		method := authz.NormalizeAction(route.method)
		items = append(items, permissionCatalogItem{
			Module:     route.module,
			Method:     method,
			Object:     object,
			Permission: method + ":" + object,
		})
	}
	slices.SortFunc(items, func(a, b permissionCatalogItem) int {
		return cmp.Or(
			cmp.Compare(a.Module, b.Module),
			cmp.Compare(a.Object, b.Object),
			cmp.Compare(a.Method, b.Method),
		)
	})
	return slices.CompactFunc(items, func(a, b permissionCatalogItem) bool {
		return a.Permission == b.Permission
	})
}
