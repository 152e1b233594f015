package admin

import (
	"strings"

	"github.com/vnpay-checkout/internal/authz"
	"github.com/vnpay-checkout/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AuthzRoleItem 角色及其策略
type AuthzRoleItem struct {
	Role     string         `json:"role"`
	Inherits []string       `json:"inherits"`
	Policies []authz.Policy `json:"policies"`
}

// ListAuthzRoles 列出预置角色及策略
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	if h.AuthzService == nil {
		respondError(c, response.CodeUnavailable, "error.internal", nil)
		return
	}
	seeds := authz.BuiltinRoleSeeds()
	items := make([]AuthzRoleItem, 0, len(seeds))
	for _, seed := range seeds {
		policies, err := h.AuthzService.RolePolicies(seed.Role)
		if err != nil {
			respondError(c, response.CodeInternal, "error.internal", err)
			return
		}
		inherits := seed.Inherits
		if inherits == nil {
			inherits = []string{}
		}
		items = append(items, AuthzRoleItem{Role: seed.Role, Inherits: inherits, Policies: policies})
	}
	response.Success(c, items)
}

// GetAuthzRolePolicies 查询单个角色的策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	if h.AuthzService == nil {
		respondError(c, response.CodeUnavailable, "error.internal", nil)
		return
	}
	role := strings.TrimSpace(c.Param("role"))
	if _, err := authz.NormalizeRole(role); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	policies, err := h.AuthzService.RolePolicies(role)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, policies)
}
