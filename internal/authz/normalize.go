package authz

import (
	"errors"
	"strings"
)

const (
	apiV1Prefix = "/api/v1"
	adminPrefix = "admin:"
	rolePrefix  = "role:"
	roleAnchor  = "role:__anchor__"
)

// SubjectForAdmin 管理员主体标识，用户名不区分大小写
func SubjectForAdmin(username string) string {
	return adminPrefix + strings.ToLower(strings.TrimSpace(username))
}

// NormalizeRole 统一角色名称为 role:<name>
func NormalizeRole(role string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(role), " ", "_")
	normalized = strings.TrimPrefix(normalized, rolePrefix)
	if normalized == "" {
		return "", errors.New("role is required")
	}
	return rolePrefix + normalized, nil
}

// NormalizeObject 统一资源路径，去掉 /api/v1 前缀
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	switch {
	case normalized == apiV1Prefix:
		return "/"
	case strings.HasPrefix(normalized, apiV1Prefix+"/"):
		return strings.TrimPrefix(normalized, apiV1Prefix)
	}
	return normalized
}

func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
