package authz

import (
	"errors"
	"fmt"
	"strings"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 支付后台预置角色：审计只读，财务可手动过期，owner 全权
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role:     "readonly_auditor",
			Policies: []Policy{{Object: "/admin/*", Action: "GET"}},
		},
		{
			Role:     "finance",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{{Object: "/admin/payments/:id/expire", Action: "POST"}},
		},
		{
			Role:     "owner",
			Policies: []Policy{{Object: "/admin/*", Action: "*"}},
		},
	}
}

// BootstrapBuiltinRoles 写入预置角色与策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.ensureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := s.ensureRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role %s to %s failed: %w", role, parentRole, err)
			}
		}
		for _, policy := range seed.Policies {
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), NormalizeAction(policy.Action)); err != nil {
				return fmt.Errorf("add builtin policy for %s failed: %w", role, err)
			}
		}
	}
	return nil
}

// SyncAdminRoles 以 admin.accounts 为准同步管理员角色，配置中已移除的管理员会被收回全部角色
func (s *Service) SyncAdminRoles(assignments map[string][]string) error {
	if err := s.ready(); err != nil {
		return err
	}
	keep := make(map[string]struct{}, len(assignments))
	for username, roles := range assignments {
		if err := s.SetAdminRoles(username, roles); err != nil {
			return fmt.Errorf("sync roles for %s failed: %w", username, err)
		}
		keep[SubjectForAdmin(username)] = struct{}{}
	}

	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 0)
	if err != nil {
		return fmt.Errorf("list admin role bindings failed: %w", err)
	}
	for _, rule := range rules {
		if len(rule) == 0 || !strings.HasPrefix(rule[0], adminPrefix) {
			continue
		}
		if _, ok := keep[rule[0]]; ok {
			continue
		}
		if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, rule[0]); err != nil {
			return fmt.Errorf("revoke roles of %s failed: %w", rule[0], err)
		}
	}
	return nil
}

// SetAdminRoles 覆盖设置管理员角色
func (s *Service) SetAdminRoles(username string, roles []string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("admin username is required")
	}
	if err := s.ready(); err != nil {
		return err
	}
	subject := SubjectForAdmin(username)
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, subject); err != nil {
		return fmt.Errorf("clear admin roles failed: %w", err)
	}
	for _, role := range roles {
		normalized, err := s.ensureRole(role)
		if err != nil {
			return err
		}
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, normalized); err != nil {
			return fmt.Errorf("assign admin role failed: %w", err)
		}
	}
	return nil
}

// ensureRole 角色以挂到锚点的 g 记录登记
func (s *Service) ensureRole(role string) (string, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return "", err
	}
	if normalized == roleAnchor {
		return "", errors.New("reserved role is not allowed")
	}
	exists, err := s.enforcer.HasNamedGroupingPolicy("g", normalized, roleAnchor)
	if err != nil {
		return "", fmt.Errorf("check role failed: %w", err)
	}
	if !exists {
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", normalized, roleAnchor); err != nil {
			return "", fmt.Errorf("create role failed: %w", err)
		}
	}
	return normalized, nil
}
