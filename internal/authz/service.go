package authz

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const casbinTableName = "casbin_rule"

var errUnavailable = errors.New("authz service unavailable")

// Policy 权限策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// Service 管理端支付后台的 Casbin 授权服务
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// adminModel 资源为去掉 /api/v1 的路由模板，角色经 g 继承，策略动作 * 放行任意方法
func adminModel() model.Model {
	m := model.NewModel()
	m.AddDef("r", "r", "sub, obj, act")
	m.AddDef("p", "p", "sub, obj, act")
	m.AddDef("g", "g", "_, _")
	m.AddDef("e", "e", "some(where (p.eft == allow))")
	m.AddDef("m", "m", `(g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (p.act == "*" || r.act == p.act)`)
	return m
}

// NewService 创建授权服务，策略持久化在 casbin_rule 表
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("authz adapter: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(adminModel(), adapter)
	if err != nil {
		return nil, fmt.Errorf("authz enforcer: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz load policy: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return errUnavailable
	}
	return nil
}

// EnforceAdmin 判定管理员能否以 action 访问路由 object
func (s *Service) EnforceAdmin(username, object, action string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.enforcer.Enforce(SubjectForAdmin(username), NormalizeObject(object), NormalizeAction(action))
}

// RolePolicies 角色直接授予的策略，不含继承
func (s *Service) RolePolicies(role string) ([]Policy, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, subject)
	if err != nil {
		return nil, fmt.Errorf("list policies of %s: %w", subject, err)
	}
	out := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if policy, ok := policyFromRule(rule); ok {
			out = append(out, policy)
		}
	}
	return out, nil
}

func policyFromRule(rule []string) (Policy, bool) {
	if len(rule) < 3 {
		return Policy{}, false
	}
	return Policy{
		Subject: strings.TrimSpace(rule[0]),
		Object:  NormalizeObject(rule[1]),
		Action:  NormalizeAction(rule[2]),
	}, true
}

// AdminRoles 管理员直接绑定的角色，按名称排序
func (s *Service) AdminRoles(username string) ([]string, error) {
	if strings.TrimSpace(username) == "" {
		return nil, errors.New("admin username is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	bound, err := s.enforcer.GetRolesForUser(SubjectForAdmin(username))
	if err != nil {
		return nil, fmt.Errorf("list roles of %s: %w", username, err)
	}
	roles := slices.DeleteFunc(slices.Clone(bound), func(role string) bool {
		return role == roleAnchor || !strings.HasPrefix(role, rolePrefix)
	})
	slices.Sort(roles)
	return roles, nil
}
