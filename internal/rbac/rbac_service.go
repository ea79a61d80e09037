package rbac

import (
	"sort"
	"strings"

	"go-salary/internal/domain"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

type Service interface {
	Enforce(req domain.EnforceRequest) (bool, error)
	PermissionsForRole(role string) ([]domain.PermissionResponse, error)
}

type service struct {
	enforcer *casbin.SyncedEnforcer
	logger   *zap.Logger
}

func NewService(enforcer *casbin.SyncedEnforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{enforcer: enforcer, logger: l}
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if !domain.IsValidRole(role) {
		s.logger.Warn("rbac enforce unknown role",
			zap.String("user_id", req.UserID),
			zap.String("role", req.Role),
		)
		return false, nil
	}

	allowed, err := s.enforcer.Enforce(role, req.Resource, req.Action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("user_id", req.UserID),
			zap.String("role", role),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("user_id", req.UserID),
		zap.String("role", role),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

func (s *service) PermissionsForRole(role string) ([]domain.PermissionResponse, error) {
	role = strings.ToUpper(strings.TrimSpace(role))
	if !domain.IsValidRole(role) {
		return []domain.PermissionResponse{}, nil
	}

	perms, err := s.enforcer.GetImplicitPermissionsForUser(role)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PermissionResponse, 0, len(perms))
	for _, p := range perms {
		// p = [sub, obj, act]
		if len(p) < 3 {
			continue
		}
		out = append(out, domain.PermissionResponse{Resource: p[1], Action: p[2]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Resource != out[j].Resource {
			return out[i].Resource < out[j].Resource
		}
		return out[i].Action < out[j].Action
	})
	return out, nil
}
