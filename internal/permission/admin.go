package permission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (s *Service) requireManager(ctx context.Context, actorID, companyID string) error {
	ok, err := s.HasPermission(ctx, actorID, companyID, PermissionsManage)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Warn("permission management denied",
			"actor_id", actorID,
			"company_id", companyID)
		return ErrUnauthorizedAccess
	}
	return nil
}

// AddGrant stores a grant after validating it, and grants the code's
// dependency with SELF scope when the user does not hold it yet.
func (s *Service) AddGrant(ctx context.Context, actorID string, g *Grant) (*Grant, error) {
	if err := s.requireManager(ctx, actorID, g.CompanyID); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		s.logger.Warn("rejected malformed grant",
			"actor_id", actorID,
			"user_id", g.UserID,
			"permission_code", g.Code,
			"error", err)
		return nil, err
	}

	perm, err := s.repo.GetPermission(ctx, g.Code)
	if err != nil {
		return nil, err
	}

	if err := s.createGrant(ctx, actorID, g, ""); err != nil {
		return nil, err
	}

	if err := s.ensureDependencies(ctx, actorID, g, perm); err != nil {
		return nil, err
	}

	return g, nil
}

func (s *Service) createGrant(ctx context.Context, actorID string, g *Grant, reason string) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.GrantedBy = actorID
	g.CreatedAt = time.Now()

	if err := s.repo.CreateGrant(ctx, g); err != nil {
		s.logger.Error("failed to create grant",
			"user_id", g.UserID,
			"company_id", g.CompanyID,
			"permission_code", g.Code,
			"error", err)
		return err
	}

	s.audit(ctx, &AuditEntry{
		CompanyID: g.CompanyID,
		UserID:    g.UserID,
		Code:      g.Code,
		Action:    AuditAdded,
		After:     grantSnapshot(g),
		ChangedBy: actorID,
		Reason:    reason,
	})

	s.logger.Info("permission granted",
		"grant_id", g.ID,
		"user_id", g.UserID,
		"company_id", g.CompanyID,
		"permission_code", g.Code,
		"scope", g.Scope,
		"granted_by", actorID)
	return nil
}

func (s *Service) ensureDependencies(ctx context.Context, actorID string, g *Grant, perm *Permission) error {
	seen := map[Code]bool{g.Code: true}
	for perm != nil && perm.Requires != nil && !seen[*perm.Requires] {
		required := *perm.Requires
		seen[required] = true

		held, err := s.HasPermission(ctx, g.UserID, g.CompanyID, required)
		if err != nil {
			return err
		}
		if !held {
			dep := &Grant{
				UserID:    g.UserID,
				CompanyID: g.CompanyID,
				Code:      required,
				Scope:     ScopeSelf,
			}
			if err := s.createGrant(ctx, actorID, dep, fmt.Sprintf("required by %s", g.Code)); err != nil {
				return err
			}
		}

		perm, err = s.repo.GetPermission(ctx, required)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) RemoveGrant(ctx context.Context, actorID, companyID, grantID string) error {
	if err := s.requireManager(ctx, actorID, companyID); err != nil {
		return err
	}
	g, err := s.repo.GetGrant(ctx, companyID, grantID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteGrant(ctx, companyID, grantID); err != nil {
		s.logger.Error("failed to delete grant", "grant_id", grantID, "error", err)
		return err
	}

	s.audit(ctx, &AuditEntry{
		CompanyID: companyID,
		UserID:    g.UserID,
		Code:      g.Code,
		Action:    AuditRemoved,
		Before:    grantSnapshot(g),
		ChangedBy: actorID,
	})
	s.logger.Info("permission revoked",
		"grant_id", grantID,
		"user_id", g.UserID,
		"permission_code", g.Code,
		"revoked_by", actorID)
	return nil
}

// UpdateGrantEmployees replaces the explicit list of a CUSTOM grant.
func (s *Service) UpdateGrantEmployees(ctx context.Context, actorID, companyID, grantID string, employeeIDs []string) (*Grant, error) {
	if err := s.requireManager(ctx, actorID, companyID); err != nil {
		return nil, err
	}
	g, err := s.repo.GetGrant(ctx, companyID, grantID)
	if err != nil {
		return nil, err
	}
	if g.Scope != ScopeCustom {
		return nil, ErrMalformedGrant.WithMessage("only CUSTOM grants carry an employee list")
	}

	before := grantSnapshot(g)
	updated := *g
	updated.EmployeeIDs = dedupe(employeeIDs)
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateGrantEmployees(ctx, companyID, grantID, updated.EmployeeIDs); err != nil {
		s.logger.Error("failed to update grant employees", "grant_id", grantID, "error", err)
		return nil, err
	}

	s.audit(ctx, &AuditEntry{
		CompanyID: companyID,
		UserID:    g.UserID,
		Code:      g.Code,
		Action:    AuditUpdated,
		Before:    before,
		After:     grantSnapshot(&updated),
		ChangedBy: actorID,
	})
	return &updated, nil
}

// ReplaceUserGrants swaps every grant of a user in one go.
func (s *Service) ReplaceUserGrants(ctx context.Context, actorID, companyID, userID string, grants []*Grant) ([]*Grant, error) {
	if err := s.requireManager(ctx, actorID, companyID); err != nil {
		return nil, err
	}

	now := time.Now()
	for _, g := range grants {
		g.UserID = userID
		g.CompanyID = companyID
		if err := g.Validate(); err != nil {
			return nil, err
		}
		if _, err := s.repo.GetPermission(ctx, g.Code); err != nil {
			return nil, err
		}
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		g.GrantedBy = actorID
		g.CreatedAt = now
	}

	removed, err := s.repo.ReplaceUserGrants(ctx, companyID, userID, grants)
	if err != nil {
		s.logger.Error("failed to replace user grants",
			"user_id", userID,
			"company_id", companyID,
			"error", err)
		return nil, err
	}

	for _, g := range removed {
		s.audit(ctx, &AuditEntry{
			CompanyID: companyID,
			UserID:    userID,
			Code:      g.Code,
			Action:    AuditRemoved,
			Before:    grantSnapshot(g),
			ChangedBy: actorID,
			Reason:    "bulk update",
		})
	}
	for _, g := range grants {
		s.audit(ctx, &AuditEntry{
			CompanyID: companyID,
			UserID:    userID,
			Code:      g.Code,
			Action:    AuditAdded,
			After:     grantSnapshot(g),
			ChangedBy: actorID,
			Reason:    "bulk update",
		})
	}

	s.logger.Info("user grants replaced",
		"user_id", userID,
		"company_id", companyID,
		"removed", len(removed),
		"added", len(grants),
		"changed_by", actorID)
	return grants, nil
}

// audit failures are logged; the grant change itself already happened.
func (s *Service) audit(ctx context.Context, entry *AuditEntry) {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	if err := s.repo.AppendAudit(ctx, entry); err != nil {
		s.logger.Error("failed to write permission audit entry",
			"user_id", entry.UserID,
			"permission_code", entry.Code,
			"action", entry.Action,
			"error", err)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
