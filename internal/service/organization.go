// internal/service/organization.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/omnierp/omnicore/internal/audit"
	"github.com/omnierp/omnicore/internal/auth"
	"github.com/omnierp/omnicore/internal/config"
	"github.com/omnierp/omnicore/internal/domain"
	"github.com/omnierp/omnicore/internal/email"
	"github.com/omnierp/omnicore/internal/email/mailer"
	"github.com/omnierp/omnicore/internal/model"
	"github.com/omnierp/omnicore/internal/repository"
)

const trialPeriod = 14 * 24 * time.Hour

// TenantProvisioner is the slice of the provisioning layer this service
// needs; tests substitute a mock.
type TenantProvisioner interface {
	Provision(ctx context.Context, orgID uint) error
}

// OrganizationService implements the signup/provisioning flow, login,
// and plan lifecycle operations against the master registry.
type OrganizationService struct {
	orgRepo      repository.OrganizationRepositoryIface
	userRepo     repository.UserRepositoryIface
	provisioner  TenantProvisioner
	auditor      audit.Recorder
	tokenManager *auth.TokenManager
	emailService email.Sender
	config       *config.Config
	validate     *validator.Validate
}

func NewOrganizationService(
	orgRepo repository.OrganizationRepositoryIface,
	userRepo repository.UserRepositoryIface,
	provisioner TenantProvisioner,
	auditor audit.Recorder,
	tokenManager *auth.TokenManager,
	emailService email.Sender,
	cfg *config.Config,
) *OrganizationService {
	return &OrganizationService{
		orgRepo:      orgRepo,
		userRepo:     userRepo,
		provisioner:  provisioner,
		auditor:      auditor,
		tokenManager: tokenManager,
		emailService: emailService,
		config:       cfg,
		validate:     validator.New(),
	}
}

type SignupInput struct {
	OrgName  string `json:"org_name" validate:"required"`
	Slug     string `json:"slug" validate:"required,lowercase,alphanum,min=3,max=32"`
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignupOutput struct {
	Organization *model.Organization `json:"organization"`
	User         *model.User         `json:"user"`
	Token        string              `json:"token"`
}

// Signup registers an organization, its owner, and provisions the
// tenant database. A provisioning failure leaves the registry rows in
// place and surfaces ErrSetupIncomplete; the next login retries.
func (s *OrganizationService) Signup(ctx context.Context, input SignupInput) (*SignupOutput, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	maxUsers, maxProducts, maxBranches := model.PlanLimits(model.PlanTrial)
	trialEnds := time.Now().UTC().Add(trialPeriod)
	org := &model.Organization{
		Slug:        input.Slug,
		Name:        input.OrgName,
		Plan:        model.PlanTrial,
		Status:      model.OrgActive,
		MaxUsers:    maxUsers,
		MaxProducts: maxProducts,
		MaxBranches: maxBranches,
		TrialEndsAt: &trialEnds,
		IsActive:    true,
	}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		Email:          input.Email,
		FullName:       input.FullName,
		PasswordHash:   hash,
		RoleCode:       "admin",
		Status:         model.StatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.provisioner.Provision(ctx, org.ID); err != nil {
		slog.ErrorContext(ctx, "first provisioning failed", "org_id", org.ID, "error", err)
		s.notifySetupIncomplete(user, org)
		return nil, fmt.Errorf("%w: %v", domain.ErrSetupIncomplete, err)
	}

	s.auditTenant(ctx, org.ID, user.ID.String(), "org.signup", "organization", org.Slug)

	token, err := s.tokenManager.Generate(user.ID.String(), org.ID, user.Email, user.RoleCode)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	if s.emailService != nil {
		if err := mailer.SendWelcomeEmail(s.emailService, user.Email, user.FullName, org.Name, s.config.BaseURL+"/login"); err != nil {
			slog.WarnContext(ctx, "welcome email not sent", "org_id", org.ID, "error", err)
		}
	}

	return &SignupOutput{Organization: org, User: user, Token: token}, nil
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginOutput struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Login authenticates against the master registry, refuses suspended or
// cancelled organizations, and re-runs provisioning so an organization
// whose first setup failed heals on its next login.
func (s *OrganizationService) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := auth.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, domain.ErrInvalidCredentials
	}

	org, err := s.orgRepo.FindByID(ctx, user.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org.Status != model.OrgActive || !org.IsActive {
		return nil, domain.ErrTenantSuspended
	}
	if org.Plan == model.PlanTrial && org.TrialEndsAt != nil && org.TrialEndsAt.Before(time.Now().UTC()) {
		return nil, domain.ErrTrialExpired
	}

	if err := s.provisioner.Provision(ctx, org.ID); err != nil {
		slog.ErrorContext(ctx, "provisioning on login failed", "org_id", org.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrSetupIncomplete, err)
	}

	if err := s.userRepo.TouchLogin(ctx, user.ID); err != nil {
		slog.WarnContext(ctx, "recording login time failed", "user_id", user.ID, "error", err)
	}

	token, err := s.tokenManager.Generate(user.ID.String(), org.ID, user.Email, user.RoleCode)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &LoginOutput{User: user, Token: token}, nil
}

type ChangePlanInput struct {
	Plan model.SubscriptionPlan `json:"plan" validate:"required"`
}

// ChangePlan moves an organization to a new subscription plan and
// applies the plan's usage limits.
func (s *OrganizationService) ChangePlan(ctx context.Context, orgID uint, actorID string, input ChangePlanInput) (*model.Organization, error) {
	if !input.Plan.Valid() {
		return nil, domain.ErrInvalidPlan
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	org.Plan = input.Plan
	org.MaxUsers, org.MaxProducts, org.MaxBranches = model.PlanLimits(input.Plan)
	if input.Plan != model.PlanTrial {
		org.TrialEndsAt = nil
	}
	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, err
	}

	s.auditTenant(ctx, orgID, actorID, "org.plan_changed", "organization", string(input.Plan))
	return org, nil
}

// Suspend soft-deactivates an organization. Its tenant database stays on
// disk untouched.
func (s *OrganizationService) Suspend(ctx context.Context, orgID uint, actorID string) error {
	if err := s.orgRepo.SetStatus(ctx, orgID, model.OrgSuspended); err != nil {
		return err
	}
	s.auditTenant(ctx, orgID, actorID, "org.suspended", "organization", "")
	return nil
}

// Cancel marks an organization cancelled; never a physical delete.
func (s *OrganizationService) Cancel(ctx context.Context, orgID uint, actorID string) error {
	if err := s.orgRepo.SetStatus(ctx, orgID, model.OrgCancelled); err != nil {
		return err
	}
	s.auditTenant(ctx, orgID, actorID, "org.cancelled", "organization", "")
	return nil
}

// Reactivate restores a suspended organization.
func (s *OrganizationService) Reactivate(ctx context.Context, orgID uint, actorID string) error {
	if err := s.orgRepo.SetStatus(ctx, orgID, model.OrgActive); err != nil {
		return err
	}
	s.auditTenant(ctx, orgID, actorID, "org.reactivated", "organization", "")
	return nil
}

// Get returns an organization by id.
func (s *OrganizationService) Get(ctx context.Context, orgID uint) (*model.Organization, error) {
	return s.orgRepo.FindByID(ctx, orgID)
}

// auditTenant records an action in the tenant's audit trail. Audit
// failures are logged, never escalated.
func (s *OrganizationService) auditTenant(ctx context.Context, orgID uint, actorID, action, entity, ref string) {
	err := s.auditor.Record(ctx, orgID, audit.Entry{
		ActorID:   actorID,
		Action:    action,
		Entity:    entity,
		EntityRef: ref,
	})
	if err != nil {
		slog.WarnContext(ctx, "audit entry not written", "org_id", orgID, "action", action, "error", err)
	}
}

func (s *OrganizationService) notifySetupIncomplete(user *model.User, org *model.Organization) {
	if s.emailService == nil {
		return
	}
	if err := mailer.SendSetupIncompleteEmail(s.emailService, user.Email, user.FullName, org.Name); err != nil {
		slog.Warn("setup-incomplete email not sent", "org_id", org.ID, "error", err)
	}
}
