package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/omnierp/omnicore/internal/audit"
	"github.com/omnierp/omnicore/internal/auth"
	"github.com/omnierp/omnicore/internal/config"
	"github.com/omnierp/omnicore/internal/domain"
	"github.com/omnierp/omnicore/internal/mocks"
	"github.com/omnierp/omnicore/internal/model"
	"github.com/omnierp/omnicore/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fakeProvisioner records provisioning calls without touching storage.
type fakeProvisioner struct {
	calls []uint
	err   error
}

func (f *fakeProvisioner) Provision(ctx context.Context, orgID uint) error {
	f.calls = append(f.calls, orgID)
	return f.err
}

func newService(orgRepo *mocks.MockOrganizationRepositoryIface, userRepo *mocks.MockUserRepositoryIface, prov *fakeProvisioner) *service.OrganizationService {
	return service.NewOrganizationService(
		orgRepo,
		userRepo,
		prov,
		audit.NoOpRecorder{},
		auth.NewTokenManager("test_secret", time.Hour),
		nil,
		config.Load(),
	)
}

func TestSignup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
	userRepo := mocks.NewMockUserRepositoryIface(ctrl)
	prov := &fakeProvisioner{}

	orgRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, org *model.Organization) error {
			org.ID = 1
			return nil
		})
	userRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(nil)

	svc := newService(orgRepo, userRepo, prov)
	output, err := svc.Signup(context.Background(), service.SignupInput{
		OrgName:  "Ferretería La Norteña",
		Slug:     "lanortena",
		FullName: "Ana Duarte",
		Email:    "ana@example.com",
		Password: "s3cret-pass",
	})

	require.NoError(t, err)
	assert.Equal(t, uint(1), output.Organization.ID)
	assert.Equal(t, model.PlanTrial, output.Organization.Plan)
	assert.NotNil(t, output.Organization.TrialEndsAt)
	assert.Equal(t, "admin", output.User.RoleCode)
	assert.NotEmpty(t, output.Token)
	assert.Equal(t, []uint{1}, prov.calls, "signup must provision the new tenant")
}

func TestSignupInvalidInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := newService(mocks.NewMockOrganizationRepositoryIface(ctrl), mocks.NewMockUserRepositoryIface(ctrl), &fakeProvisioner{})

	_, err := svc.Signup(context.Background(), service.SignupInput{
		OrgName: "No Slug", Slug: "", FullName: "x", Email: "bad", Password: "short",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSignupProvisioningFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
	userRepo := mocks.NewMockUserRepositoryIface(ctrl)
	prov := &fakeProvisioner{err: errors.New("disk full")}

	orgRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, org *model.Organization) error {
			org.ID = 4
			return nil
		})
	userRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	svc := newService(orgRepo, userRepo, prov)
	_, err := svc.Signup(context.Background(), service.SignupInput{
		OrgName:  "Org",
		Slug:     "orgfour",
		FullName: "Ana",
		Email:    "ana@example.com",
		Password: "s3cret-pass",
	})

	assert.ErrorIs(t, err, domain.ErrSetupIncomplete)
}

func loginFixtures(t *testing.T) (*model.User, *model.Organization) {
	t.Helper()
	hash, err := auth.HashPassword("s3cret-pass")
	require.NoError(t, err)

	trialEnds := time.Now().UTC().Add(24 * time.Hour)
	org := &model.Organization{
		ID:          2,
		Slug:        "acme",
		Name:        "ACME",
		Plan:        model.PlanTrial,
		Status:      model.OrgActive,
		IsActive:    true,
		TrialEndsAt: &trialEnds,
	}
	user := &model.User{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		Email:          "ana@example.com",
		FullName:       "Ana Duarte",
		PasswordHash:   hash,
		RoleCode:       "admin",
		Status:         model.StatusActive,
	}
	return user, org
}

func TestLogin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	user, org := loginFixtures(t)
	orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
	userRepo := mocks.NewMockUserRepositoryIface(ctrl)
	prov := &fakeProvisioner{}

	userRepo.EXPECT().FindByEmail(gomock.Any(), user.Email).Return(user, nil)
	orgRepo.EXPECT().FindByID(gomock.Any(), org.ID).Return(org, nil)
	userRepo.EXPECT().TouchLogin(gomock.Any(), user.ID).Return(nil)

	svc := newService(orgRepo, userRepo, prov)
	output, err := svc.Login(context.Background(), service.LoginInput{
		Email:    user.Email,
		Password: "s3cret-pass",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, output.Token)
	// Login re-runs provisioning so an org whose first setup failed heals
	assert.Equal(t, []uint{org.ID}, prov.calls)
}

func TestLoginWrongPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	user, _ := loginFixtures(t)
	orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
	userRepo := mocks.NewMockUserRepositoryIface(ctrl)

	userRepo.EXPECT().FindByEmail(gomock.Any(), user.Email).Return(user, nil)

	svc := newService(orgRepo, userRepo, &fakeProvisioner{})
	_, err := svc.Login(context.Background(), service.LoginInput{
		Email:    user.Email,
		Password: "nope-nope-nope",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginSuspendedOrganization(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	user, org := loginFixtures(t)
	org.Status = model.OrgSuspended
	org.IsActive = false

	orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
	userRepo := mocks.NewMockUserRepositoryIface(ctrl)
	userRepo.EXPECT().FindByEmail(gomock.Any(), user.Email).Return(user, nil)
	orgRepo.EXPECT().FindByID(gomock.Any(), org.ID).Return(org, nil)

	svc := newService(orgRepo, userRepo, &fakeProvisioner{})
	_, err := svc.Login(context.Background(), service.LoginInput{
		Email:    user.Email,
		Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, domain.ErrTenantSuspended)
}

func TestLoginExpiredTrial(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	user, org := loginFixtures(t)
	expired := time.Now().UTC().Add(-time.Hour)
	org.TrialEndsAt = &expired

	orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
	userRepo := mocks.NewMockUserRepositoryIface(ctrl)
	userRepo.EXPECT().FindByEmail(gomock.Any(), user.Email).Return(user, nil)
	orgRepo.EXPECT().FindByID(gomock.Any(), org.ID).Return(org, nil)

	svc := newService(orgRepo, userRepo, &fakeProvisioner{})
	_, err := svc.Login(context.Background(), service.LoginInput{
		Email:    user.Email,
		Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, domain.ErrTrialExpired)
}

func TestChangePlanAppliesLimits(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, org := loginFixtures(t)
	orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
	userRepo := mocks.NewMockUserRepositoryIface(ctrl)

	orgRepo.EXPECT().FindByID(gomock.Any(), org.ID).Return(org, nil)
	orgRepo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	svc := newService(orgRepo, userRepo, &fakeProvisioner{})
	updated, err := svc.ChangePlan(context.Background(), org.ID, "actor", service.ChangePlanInput{Plan: model.PlanPro})

	require.NoError(t, err)
	assert.Equal(t, model.PlanPro, updated.Plan)
	wantUsers, wantProducts, wantBranches := model.PlanLimits(model.PlanPro)
	assert.Equal(t, wantUsers, updated.MaxUsers)
	assert.Equal(t, wantProducts, updated.MaxProducts)
	assert.Equal(t, wantBranches, updated.MaxBranches)
	assert.Nil(t, updated.TrialEndsAt)
}

func TestChangePlanRejectsUnknownPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := newService(mocks.NewMockOrganizationRepositoryIface(ctrl), mocks.NewMockUserRepositoryIface(ctrl), &fakeProvisioner{})
	_, err := svc.ChangePlan(context.Background(), 1, "actor", service.ChangePlanInput{Plan: "platinum"})
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)
}
