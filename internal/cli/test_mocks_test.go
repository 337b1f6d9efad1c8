package cli

import (
	"context"
	"sync"

	"github.com/storeops/cam-cli/internal/domain"
	camgateway "github.com/storeops/cam-cli/internal/gateway/cam"
)

func profileFixture() domain.Profile {
	return domain.Profile{
		Name:        "ops",
		IsDefault:   true,
		Environment: "gamma",
		Cookies:     []string{"session=profile"},
		OutputDir:   "/tmp/cam-out",
		BatchSize:   5,
		PageSize:    5000,
		MaxAttempts: 3,
	}
}

type testProfiles struct {
	profile domain.Profile
	err     error
}

func (p *testProfiles) Find(context.Context, string) (domain.Profile, error) {
	if p.err != nil {
		return domain.Profile{}, p.err
	}
	return p.profile, nil
}

type testConfigManager struct {
	cfg     domain.Config
	loadErr error
	saved   *domain.Config
}

func (m *testConfigManager) Path() string {
	return "/tmp/cam-config.json"
}

func (m *testConfigManager) Load(context.Context) (domain.Config, error) {
	if m.loadErr != nil {
		return domain.Config{}, m.loadErr
	}
	return m.cfg, nil
}

func (m *testConfigManager) Save(_ context.Context, cfg domain.Config) error {
	m.saved = &cfg
	return nil
}

// testCAMAPI scripts gateway responses per target. The zero value answers
// every call with empty payloads.
type testCAMAPI struct {
	mu          sync.Mutex
	environment string

	storesFn func(ctx context.Context, auth camgateway.AuthContext) (camgateway.StoresInformation, error)
	itemsFn  func(ctx context.Context, storeIDs []string, page camgateway.Page, auth camgateway.AuthContext) ([]domain.ItemAvailability, error)
	itemFn   func(ctx context.Context, storeID, scanCode string, auth camgateway.AuthContext) (*domain.ItemAvailability, error)
	auditFn  func(ctx context.Context, storeID, scanCode string, auth camgateway.AuthContext) ([]domain.AuditEntry, error)
}

func (a *testCAMAPI) Environment() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.environment == "" {
		return camgateway.EnvironmentProd
	}
	return a.environment
}

func (a *testCAMAPI) SetEnvironment(environment string) {
	a.mu.Lock()
	a.environment = environment
	a.mu.Unlock()
}

func (a *testCAMAPI) StoresInformation(ctx context.Context, auth camgateway.AuthContext) (camgateway.StoresInformation, error) {
	if a.storesFn != nil {
		return a.storesFn(ctx, auth)
	}
	return camgateway.StoresInformation{}, nil
}

func (a *testCAMAPI) ItemsAvailability(ctx context.Context, storeIDs []string, page camgateway.Page, auth camgateway.AuthContext) ([]domain.ItemAvailability, error) {
	if a.itemsFn != nil {
		return a.itemsFn(ctx, storeIDs, page, auth)
	}
	return nil, nil
}

func (a *testCAMAPI) ItemAvailability(ctx context.Context, storeID, scanCode string, auth camgateway.AuthContext) (*domain.ItemAvailability, error) {
	if a.itemFn != nil {
		return a.itemFn(ctx, storeID, scanCode, auth)
	}
	return nil, nil
}

func (a *testCAMAPI) AuditHistory(ctx context.Context, storeID, scanCode string, auth camgateway.AuthContext) ([]domain.AuditEntry, error) {
	if a.auditFn != nil {
		return a.auditFn(ctx, storeID, scanCode, auth)
	}
	return nil, nil
}
