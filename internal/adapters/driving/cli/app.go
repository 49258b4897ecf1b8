package cli

import (
	"fmt"

	"github.com/yugasun/Feishu-MCP/internal/adapters/driven/config/file"
	"github.com/yugasun/Feishu-MCP/internal/adapters/driven/feishu"
	"github.com/yugasun/Feishu-MCP/internal/adapters/driven/storage/memory"
	"github.com/yugasun/Feishu-MCP/internal/core/domain"
	"github.com/yugasun/Feishu-MCP/internal/core/services"
)

// app bundles the wired components commands operate on. Everything is
// constructed once at startup and passed by reference; there are no
// process-global singletons, so tests can build isolated instances.
type app struct {
	cfg       *file.Config
	store     *memory.TokenStore
	client    *feishu.Client
	tenant    *feishu.TenantTokenProvider
	user      *feishu.UserTokenProvider
	gateway   *services.RequestGateway
	documents *services.DocumentService
}

// buildApp loads configuration and wires the full component graph.
func buildApp() (*app, error) {
	cfg, err := file.Load(configFlag)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := feishu.NewClient(cfg.BaseURL)
	store := memory.NewTokenStore()
	catalog := domain.DefaultScopeCatalog()

	tenant := feishu.NewTenantTokenProvider(client, cfg.AppSecret, store)
	user := feishu.NewUserTokenProvider(client, cfg.AppID, cfg.AppSecret, cfg.RedirectURI, store, catalog)

	var validator *services.ScopeValidator
	if !cfg.DisableScopeValidation {
		validator = services.NewScopeValidator(store, tenant, client, catalog)
	}

	gateway, err := services.NewRequestGateway(cfg.Mode(), store, tenant, user, client, validator)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		store:     store,
		client:    client,
		tenant:    tenant,
		user:      user,
		gateway:   gateway,
		documents: services.NewDocumentService(gateway, cfg.Identity()),
	}, nil
}
