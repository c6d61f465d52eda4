// Package dependency wires core amberseal services using go.uber.org/dig.
package dependency

import (
	"fmt"
	"time"

	"go.uber.org/dig"

	"github.com/amberseal/amberseal/internal/config"
	"github.com/amberseal/amberseal/internal/httpapi"
	"github.com/amberseal/amberseal/internal/maintenance"
	"github.com/amberseal/amberseal/internal/providers"
	"github.com/amberseal/amberseal/internal/runtime"
	"github.com/amberseal/amberseal/internal/schema"
	"github.com/amberseal/amberseal/internal/store"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	gateway schema.ModelGateway
	catalog *store.Catalog
	rt      *runtime.Runtime
	server  *httpapi.Server
	sweeper *maintenance.Sweeper
}

func (c *Container) Gateway() schema.ModelGateway   { return c.gateway }
func (c *Container) Catalog() *store.Catalog        { return c.catalog }
func (c *Container) Runtime() *runtime.Runtime      { return c.rt }
func (c *Container) Server() *httpapi.Server        { return c.server }
func (c *Container) Sweeper() *maintenance.Sweeper  { return c.sweeper }

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(newGateway); err != nil {
		return nil, err
	}
	if err := d.Provide(newStore); err != nil {
		return nil, err
	}
	if err := d.Provide(newCatalog); err != nil {
		return nil, err
	}
	if err := d.Provide(newRuntime); err != nil {
		return nil, err
	}
	if err := d.Provide(newServer); err != nil {
		return nil, err
	}
	if err := d.Provide(newSweeper); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(
		gateway schema.ModelGateway,
		catalog *store.Catalog,
		rt *runtime.Runtime,
		server *httpapi.Server,
		sweeper *maintenance.Sweeper,
	) {
		result = &Container{
			gateway: gateway,
			catalog: catalog,
			rt:      rt,
			server:  server,
			sweeper: sweeper,
		}
	})
	return result, err
}

func newGateway(cfg *config.Config) (schema.ModelGateway, error) {
	name := cfg.Agents.Defaults.Provider
	if name == "" {
		name = "openai"
	}
	pc := cfg.ProviderByName(name)
	if pc == nil {
		return nil, fmt.Errorf("unknown provider %q — edit %s", name, config.ConfigPath())
	}
	return providers.New(providers.Params{
		Provider:     name,
		APIKey:       pc.APIKey,
		APIBase:      pc.APIBase,
		ExtraHeaders: pc.ExtraHeaders,
	})
}

func newStore(cfg *config.Config) (*store.Store, error) {
	return store.NewStore(cfg.WorkspacePath())
}

func newCatalog(cfg *config.Config) (*store.Catalog, error) {
	return store.NewCatalog(cfg.WorkspacePath())
}

func newRuntime(st *store.Store, catalog *store.Catalog, gateway schema.ModelGateway) *runtime.Runtime {
	return runtime.New(st, catalog, gateway)
}

func newServer(cfg *config.Config, rt *runtime.Runtime, catalog *store.Catalog) *httpapi.Server {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	return httpapi.New(addr, rt, catalog)
}

func newSweeper(cfg *config.Config, rt *runtime.Runtime) *maintenance.Sweeper {
	idle := time.Duration(cfg.Maintenance.IdleMinutes) * time.Minute
	return maintenance.NewSweeper(rt, cfg.Maintenance.SweepSchedule, idle)
}
