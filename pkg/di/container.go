package di

import (
	"context"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-repair-console/apiclient"
	"github.com/goliatone/go-repair-console/cache"
	"github.com/goliatone/go-repair-console/console"
	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/internal/config"
	"github.com/goliatone/go-repair-console/internal/logging"
	"github.com/goliatone/go-repair-console/invalidation"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
	"github.com/goliatone/go-repair-console/querycache"
	"github.com/goliatone/go-repair-console/repositorycache"
	"github.com/goliatone/go-repair-console/resource"
)

// Container wires the console from one configuration. It owns singleton
// instances of the cache store, the query cache, the API client and the
// cached repositories, and hands out screen controllers bound to them.
type Container struct {
	config        config.Config
	loggers       interfaces.LoggerProvider
	session       interfaces.SessionProvider
	httpClient    *http.Client
	notifier      interfaces.Notifier
	navigator     interfaces.Navigator
	translator    interfaces.Translator
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	queries       *querycache.Cache
	client        *apiclient.Client
	registry      *entity.Registry
	coordinator   *invalidation.Coordinator
	repos         map[entity.Group]*repositorycache.CachedRepository
	dashboard     *repositorycache.CachedDashboard
	stopRefresher func()
}

// Option customizes a Container.
type Option func(*Container)

// WithLoggerProvider sets the source of module loggers.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) { c.loggers = provider }
}

// WithSession replaces the token session built from the API config.
func WithSession(session interfaces.SessionProvider) Option {
	return func(c *Container) { c.session = session }
}

// WithHTTPClient replaces the HTTP client used by the API client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Container) { c.httpClient = hc }
}

// WithFeedback sets the host callbacks handed to every controller.
func WithFeedback(notifier interfaces.Notifier, navigator interfaces.Navigator, translator interfaces.Translator) Option {
	return func(c *Container) {
		c.notifier = notifier
		c.navigator = navigator
		c.translator = translator
	}
}

// WithRegistry replaces the default entity descriptors.
func WithRegistry(registry *entity.Registry) Option {
	return func(c *Container) { c.registry = registry }
}

// NewContainer validates cfg and builds every component. A positive
// refetch interval starts the background refresher.
func NewContainer(cfg config.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.session == nil {
		c.session = tokenSession{token: cfg.API.Token, role: cfg.API.Role}
	}
	if c.registry == nil {
		c.registry = entity.DefaultRegistry()
	}
	applyPageSize(c.registry, cfg.List.PageSize)

	cacheService, err := cache.NewCacheService(cfg.Cache.StoreConfig())
	if err != nil {
		return nil, err
	}
	c.cacheService = cacheService
	c.keySerializer = cache.NewDefaultKeySerializer()

	cacheLogger := logging.ModuleLogger(c.loggers, logging.CacheModule)
	c.queries = querycache.New(c.cacheService, c.keySerializer,
		querycache.WithStaleTime(cfg.Cache.StaleTime),
		querycache.WithLogger(cacheLogger),
	)

	client, err := apiclient.New(cfg.API.BaseURL,
		apiclient.WithHTTPClient(c.httpClient),
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithSession(c.session),
		apiclient.WithLogger(logging.ModuleLogger(c.loggers, logging.APIModule)),
	)
	if err != nil {
		_ = c.queries.Close()
		return nil, err
	}
	c.client = client

	c.coordinator = invalidation.NewCoordinator(c.queries, invalidation.WithLogger(cacheLogger))
	c.repos = make(map[entity.Group]*repositorycache.CachedRepository)
	for _, group := range c.registry.Groups() {
		d, _ := c.registry.Get(group)
		c.repos[group] = repositorycache.New(
			resource.NewRESTRepository(c.client, d),
			c.queries,
			c.coordinator,
			repositorycache.WithLogger(logging.WithEntity(cacheLogger, group.String())),
		)
	}
	c.dashboard = repositorycache.NewDashboard(resource.NewDashboard(c.client), c.queries)

	if interval := cfg.Cache.RefetchInterval; interval > 0 {
		c.stopRefresher = c.queries.StartRefresher(context.Background(), interval)
	}
	return c, nil
}

// NewContainerWithDefaults builds a container from env-default settings.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	cfg, err := config.Default()
	if err != nil {
		return nil, err
	}
	return NewContainer(cfg, opts...)
}

// Config returns a copy of the configuration the container was built from.
func (c *Container) Config() config.Config { return c.config }

// CacheService returns the backing store of the query cache.
func (c *Container) CacheService() cache.CacheService { return c.cacheService }

// KeySerializer returns the serializer used to derive store keys.
func (c *Container) KeySerializer() cache.KeySerializer { return c.keySerializer }

func (c *Container) Queries() *querycache.Cache { return c.queries }

func (c *Container) Client() *apiclient.Client { return c.client }

func (c *Container) Registry() *entity.Registry { return c.registry }

func (c *Container) Coordinator() *invalidation.Coordinator { return c.coordinator }

func (c *Container) Dashboard() *repositorycache.CachedDashboard { return c.dashboard }

// Repository returns the cached repository of group.
func (c *Container) Repository(group entity.Group) (*repositorycache.CachedRepository, error) {
	if repo, ok := c.repos[group]; ok {
		return repo, nil
	}
	_, err := c.registry.Lookup(group)
	if err == nil {
		err = goerrors.New("di: no repository for "+group.String(), goerrors.CategoryNotFound).
			WithTextCode("REPOSITORY_NOT_FOUND")
	}
	return nil, err
}

// Sources returns the cached repositories in registry order.
func (c *Container) Sources() []console.EntitySource {
	groups := c.registry.Groups()
	out := make([]console.EntitySource, 0, len(groups))
	for _, group := range groups {
		if repo, ok := c.repos[group]; ok {
			out = append(out, repo)
		}
	}
	return out
}

// Env returns the controller environment.
func (c *Container) Env() console.Env {
	return console.Env{
		Session:    c.session,
		Notifier:   c.notifier,
		Navigator:  c.navigator,
		Translator: c.translator,
		Logger:     c.loggers,
	}
}

func (c *Container) ListController(group entity.Group) (*console.ListController, error) {
	repo, err := c.Repository(group)
	if err != nil {
		return nil, err
	}
	return console.NewListController(repo, c.Env()), nil
}

func (c *Container) DetailController(group entity.Group, id int64) (*console.DetailController, error) {
	repo, err := c.Repository(group)
	if err != nil {
		return nil, err
	}
	return console.NewDetailController(repo, c.Env(), id), nil
}

func (c *Container) CreateForm(group entity.Group) (*console.FormController, error) {
	repo, err := c.Repository(group)
	if err != nil {
		return nil, err
	}
	return console.NewCreateForm(repo, c.Env()), nil
}

func (c *Container) EditForm(group entity.Group, id int64) (*console.FormController, error) {
	repo, err := c.Repository(group)
	if err != nil {
		return nil, err
	}
	return console.NewEditForm(repo, c.Env(), id), nil
}

func (c *Container) SearchController() *console.SearchController {
	return console.NewSearchController(c.Sources(), c.Env(), c.config.List.SearchLimit)
}

func (c *Container) DashboardController() *console.DashboardController {
	return console.NewDashboardController(c.dashboard, c.Env())
}

// Focus refetches stale queries that are still observed. Hosts call it
// when the console regains focus.
func (c *Container) Focus(ctx context.Context) error {
	return c.queries.RefetchStale(ctx)
}

// Close stops the refresher and drops every cached query.
func (c *Container) Close() error {
	if c.stopRefresher != nil {
		c.stopRefresher()
		c.stopRefresher = nil
	}
	return c.queries.Close()
}

// applyPageSize fills the list page size of descriptors that set none.
func applyPageSize(registry *entity.Registry, size int) {
	if size <= 0 {
		return
	}
	for _, group := range registry.Groups() {
		d, _ := registry.Get(group)
		if d.PageSize == 0 {
			d.PageSize = size
			registry.Register(d)
		}
	}
}

// tokenSession serves a configured bearer token. The role only drives
// client-side permission checks; the backend stays authoritative.
type tokenSession struct {
	token string
	role  string
}

func (s tokenSession) CurrentUser(context.Context) (interfaces.Principal, bool) {
	return interfaces.Principal{Role: s.role}, s.token != ""
}

func (s tokenSession) Token(context.Context) string { return s.token }
