// Package wallet wires the wallet components into one application context and
// runs the share and add flows over remote sessions.
package wallet

import (
	"context"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/blobstore"
	"github.com/AlexZinkM/card-wallet/internal/catalog"
	"github.com/AlexZinkM/card-wallet/internal/common"
	"github.com/AlexZinkM/card-wallet/internal/config"
	"github.com/AlexZinkM/card-wallet/internal/inbox"
	"github.com/AlexZinkM/card-wallet/internal/meta"
	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/AlexZinkM/card-wallet/internal/planner"
	"github.com/AlexZinkM/card-wallet/internal/remote"
	"github.com/AlexZinkM/card-wallet/internal/store"
	"go.uber.org/zap"
)

// Settings are the tunables of the flows.
type Settings struct {
	PIN            string
	MetaRetries    int
	MetaDelay      time.Duration
	OfferRetries   int
	InboxInterval  time.Duration
	InboxRetention time.Duration
	SeedPath       string
	ContentPath    string
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		PIN:            common.DefaultPIN,
		MetaRetries:    meta.DefaultRetries,
		MetaDelay:      meta.DefaultDelay,
		OfferRetries:   12,
		InboxInterval:  inbox.DefaultInterval,
		InboxRetention: inbox.DefaultRetention,
	}
}

// SettingsFrom maps the process configuration onto Settings.
func SettingsFrom(c *config.Config) Settings {
	return Settings{
		PIN:            c.PIN,
		MetaRetries:    c.MetaRetries,
		MetaDelay:      c.MetaDelay,
		OfferRetries:   c.OfferRetries,
		InboxInterval:  c.InboxPollInterval,
		InboxRetention: c.InboxRetention,
		SeedPath:       c.SeedPath,
		ContentPath:    c.CardContentPath,
	}
}

// App owns every component instance of one wallet.
type App struct {
	Store   *store.Store
	Catalog *catalog.Catalog
	Planner *planner.Planner
	Meta    *meta.Resolver
	Inbox   *inbox.Engine
	Remote  remote.SessionStore
	Flow    *Controller

	settings Settings
	log      *zap.Logger
	now      func() time.Time
}

// Option configures an App.
type Option func(*App)

// WithClock replaces time.Now in every component.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *App) { a.log = log }
}

// New builds the application context. The stored state is migrated and
// stale inbox entries are pruned before New returns.
func New(blobs blobstore.Store, cat *catalog.Catalog, rs remote.SessionStore, settings Settings, opts ...Option) *App {
	a := &App{
		Catalog:  cat,
		Remote:   rs,
		settings: settings,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.settings.PIN = common.NormalizePIN(a.settings.PIN)

	a.Store = store.New(blobs, store.WithClock(a.now), store.WithLogger(a.log))
	if err := a.Store.Migrate(); err != nil {
		a.log.Warn("failed to persist migrated state", zap.Error(err))
	}
	a.Planner = planner.New(cat)
	a.Meta = meta.NewResolver(rs, a.log)

	inboxOpts := []inbox.Option{inbox.WithClock(a.now), inbox.WithLogger(a.log)}
	if settings.InboxInterval > 0 {
		inboxOpts = append(inboxOpts, inbox.WithInterval(settings.InboxInterval))
	}
	a.Inbox = inbox.New(a.Store, rs, cat, inboxOpts...)
	retention := settings.InboxRetention
	if retention <= 0 {
		retention = inbox.DefaultRetention
	}
	if n := a.Inbox.Prune(retention); n > 0 {
		a.log.Info("pruned inbox", zap.Int("removed", n))
	}

	a.Flow = newController(a)
	return a
}

// Start arms inbox polling.
func (a *App) Start() {
	a.Inbox.StartPolling()
}

// Close leaves any pending share and stops background work.
func (a *App) Close() {
	a.Flow.Leave()
	a.Inbox.Close()
}

// PIN returns the normalized wallet PIN.
func (a *App) PIN() string {
	return a.settings.PIN
}

// Seed adds the cards of a seed set.
func (a *App) Seed(set string) ([]model.Card, error) {
	return a.Store.Seed(a.settings.SeedPath, a.settings.ContentPath, set)
}

// Clear removes every card, drops the inbox list and any pending share.
func (a *App) Clear() error {
	a.Flow.Leave()
	for _, e := range a.Inbox.Entries() {
		a.Inbox.Remove(e.ID)
	}
	return a.Store.Clear()
}

// Refresh refreshes every inbox entry once.
func (a *App) Refresh(ctx context.Context) {
	a.Inbox.RefreshAll(ctx)
}

// View renders a card with its title, validity and fields in display order.
func (a *App) View(c model.Card) model.CardView {
	plan := a.Planner.BuildPlan(&c, nil)
	v := model.CardView{
		Card:     c,
		Title:    a.Catalog.LabelForType(c.Type),
		Validity: store.Validity(c, a.now()),
		Fields:   make([]model.FieldDisplay, 0, len(c.Payload)),
	}
	for _, key := range plan.Available(&c) {
		v.Fields = append(v.Fields, a.Catalog.FormatField(c.Type, key, c.Payload))
	}
	return v
}
