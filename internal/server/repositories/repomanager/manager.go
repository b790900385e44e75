// Package repomanager opens the document store selected by the database
// DSN, applies schema migrations, and vends repositories bound to it.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/archives"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/entities"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/registry"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories that share one store.
type RepositoryManager interface {
	Store() docstore.Store
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	Archives() archives.Repository
	Registry() *registry.Registry
	Close(ctx context.Context) error
}

// Manager is the RepositoryManager for any docstore backend.
type Manager struct {
	store docstore.Store
}

func NewManager(store docstore.Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) Store() docstore.Store { return m.store }

func (m *Manager) Users() users.Repository {
	return users.NewDocumentRepository(m.store.Collection(models.KindUser.Collection()))
}

func (m *Manager) RefreshTokens() refreshtokens.Repository {
	return refreshtokens.NewDocumentRepository(m.store.Collection(models.CollectionRefreshTokens))
}

func (m *Manager) Archives() archives.Repository {
	return archives.NewDocumentRepository(m.store.Collection(models.CollectionArchives))
}

func (m *Manager) Registry() *registry.Registry {
	return registry.New(m.store)
}

func (m *Manager) Close(ctx context.Context) error { return m.store.Close(ctx) }

// Entities returns the typed repository for kind.
func Entities[T models.Entity](m RepositoryManager, kind models.Kind) entities.Repository[T] {
	return entities.NewDocumentRepository[T](m.Store().Collection(kind.Collection()))
}

// Options selects and configures the backend.
type Options struct {
	// DSN is postgres://..., mongodb://..., mongodb+srv://... or memory://.
	DSN string
	// Database names the MongoDB database.
	Database string
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects to the backend named by the DSN scheme. PostgreSQL
// migrations and MongoDB indexes are applied before returning.
func Open(ctx context.Context, opts Options) (*Manager, error) {
	scheme, _, ok := strings.Cut(opts.DSN, "://")
	if !ok {
		return nil, fmt.Errorf("database dsn %q has no scheme", opts.DSN)
	}

	switch scheme {
	case "memory":
		return NewManager(docstore.NewMemoryStore()), nil

	case "postgres", "postgresql":
		db, err := sqlOpen("pgx", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		return NewManager(docstore.NewPostgresStore(db)), nil

	case "mongodb", "mongodb+srv":
		store, err := docstore.NewMongoStore(ctx, docstore.MongoConfig{URI: opts.DSN, DB: opts.Database})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx, models.AllCollections(), models.CollectionArchives); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return NewManager(store), nil

	default:
		return nil, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}
