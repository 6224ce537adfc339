// FilePath: internal/registry/registry.go
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	nuts "github.com/vaudience/go-nuts"

	"github.com/skyfield/archivehub/internal/config"
	"github.com/skyfield/archivehub/internal/errors"
	"github.com/skyfield/archivehub/internal/models"
)

// Registry provides read-only access to resource definitions. The storage
// engine never mutates resources; they are owned by an external
// configuration system.
type Registry interface {
	// ResourceByID returns the resource with the given number, or an
	// unknown-resource error when there is none.
	ResourceByID(ctx context.Context, id int) (*models.Resource, error)
	// ListAll returns every known resource, ordered by id.
	ListAll(ctx context.Context) ([]*models.Resource, error)
	Close() error
}

// PostgresRegistry reads resource definitions from the configuration
// database.
type PostgresRegistry struct {
	db *sqlx.DB
}

// NewPostgresRegistry connects to the configuration database.
func NewPostgresRegistry(cfg config.RegistryConfig) (*PostgresRegistry, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to registry database: %w", err)
	}

	nuts.L.Infof("[Registry] Connected to %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return &PostgresRegistry{db: db}, nil
}

const resourceColumns = `id, name, storage_folder, time_zone, kind, format,
	span, span_start_hour, span_stop_hour, sample_interval`

func (r *PostgresRegistry) ResourceByID(ctx context.Context, id int) (*models.Resource, error) {
	var res models.Resource
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	if err := r.db.GetContext(ctx, &res, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewUnknownResourceError(fmt.Sprintf("no resource with id %d", id), err)
		}
		return nil, errors.NewInternalError("failed to load resource", err)
	}
	return &res, nil
}

func (r *PostgresRegistry) ListAll(ctx context.Context) ([]*models.Resource, error) {
	var resources []*models.Resource
	query := `SELECT ` + resourceColumns + ` FROM resources ORDER BY id`
	if err := r.db.SelectContext(ctx, &resources, query); err != nil {
		return nil, errors.NewInternalError("failed to list resources", err)
	}
	return resources, nil
}

func (r *PostgresRegistry) Close() error {
	return r.db.Close()
}

// StaticRegistry serves resources from a fixed list, typically the
// `resources` block of the config file. Used when no registry database is
// configured, and by tests.
type StaticRegistry struct {
	byID map[int]*models.Resource
}

// NewStaticRegistry builds a registry from a resource list.
func NewStaticRegistry(resources []models.Resource) *StaticRegistry {
	byID := make(map[int]*models.Resource, len(resources))
	for i := range resources {
		res := resources[i]
		byID[res.ID] = &res
	}
	return &StaticRegistry{byID: byID}
}

func (r *StaticRegistry) ResourceByID(ctx context.Context, id int) (*models.Resource, error) {
	res, ok := r.byID[id]
	if !ok {
		return nil, errors.NewUnknownResourceError(fmt.Sprintf("no resource with id %d", id), nil)
	}
	return res, nil
}

func (r *StaticRegistry) ListAll(ctx context.Context) ([]*models.Resource, error) {
	resources := make([]*models.Resource, 0, len(r.byID))
	for _, res := range r.byID {
		resources = append(resources, res)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].ID < resources[j].ID })
	return resources, nil
}

func (r *StaticRegistry) Close() error {
	return nil
}
