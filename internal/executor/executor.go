// FilePath: internal/executor/executor.go
package executor

import (
	"context"

	nuts "github.com/vaudience/go-nuts"

	"github.com/skyfield/archivehub/internal/daylong"
	"github.com/skyfield/archivehub/internal/errors"
	"github.com/skyfield/archivehub/internal/models"
	"github.com/skyfield/archivehub/internal/registry"
	"github.com/skyfield/archivehub/internal/storage"
)

// Executor dispatches decoded storage commands to the engine and the
// day-long builder. One command in, one response out; every error it
// returns is a *errors.StorageError carrying a wire code.
type Executor struct {
	registry registry.Registry
	engine   *storage.Engine
	builder  *daylong.Builder
}

// New creates an executor over the given registry, engine, and builder.
func New(reg registry.Registry, engine *storage.Engine, builder *daylong.Builder) *Executor {
	return &Executor{registry: reg, engine: engine, builder: builder}
}

// Execute runs one command and returns its response payload: StoreResult
// for the store family, InstanceBatch, DayLongBatches, or FolderList for
// the provide family.
func (e *Executor) Execute(ctx context.Context, cmd *models.StorageCommand) (any, error) {
	switch cmd.Type {
	case models.CommandStore:
		return e.store(ctx, cmd)
	case models.CommandStoreDayLongMovie:
		return e.storeDayLong(ctx, cmd)
	case models.CommandStoreDefaultDay:
		return e.storeDefault(ctx, cmd, true)
	case models.CommandStoreDefaultNight:
		return e.storeDefault(ctx, cmd, false)
	case models.CommandStoreNoDataMP4:
		return e.storeNoData(cmd, models.FormatMP4)
	case models.CommandStoreNoDataAVI:
		return e.storeNoData(cmd, models.FormatAVI)
	case models.CommandProvide:
		return e.provide(ctx, cmd)
	case models.CommandProvideDayLongMovie:
		return e.provideDayLong(ctx, cmd)
	case models.CommandProvideFolderList:
		return e.engine.FolderList()
	default:
		return nil, errors.NewBadFormatError("unknown command type "+string(cmd.Type), nil)
	}
}

func (e *Executor) store(ctx context.Context, cmd *models.StorageCommand) (*models.StoreResult, error) {
	unit := cmd.First
	if unit == nil {
		return nil, errors.NewMissingPayloadError("store command without a data unit", nil)
	}
	resource, err := e.registry.ResourceByID(ctx, unit.ResourceID)
	if err != nil {
		return nil, err
	}
	if err := e.engine.StoreUnit(resource, unit); err != nil {
		return nil, err
	}

	// A freshly stored hour movie extends the rolling day-long movie. The
	// store itself already succeeded, so assembly trouble is reported but
	// does not fail the command.
	if unit.Kind == models.UnitMovie && !resource.IsWeatherStation() {
		if err := e.builder.ExtendForHour(ctx, resource, unit.Start); err != nil {
			nuts.L.Errorf("[Executor] day-long extension failed for resource %d: %v", resource.ID, err)
		}
	}
	return &models.StoreResult{OK: true}, nil
}

func (e *Executor) storeDayLong(ctx context.Context, cmd *models.StorageCommand) (*models.StoreResult, error) {
	if cmd.First == nil {
		return nil, errors.NewMissingPayloadError("day-long store without a data unit", nil)
	}
	resource, err := e.registry.ResourceByID(ctx, cmd.First.ResourceID)
	if err != nil {
		return nil, err
	}
	if err := e.engine.StoreDayLong(resource, cmd.First, cmd.Second); err != nil {
		return nil, err
	}
	return &models.StoreResult{OK: true}, nil
}

func (e *Executor) storeDefault(ctx context.Context, cmd *models.StorageCommand, daytime bool) (*models.StoreResult, error) {
	if cmd.First == nil {
		return nil, errors.NewMissingPayloadError("default movie store without a data unit", nil)
	}
	resource, err := e.registry.ResourceByID(ctx, cmd.First.ResourceID)
	if err != nil {
		return nil, err
	}
	if err := e.engine.StoreDefaultMovie(resource, cmd.First, daytime); err != nil {
		return nil, err
	}
	return &models.StoreResult{OK: true}, nil
}

func (e *Executor) storeNoData(cmd *models.StorageCommand, format models.FileFormat) (*models.StoreResult, error) {
	if err := e.engine.StoreNoData(cmd.First, format); err != nil {
		return nil, err
	}
	return &models.StoreResult{OK: true}, nil
}

func (e *Executor) provide(ctx context.Context, cmd *models.StorageCommand) (*models.InstanceBatch, error) {
	req := cmd.Request
	if req == nil {
		return nil, errors.NewMissingPayloadError("provide command without a request", nil)
	}
	resource, err := e.registry.ResourceByID(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}
	return e.engine.Provide(resource, req)
}

func (e *Executor) provideDayLong(ctx context.Context, cmd *models.StorageCommand) (*models.DayLongBatches, error) {
	req := cmd.Request
	if req == nil {
		return nil, errors.NewMissingPayloadError("day-long provide without a request", nil)
	}
	resource, err := e.registry.ResourceByID(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}
	return e.engine.ProvideDayLong(resource, req.Range)
}
