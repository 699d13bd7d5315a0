package inventoryService

import (
	"ShowroomGolang/internal/api/inventory"
	"ShowroomGolang/internal/entity"
	contextPkg "ShowroomGolang/pkg/context"
	redisPkg "ShowroomGolang/pkg/redis"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *inventoryService) ListVehicles(ctx context.Context) ([]entity.Vehicle, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.inventoryRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	return repo.Vehicles.GetAllVehicles(ctx)
}

func (s *inventoryService) CreateVehicle(ctx context.Context, req inventory.CreateVehicleRequest) (entity.Vehicle, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if !entity.IsValidVehicleStatus(req.Status) {
		return entity.Vehicle{}, inventory.ErrInvalidStatus
	}

	repo, err := s.inventoryRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.Vehicle{}, err
	}
	defer repo.Rollback()

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return entity.Vehicle{}, err
	}

	now := time.Now()
	vehicle := entity.Vehicle{
		ID:            id,
		Manufacturer:  req.Manufacturer,
		Category:      req.Category,
		ChassisNumber: req.ChassisNumber,
		Status:        req.Status,
		Year:          req.Year,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := repo.Vehicles.CreateVehicle(ctx, vehicle); err != nil {
		return entity.Vehicle{}, err
	}

	if err := repo.Commit(); err != nil {
		return entity.Vehicle{}, err
	}

	return vehicle, nil
}

func (s *inventoryService) UpdateVehicleStatus(ctx context.Context, id, status string) error {
	requestID := contextPkg.GetRequestID(ctx)

	if !entity.IsValidVehicleStatus(status) {
		return inventory.ErrInvalidStatus
	}

	repo, err := s.inventoryRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return err
	}
	defer repo.Rollback()

	if err := repo.Vehicles.UpdateVehicleStatus(ctx, id, status); err != nil {
		return err
	}

	return repo.Commit()
}

func (s *inventoryService) DeleteVehicle(ctx context.Context, id string) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.inventoryRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return err
	}
	defer repo.Rollback()

	if err := repo.Vehicles.DeleteVehicle(ctx, id); err != nil {
		return err
	}

	return repo.Commit()
}

// RefreshSnapshot loads the full collection and caches it under the user's
// assistant session key. Called when the assistant dialog opens.
func (s *inventoryService) RefreshSnapshot(ctx context.Context, userID string) ([]entity.Vehicle, error) {
	requestID := contextPkg.GetRequestID(ctx)

	vehicles, err := s.ListVehicles(ctx)
	if err != nil {
		return nil, inventory.ErrSnapshotUnavailable
	}

	payload, err := json.Marshal(vehicles)
	if err != nil {
		return nil, err
	}

	if err := s.redis.SetSnapshot(ctx, userID, payload, s.snapshotTTL); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to cache inventory snapshot, dispatch will fall back to direct reads")
	}

	return vehicles, nil
}

// Snapshot returns whatever the cache held when the command resolved. The
// dispatcher accepts staleness between refreshes; mutation always goes
// through the inventory endpoints, never through the assistant.
func (s *inventoryService) Snapshot(ctx context.Context, userID string) ([]entity.Vehicle, error) {
	payload, err := s.redis.GetSnapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, redisPkg.ErrSnapshotNotFound) {
			return s.RefreshSnapshot(ctx, userID)
		}
		return nil, err
	}

	var vehicles []entity.Vehicle
	if err := json.Unmarshal(payload, &vehicles); err != nil {
		return s.RefreshSnapshot(ctx, userID)
	}

	return vehicles, nil
}

func (s *inventoryService) DropSnapshot(ctx context.Context, userID string) error {
	return s.redis.DeleteSnapshot(ctx, userID)
}
