package inventoryService

import (
	"ShowroomGolang/internal/api/inventory"
	inventoryRepository "ShowroomGolang/internal/api/inventory/repository"
	"ShowroomGolang/internal/entity"
	redisPkg "ShowroomGolang/pkg/redis"
	"ShowroomGolang/pkg/utils"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type IInventoryService interface {
	ListVehicles(ctx context.Context) ([]entity.Vehicle, error)
	CreateVehicle(ctx context.Context, req inventory.CreateVehicleRequest) (entity.Vehicle, error)
	UpdateVehicleStatus(ctx context.Context, id, status string) error
	DeleteVehicle(ctx context.Context, id string) error

	// Snapshot support for the assistant: the cached collection is scoped
	// to an open assistant session and read-only to the assistant core.
	RefreshSnapshot(ctx context.Context, userID string) ([]entity.Vehicle, error)
	Snapshot(ctx context.Context, userID string) ([]entity.Vehicle, error)
	DropSnapshot(ctx context.Context, userID string) error
}

type inventoryService struct {
	log           *logrus.Logger
	inventoryRepo inventoryRepository.Repository
	redis         redisPkg.IRedis
	utils         utils.IUtils
	snapshotTTL   time.Duration
}

func NewInventoryService(
	log *logrus.Logger,
	inventoryRepo inventoryRepository.Repository,
	redis redisPkg.IRedis,
	utils utils.IUtils,
) IInventoryService {
	return &inventoryService{
		log:           log,
		inventoryRepo: inventoryRepo,
		redis:         redis,
		utils:         utils,
		snapshotTTL:   30 * time.Minute,
	}
}
