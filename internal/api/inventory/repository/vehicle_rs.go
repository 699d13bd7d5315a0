package inventoryRepository

import (
	"ShowroomGolang/internal/api/inventory"
	"ShowroomGolang/internal/entity"
	contextPkg "ShowroomGolang/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type VehicleDB struct {
	ID            sql.NullString `db:"id"`
	Manufacturer  sql.NullString `db:"manufacturer"`
	Category      sql.NullString `db:"category"`
	ChassisNumber sql.NullString `db:"chassis_number"`
	Status        sql.NullString `db:"status"`
	Year          sql.NullInt64  `db:"year"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r *vehicleRepository) CreateVehicle(ctx context.Context, vehicle entity.Vehicle) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":             vehicle.ID,
		"manufacturer":   vehicle.Manufacturer,
		"category":       vehicle.Category,
		"chassis_number": vehicle.ChassisNumber,
		"status":         vehicle.Status,
		"year":           vehicle.Year,
		"created_at":     vehicle.CreatedAt,
		"updated_at":     vehicle.UpdatedAt,
	}

	query, args, err := sqlx.Named(queryCreateVehicle, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateVehicle")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return inventory.ErrDuplicateChassis
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating vehicle")
		return err
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *vehicleRepository) GetVehicleByID(ctx context.Context, id string) (entity.Vehicle, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var vehicleDB VehicleDB

	query, args, err := sqlx.Named(queryGetVehicleByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetVehicleByID named query preparation err")
		return entity.Vehicle{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&vehicleDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Vehicle{}, inventory.ErrVehicleNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetVehicleByID execution err")
		return entity.Vehicle{}, err
	}

	return r.makeVehicle(vehicleDB), nil
}

func (r *vehicleRepository) GetAllVehicles(ctx context.Context) ([]entity.Vehicle, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var vehiclesDB []VehicleDB

	query := r.q.Rebind(queryGetAllVehicles)
	if err := r.q.SelectContext(ctx, &vehiclesDB, query); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAllVehicles execution err")
		return nil, err
	}

	vehicles := make([]entity.Vehicle, 0, len(vehiclesDB))
	for _, v := range vehiclesDB {
		vehicles = append(vehicles, r.makeVehicle(v))
	}

	return vehicles, nil
}

func (r *vehicleRepository) UpdateVehicleStatus(ctx context.Context, id, status string) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":         id,
		"status":     status,
		"updated_at": time.Now(),
	}

	query, args, err := sqlx.Named(queryUpdateVehicleStatus, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateVehicleStatus named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateVehicleStatus execution err")
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return inventory.ErrVehicleNotFound
	}

	return nil
}

func (r *vehicleRepository) DeleteVehicle(ctx context.Context, id string) error {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryDeleteVehicle, map[string]interface{}{"id": id})
	if err != nil {
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteVehicle execution err")
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return inventory.ErrVehicleNotFound
	}

	return nil
}

func (r *vehicleRepository) makeVehicle(v VehicleDB) entity.Vehicle {
	return entity.Vehicle{
		ID:            v.ID.String,
		Manufacturer:  v.Manufacturer.String,
		Category:      v.Category.String,
		ChassisNumber: v.ChassisNumber.String,
		Status:        v.Status.String,
		Year:          int(v.Year.Int64),
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}
