package inventory

import "ShowroomGolang/pkg/response"

var (
	ErrVehicleNotFound     = response.NewError(404, "vehicle not found")
	ErrInvalidStatus       = response.NewError(400, "invalid vehicle status")
	ErrDuplicateChassis    = response.NewError(409, "chassis number already exists")
	ErrSnapshotUnavailable = response.NewError(500, "failed to load inventory snapshot")
)
