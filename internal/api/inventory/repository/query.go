package inventoryRepository

const (
	queryCreateVehicle = `
		INSERT INTO vehicles (
			id, manufacturer, category, chassis_number, status, year,
			created_at, updated_at
		) VALUES (
			:id, :manufacturer, :category, :chassis_number, :status, :year,
			:created_at, :updated_at
		)
	`

	queryGetVehicleByID = `
		SELECT
			id, manufacturer, category, chassis_number, status, year,
			created_at, updated_at
		FROM vehicles
		WHERE id = :id
	`

	queryGetAllVehicles = `
		SELECT
			id, manufacturer, category, chassis_number, status, year,
			created_at, updated_at
		FROM vehicles
		ORDER BY created_at DESC
	`

	queryUpdateVehicleStatus = `
		UPDATE vehicles
		SET
			status = :status,
			updated_at = :updated_at
		WHERE id = :id
	`

	queryDeleteVehicle = `
		DELETE FROM vehicles
		WHERE id = :id
	`
)
