package entity

import "time"

// Vehicle statuses use the Arabic vocabulary the dealership UI displays.
const (
	StatusAvailable     = "متوفر"
	StatusInTransit     = "في الطريق"
	StatusInMaintenance = "في الصيانة"
	StatusReserved      = "محجوز"
	StatusSold          = "مباع"
)

type Vehicle struct {
	ID            string    `json:"id"`
	Manufacturer  string    `json:"manufacturer"`
	Category      string    `json:"category"`
	ChassisNumber string    `json:"chassis_number,omitempty"`
	Status        string    `json:"status"`
	Year          int       `json:"year"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

var vehicleStatuses = map[string]bool{
	StatusAvailable:     true,
	StatusInTransit:     true,
	StatusInMaintenance: true,
	StatusReserved:      true,
	StatusSold:          true,
}

func IsValidVehicleStatus(status string) bool {
	return vehicleStatuses[status]
}
