package inventory

type CreateVehicleRequest struct {
	Manufacturer  string `json:"manufacturer" validate:"required,min=1,max=100"`
	Category      string `json:"category" validate:"required,min=1,max=100"`
	ChassisNumber string `json:"chassis_number" validate:"omitempty,max=50"`
	Status        string `json:"status" validate:"required"`
	Year          int    `json:"year" validate:"omitempty,min=1950,max=2100"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type VehicleListResponse struct {
	Vehicles interface{} `json:"vehicles"`
	Total    int         `json:"total"`
}
