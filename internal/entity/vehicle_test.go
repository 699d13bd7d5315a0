package entity

import "testing"

func TestIsValidVehicleStatus(t *testing.T) {
	t.Parallel()

	valid := []string{
		StatusAvailable,
		StatusInTransit,
		StatusInMaintenance,
		StatusReserved,
		StatusSold,
	}
	for _, status := range valid {
		if !IsValidVehicleStatus(status) {
			t.Errorf("IsValidVehicleStatus(%q) = false, want true", status)
		}
	}

	invalid := []string{"", "available", "sold", "متوفرة", "مباعة"}
	for _, status := range invalid {
		if IsValidVehicleStatus(status) {
			t.Errorf("IsValidVehicleStatus(%q) = true, want false", status)
		}
	}
}
