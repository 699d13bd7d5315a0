package assistantService

import (
	"ShowroomGolang/internal/entity"
	"ShowroomGolang/pkg/nlu"
	"context"
	"fmt"
	"strings"
)

func (s *assistantService) dispatchAddVehicle(ctx context.Context, userID string, cmd *nlu.RecognizedCommand) (dispatchOutcome, error) {
	return dispatchOutcome{
		reply:      msgAddVehicle,
		affordance: &entity.Affordance{Kind: entity.AffordanceAdd},
		event:      "open_add_form",
	}, nil
}

// dispatchSearchVehicle matches by substring on manufacturer, category, or
// chassis number. Matching is case-sensitive and an empty term matches every
// vehicle, since every string contains the empty string.
func (s *assistantService) dispatchSearchVehicle(ctx context.Context, userID string, cmd *nlu.RecognizedCommand) (dispatchOutcome, error) {
	term := cmd.Entities[nlu.EntitySearchTerm]

	vehicles, err := s.inventory.Snapshot(ctx, userID)
	if err != nil {
		return dispatchOutcome{}, err
	}

	var matches []entity.Vehicle
	for _, v := range vehicles {
		if strings.Contains(v.Manufacturer, term) ||
			strings.Contains(v.Category, term) ||
			strings.Contains(v.ChassisNumber, term) {
			matches = append(matches, v)
		}
	}

	// Search carries no affordance; the reply is the count and the results
	// travel on the host event.
	return dispatchOutcome{
		reply: searchReply(len(matches), term),
		event: "show_search_results",
		eventPayload: map[string]interface{}{
			"searchTerm": term,
			"vehicles":   matches,
		},
	}, nil
}

func (s *assistantService) dispatchSellVehicle(ctx context.Context, userID string, cmd *nlu.RecognizedCommand) (dispatchOutcome, error) {
	chassis := cmd.Entities[nlu.EntityChassisNumber]

	vehicle, found, err := s.findByChassis(ctx, userID, chassis)
	if err != nil {
		return dispatchOutcome{}, err
	}
	if !found {
		return dispatchOutcome{reply: fmt.Sprintf(msgSellNotFound, chassis)}, nil
	}

	return dispatchOutcome{
		reply: fmt.Sprintf(msgSellFound, chassis),
		affordance: &entity.Affordance{
			Kind: entity.AffordanceSell,
			Payload: map[string]interface{}{
				"vehicleId":     vehicle.ID,
				"chassisNumber": vehicle.ChassisNumber,
			},
		},
		event: "open_sell_form",
		eventPayload: map[string]interface{}{
			"vehicleId":     vehicle.ID,
			"chassisNumber": vehicle.ChassisNumber,
		},
	}, nil
}

func (s *assistantService) dispatchDeleteVehicle(ctx context.Context, userID string, cmd *nlu.RecognizedCommand) (dispatchOutcome, error) {
	chassis := cmd.Entities[nlu.EntityChassisNumber]

	vehicle, found, err := s.findByChassis(ctx, userID, chassis)
	if err != nil {
		return dispatchOutcome{}, err
	}
	if !found {
		return dispatchOutcome{reply: fmt.Sprintf(msgDeleteNotFound, chassis)}, nil
	}

	return dispatchOutcome{
		reply: fmt.Sprintf(msgDeleteFound, chassis),
		affordance: &entity.Affordance{
			Kind: entity.AffordanceDelete,
			Payload: map[string]interface{}{
				"vehicleId":     vehicle.ID,
				"chassisNumber": vehicle.ChassisNumber,
			},
		},
		event: "open_delete_form",
		eventPayload: map[string]interface{}{
			"vehicleId":     vehicle.ID,
			"chassisNumber": vehicle.ChassisNumber,
		},
	}, nil
}

func (s *assistantService) dispatchExtractChassis(ctx context.Context, userID string, cmd *nlu.RecognizedCommand) (dispatchOutcome, error) {
	return dispatchOutcome{
		reply:      msgExtractChassis,
		affordance: &entity.Affordance{Kind: entity.AffordanceExtractChassis},
		event:      "open_chassis_capture",
	}, nil
}

func (s *assistantService) dispatchGetStats(ctx context.Context, userID string, cmd *nlu.RecognizedCommand) (dispatchOutcome, error) {
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return dispatchOutcome{}, err
	}

	return dispatchOutcome{
		reply: fmt.Sprintf(msgStats, stats.Total, stats.Available, stats.Sold),
	}, nil
}

// dispatchUnknown handles any action outside the closed set. The resolver's
// free-form content, when present, reads better than a canned line.
func (s *assistantService) dispatchUnknown(ctx context.Context, userID string, cmd *nlu.RecognizedCommand) (dispatchOutcome, error) {
	if cmd.Content != "" {
		return dispatchOutcome{reply: cmd.Content}, nil
	}
	return dispatchOutcome{reply: msgGenericDone}, nil
}

// findByChassis locates a vehicle by exact, case-sensitive chassis equality.
// Near-misses on case or length are not matches.
func (s *assistantService) findByChassis(ctx context.Context, userID, chassis string) (entity.Vehicle, bool, error) {
	if chassis == "" {
		return entity.Vehicle{}, false, nil
	}

	vehicles, err := s.inventory.Snapshot(ctx, userID)
	if err != nil {
		return entity.Vehicle{}, false, err
	}

	for _, v := range vehicles {
		if v.ChassisNumber == chassis {
			return v, true, nil
		}
	}
	return entity.Vehicle{}, false, nil
}
