package service

import (
	"context"
	"fmt"

	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/sirupsen/logrus"
)

// ResetWorld очищает мир и заново заполняет его стартовым набором:
// станции, больницы, юниты с экипажами и начальный бюджет
func (s *simulationService) ResetWorld(ctx context.Context) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "simulation",
		"method":  "ResetWorld",
	})

	err := s.store.Atomically(ctx, func(tx WorldStore) error {
		if err := tx.Reset(ctx); err != nil {
			return err
		}

		stations := []*models.Station{
			{Name: "Station Randers", City: "Randers", X: 3, Y: 4},
			{Name: "Station Aarhus", City: "Aarhus", X: 7, Y: 6},
		}
		for _, station := range stations {
			if err := tx.SaveStation(ctx, station); err != nil {
				return err
			}
		}

		hospitals := []*models.Hospital{
			{Name: "Randers Hospital", City: "Randers", Capacity: 20, X: 2, Y: 5},
			{Name: "Aarhus Hospital", City: "Aarhus", Capacity: 40, X: 8, Y: 5},
		}
		for _, hospital := range hospitals {
			if err := tx.SaveHospital(ctx, hospital); err != nil {
				return err
			}
		}

		units := []*models.Unit{
			{Kind: models.UnitKindFire, Name: "BR-1", StationID: stations[0].ID, Speed: 1.2},
			{Kind: models.UnitKindFire, Name: "BR-2", StationID: stations[0].ID, Speed: 1.0},
			{Kind: models.UnitKindAmbulance, Name: "AMB-1", StationID: stations[0].ID, Speed: 1.5},
			{Kind: models.UnitKindAmbulance, Name: "AMB-2", StationID: stations[1].ID, Speed: 1.4},
			{Kind: models.UnitKindPolice, Name: "POL-1", StationID: stations[1].ID, Speed: 1.6},
		}
		stationByID := map[int64]*models.Station{
			stations[0].ID: stations[0],
			stations[1].ID: stations[1],
		}
		for _, unit := range units {
			home := stationByID[unit.StationID]
			unit.Status = models.UnitStatusAvailable
			unit.Condition = 1.0
			unit.HomeX, unit.HomeY = home.X, home.Y
			unit.X, unit.Y = home.X, home.Y
			if err := tx.SaveUnit(ctx, unit); err != nil {
				return err
			}
		}

		crews := []struct {
			name  string
			role  string
			skill int
			unit  int
		}{
			{"Eva", models.RoleDriver, 2, 0},
			{"Nikolaj", models.RoleFirefighter, 3, 0},
			{"Sara", models.RoleFirefighter, 2, 1},
			{"Mikkel", models.RoleDriver, 2, 1},
			{"Ida", models.RoleParamedic, 3, 2},
			{"Jonas", models.RoleDriver, 2, 2},
			{"Lene", models.RoleParamedic, 3, 3},
			{"Thomas", models.RoleDriver, 2, 3},
		}
		for _, crew := range crews {
			unitID := units[crew.unit].ID
			person := &models.Personnel{
				Name:    crew.name,
				Role:    crew.role,
				Skill:   crew.skill,
				OnShift: true,
				UnitID:  &unitID,
			}
			if err := tx.SavePersonnel(ctx, person); err != nil {
				return err
			}
		}

		return tx.SaveGameState(ctx, &models.GameState{
			ID:    models.GameStateID,
			Funds: 2000,
		})
	})
	if err != nil {
		log.WithError(err).Error("Failed to reset world")
		return fmt.Errorf("service: could not reset world: %w", err)
	}

	log.Info("World reseeded")
	return nil
}
