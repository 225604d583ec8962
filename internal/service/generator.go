package service

import (
	"context"
	"fmt"

	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/shenikar/emergency_dispatch_system/internal/webhook"
	"github.com/sirupsen/logrus"
)

// incidentProfile задаёт диапазоны требуемых юнитов для типа инцидента (включительно)
type incidentProfile struct {
	Type    string
	FireMin int
	FireMax int
	AmbMin  int
	AmbMax  int
}

var incidentProfiles = []incidentProfile{
	{Type: models.IncidentTypeFire, FireMin: 1, FireMax: 3, AmbMin: 0, AmbMax: 1},
	{Type: models.IncidentTypeMedical, FireMin: 0, FireMax: 1, AmbMin: 1, AmbMax: 2},
	{Type: models.IncidentTypeTraffic, FireMin: 0, FireMax: 1, AmbMin: 1, AmbMax: 2},
}

// SpawnIncident создаёт новый случайный инцидент и сохраняет его со статусом new
func (s *simulationService) SpawnIncident(ctx context.Context) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "simulation",
		"method":  "SpawnIncident",
	})

	var incident *models.Incident
	err := s.store.Atomically(ctx, func(tx WorldStore) error {
		stations, err := tx.ListStations(ctx)
		if err != nil {
			return err
		}
		hospitals, err := tx.ListHospitals(ctx)
		if err != nil {
			return err
		}
		incident = s.rollIncident(stations, hospitals)
		return tx.SaveIncident(ctx, incident)
	})
	if err != nil {
		log.WithError(err).Error("Failed to spawn incident")
		return nil, fmt.Errorf("service: could not spawn incident: %w", err)
	}

	s.publishIncidentEvent(ctx, webhook.EventIncidentSpawned, incident)
	log.WithFields(logrus.Fields{
		"incident_id": incident.ID,
		"type":        incident.Type,
		"severity":    incident.Severity,
		"city":        incident.City,
	}).Info("Incident spawned")
	return incident, nil
}

// rollIncident разыгрывает тип, серьёзность, требования, координаты и награды
func (s *simulationService) rollIncident(stations []*models.Station, hospitals []*models.Hospital) *models.Incident {
	now := s.now()
	profile := incidentProfiles[s.rng.Intn(len(incidentProfiles))]
	severity := randBetween(s.rng, 1, 5)

	city := s.rollCity(stations)
	x, y := s.rollLocation(city, stations, hospitals)

	return &models.Incident{
		Type:            profile.Type,
		Severity:        severity,
		City:            city,
		Status:          models.IncidentStatusNew,
		NeedFire:        randBetween(s.rng, profile.FireMin, profile.FireMax),
		NeedAmbulance:   randBetween(s.rng, profile.AmbMin, profile.AmbMax),
		CreatedAt:       now,
		DeadlineSeconds: incidentDeadlines[s.rng.Intn(len(incidentDeadlines))],
		X:               x,
		Y:               y,
		XPReward:        8*severity + s.rng.Intn(7),
		CashReward:      150*severity + s.rng.Intn(101),
	}
}

// rollCity выбирает город из известных станций либо из запасного списка
func (s *simulationService) rollCity(stations []*models.Station) string {
	cities := make([]string, 0, len(stations))
	seen := make(map[string]bool)
	for _, station := range stations {
		if !seen[station.City] {
			seen[station.City] = true
			cities = append(cities, station.City)
		}
	}
	if len(cities) == 0 {
		cities = citiesFallback
	}
	return cities[s.rng.Intn(len(cities))]
}

// rollLocation привязывает координаты к станции или больнице города
// с разбросом до ±3 по каждой оси и прижатием к границам сетки
func (s *simulationService) rollLocation(city string, stations []*models.Station, hospitals []*models.Hospital) (int, int) {
	type anchor struct{ x, y int }
	anchors := make([]anchor, 0, len(stations)+len(hospitals))
	for _, station := range stations {
		if station.City == city {
			anchors = append(anchors, anchor{station.X, station.Y})
		}
	}
	for _, hospital := range hospitals {
		if hospital.City == city {
			anchors = append(anchors, anchor{hospital.X, hospital.Y})
		}
	}

	var baseX, baseY int
	if len(anchors) > 0 {
		picked := anchors[s.rng.Intn(len(anchors))]
		baseX, baseY = picked.x, picked.y
	} else {
		// Город из запасного списка: станций в нём нет, берём случайную точку
		baseX = s.rng.Intn(models.GridSize + 1)
		baseY = s.rng.Intn(models.GridSize + 1)
	}

	x := clampGrid(baseX + randBetween(s.rng, -3, 3))
	y := clampGrid(baseY + randBetween(s.rng, -3, 3))
	return x, y
}
