package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/sirupsen/logrus"
)

// Dispatch назначает юнит с экипажем на инцидент. Единственная точка допуска
// в системе: проверки и переходы выполняются в одной атомарной секции, чтобы
// два конкурентных вызова не могли занять один и тот же юнит.
// Возвращает false без мутаций, если какая-либо предпроверка не прошла.
func (s *simulationService) Dispatch(ctx context.Context, incidentID, unitID int64) (bool, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "simulation",
		"method":      "Dispatch",
		"incident_id": incidentID,
		"unit_id":     unitID,
	})

	dispatched := false
	err := s.store.Atomically(ctx, func(tx WorldStore) error {
		now := s.now()

		incident, err := tx.GetIncident(ctx, incidentID)
		if errors.Is(err, ErrNotFound) {
			log.Warn("Dispatch rejected: incident does not exist")
			return nil
		}
		if err != nil {
			return err
		}
		unit, err := tx.GetUnit(ctx, unitID)
		if errors.Is(err, ErrNotFound) {
			log.Warn("Dispatch rejected: unit does not exist")
			return nil
		}
		if err != nil {
			return err
		}

		if incident.Terminal() {
			log.WithField("status", incident.Status).Warn("Dispatch rejected: incident already settled")
			return nil
		}
		if unit.Status != models.UnitStatusAvailable {
			log.WithField("status", unit.Status).Warn("Dispatch rejected: unit is not available")
			return nil
		}
		if unit.DownUntil != nil && unit.DownUntil.After(now) {
			log.Warn("Dispatch rejected: unit is under breakdown cooldown")
			return nil
		}

		crew, err := tx.ListPersonnelByUnit(ctx, unitID)
		if err != nil {
			return err
		}
		if len(crew) == 0 {
			log.Warn("Dispatch rejected: unit has no crew")
			return nil
		}
		if !crewCoversRoles(crew, unit.Kind, now) {
			log.Warn("Dispatch rejected: crew does not cover required roles")
			return nil
		}

		travel := travelTime(unit, incident)
		arrive := now.Add(travel)

		unit.Status = models.UnitStatusEnroute
		unit.DownUntil = nil
		// Износ от выезда
		unit.Condition -= randFloatBetween(s.rng, 0.02, 0.08)
		if unit.Condition < minUnitCondition {
			unit.Condition = minUnitCondition
		}
		if err := tx.SaveUnit(ctx, unit); err != nil {
			return err
		}

		for _, member := range crew {
			member.OnShift = true
			member.RestUntil = nil
			applyFatigue(member, float64(randBetween(s.rng, 2, 5)), now)
			if err := tx.SavePersonnel(ctx, member); err != nil {
				return err
			}
		}

		dispatch := &models.Dispatch{
			IncidentID:        incident.ID,
			UnitID:            unit.ID,
			AssignedAt:        now,
			ArriveAt:          &arrive,
			TravelTimeSeconds: int(travel / time.Second),
			Active:            true,
		}
		if err := tx.SaveDispatch(ctx, dispatch); err != nil {
			return err
		}

		if incident.Status == models.IncidentStatusNew {
			incident.Status = models.IncidentStatusResponding
			incident.ResponseStartedAt = &now
			if err := tx.SaveIncident(ctx, incident); err != nil {
				return err
			}
		}

		dispatched = true
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to dispatch unit")
		return false, fmt.Errorf("service: could not dispatch unit: %w", err)
	}

	if dispatched {
		log.Info("Unit dispatched")
	}
	return dispatched, nil
}

// requiredRoles возвращает роли, обязательные для юнита данного вида:
// водитель всегда, пожарный для пожарных машин, фельдшер для скорых
func requiredRoles(kind string) []string {
	roles := []string{models.RoleDriver}
	switch kind {
	case models.UnitKindFire:
		roles = append(roles, models.RoleFirefighter)
	case models.UnitKindAmbulance:
		roles = append(roles, models.RoleParamedic)
	}
	return roles
}

// crewCoversRoles проверяет, что доступные члены экипажа (усталость ниже предела,
// без активного отдыха) закрывают все обязательные роли
func crewCoversRoles(crew []*models.Personnel, kind string, now time.Time) bool {
	available := make(map[string]bool, len(crew))
	for _, member := range crew {
		if member.Fatigue >= fatigueDispatchLimit {
			continue
		}
		if member.RestUntil != nil && member.RestUntil.After(now) {
			continue
		}
		available[member.Role] = true
	}
	for _, role := range requiredRoles(kind) {
		if !available[role] {
			return false
		}
	}
	return true
}

// travelTime выводит время в пути из манхэттенского расстояния и скорости юнита
func travelTime(unit *models.Unit, incident *models.Incident) time.Duration {
	distance := manhattan(unit.X, unit.Y, incident.X, incident.Y)
	speed := unit.Speed
	if speed < 0.5 {
		speed = 0.5
	}
	travel := time.Duration(float64(distance) / speed * TravelFactor * float64(time.Second))
	if travel < MinTravelTime {
		travel = MinTravelTime
	}
	return travel
}
