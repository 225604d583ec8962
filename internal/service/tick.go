package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/shenikar/emergency_dispatch_system/internal/webhook"
	"github.com/sirupsen/logrus"
)

// Tick продвигает все конечные автоматы мира за один атомарный проход.
// Порядок фаз фиксирован и значим: восстановление юнитов -> продвижение
// выездов -> прогрессия инцидентов -> усталость персонала.
// Аномалия отдельной сущности (висячая ссылка) чистится локально и проход
// продолжается; фатальная ошибка хранилища откатывает весь тик.
func (s *simulationService) Tick(ctx context.Context) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "simulation",
		"method":  "Tick",
	})

	var settled []*models.Incident
	err := s.store.Atomically(ctx, func(tx WorldStore) error {
		now := s.now()
		if err := s.recoverUnits(ctx, tx, now); err != nil {
			return err
		}
		if err := s.advanceDispatches(ctx, tx, now); err != nil {
			return err
		}
		done, err := s.progressIncidents(ctx, tx, now)
		if err != nil {
			return err
		}
		settled = done
		return s.updatePersonnel(ctx, tx, now)
	})
	if err != nil {
		log.WithError(err).Error("Tick aborted")
		return fmt.Errorf("service: tick failed: %w", err)
	}

	for _, incident := range settled {
		eventType := webhook.EventIncidentResolved
		if incident.Status == models.IncidentStatusFailed {
			eventType = webhook.EventIncidentFailed
		}
		s.publishIncidentEvent(ctx, eventType, incident)
	}
	return nil
}

// recoverUnits переводит сломанные юниты в обслуживание, а обслуженные -
// обратно в строй с частичным восстановлением состояния и возвратом на базу
func (s *simulationService) recoverUnits(ctx context.Context, tx WorldStore, now time.Time) error {
	units, err := tx.ListUnitsByStatus(ctx, models.UnitStatusBroken, models.UnitStatusMaintenance)
	if err != nil {
		return err
	}
	for _, unit := range units {
		if unit.DownUntil != nil && unit.DownUntil.After(now) {
			continue
		}
		switch unit.Status {
		case models.UnitStatusBroken:
			down := now.Add(MaintenanceDowntime)
			unit.Status = models.UnitStatusMaintenance
			unit.DownUntil = &down
		case models.UnitStatusMaintenance:
			unit.Status = models.UnitStatusAvailable
			unit.DownUntil = nil
			unit.Condition += conditionRepairStep
			if unit.Condition > 1.0 {
				unit.Condition = 1.0
			}
			unit.X = unit.HomeX
			unit.Y = unit.HomeY
		}
		if err := tx.SaveUnit(ctx, unit); err != nil {
			return err
		}
	}
	return nil
}

// advanceDispatches продвигает каждый активный выезд по цепочке
// enroute -> at_scene -> returning -> available, с шансом поломки при прибытии
func (s *simulationService) advanceDispatches(ctx context.Context, tx WorldStore, now time.Time) error {
	dispatches, err := tx.ListActiveDispatches(ctx)
	if err != nil {
		return err
	}
	for _, dispatch := range dispatches {
		unit, err := tx.GetUnit(ctx, dispatch.UnitID)
		if errors.Is(err, ErrNotFound) {
			if err := s.deactivateOrphan(ctx, tx, dispatch, "unit"); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		incident, err := tx.GetIncident(ctx, dispatch.IncidentID)
		if errors.Is(err, ErrNotFound) {
			if err := s.deactivateOrphan(ctx, tx, dispatch, "incident"); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		switch unit.Status {
		case models.UnitStatusEnroute:
			if dispatch.ArriveAt == nil || now.Before(*dispatch.ArriveAt) {
				continue
			}
			// Шанс поломки растёт по мере износа
			breakdownChance := 0.05 * (1.2 - unit.Condition)
			if s.rng.Float64() < breakdownChance {
				down := now.Add(BreakdownDowntime)
				unit.Status = models.UnitStatusBroken
				unit.DownUntil = &down
				if err := tx.SaveUnit(ctx, unit); err != nil {
					return err
				}
				dispatch.Active = false
				if err := tx.SaveDispatch(ctx, dispatch); err != nil {
					return err
				}
				s.logger.WithFields(logrus.Fields{
					"unit_id":     unit.ID,
					"incident_id": incident.ID,
				}).Warn("Unit broke down on arrival")
				continue
			}
			unit.Status = models.UnitStatusAtScene
			unit.X = incident.X
			unit.Y = incident.Y
			if err := tx.SaveUnit(ctx, unit); err != nil {
				return err
			}
			onScene := time.Duration(OnSceneBaseSeconds+OnScenePerSeverity*incident.Severity) * time.Second
			returnAt := now.Add(onScene)
			dispatch.ReturnAt = &returnAt
			if err := tx.SaveDispatch(ctx, dispatch); err != nil {
				return err
			}
			if incident.Status == models.IncidentStatusResponding {
				if err := s.tryPromote(ctx, tx, incident, now); err != nil {
					return err
				}
			}
		case models.UnitStatusAtScene:
			if dispatch.ReturnAt == nil || now.Before(*dispatch.ReturnAt) {
				continue
			}
			unit.Status = models.UnitStatusReturning
			if err := tx.SaveUnit(ctx, unit); err != nil {
				return err
			}
			travel := time.Duration(dispatch.TravelTimeSeconds) * time.Second
			if travel < MinTravelTime {
				travel = MinTravelTime
			}
			returnAt := now.Add(travel + ReturnBuffer)
			dispatch.ReturnAt = &returnAt
			if err := tx.SaveDispatch(ctx, dispatch); err != nil {
				return err
			}
		case models.UnitStatusReturning:
			if dispatch.ReturnAt == nil || now.Before(*dispatch.ReturnAt) {
				continue
			}
			unit.Status = models.UnitStatusAvailable
			unit.X = unit.HomeX
			unit.Y = unit.HomeY
			if err := tx.SaveUnit(ctx, unit); err != nil {
				return err
			}
			dispatch.Active = false
			if err := tx.SaveDispatch(ctx, dispatch); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *simulationService) deactivateOrphan(ctx context.Context, tx WorldStore, dispatch *models.Dispatch, missing string) error {
	dispatch.Active = false
	if err := tx.SaveDispatch(ctx, dispatch); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"dispatch_id": dispatch.ID,
		"missing":     missing,
	}).Warn("Deactivated orphaned dispatch")
	return nil
}

// tryPromote пересчитывает выполненные требования инцидента и переводит его
// в resolving, когда едущих/работающих юнитов достаточно
func (s *simulationService) tryPromote(ctx context.Context, tx WorldStore, incident *models.Incident, now time.Time) error {
	dispatches, err := tx.ListDispatchesByIncident(ctx, incident.ID, true)
	if err != nil {
		return err
	}
	unitByID := make(map[int64]*models.Unit, len(dispatches))
	for _, dispatch := range dispatches {
		unit, err := tx.GetUnit(ctx, dispatch.UnitID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		unitByID[dispatch.UnitID] = unit
	}

	fire, ambulance := countRespondingUnits(dispatches, unitByID)
	if fire >= incident.NeedFire && ambulance >= incident.NeedAmbulance {
		incident.Status = models.IncidentStatusResolving
		if incident.ResponseStartedAt == nil {
			incident.ResponseStartedAt = &now
		}
		return tx.SaveIncident(ctx, incident)
	}
	return nil
}

// progressIncidents продвигает нетерминальные инциденты: промоутит
// new/responding при достаточном покрытии, валит просроченные и проводит
// расчёт resolving-инцидентов через вместимость ближайшей больницы.
// Статус каждого инцидента проверяется свежим перед каждой веткой, поэтому
// расчёт и дедлайн взаимоисключающи в пределах одного прохода.
func (s *simulationService) progressIncidents(ctx context.Context, tx WorldStore, now time.Time) ([]*models.Incident, error) {
	incidents, err := tx.ListIncidentsByStatus(ctx,
		models.IncidentStatusNew, models.IncidentStatusResponding, models.IncidentStatusResolving)
	if err != nil {
		return nil, err
	}
	hospitals, err := tx.ListHospitals(ctx)
	if err != nil {
		return nil, err
	}
	state, err := tx.GetGameState(ctx)
	if errors.Is(err, ErrNotFound) {
		// Явная инициализация единственной записи агрегата
		state = &models.GameState{ID: models.GameStateID}
	} else if err != nil {
		return nil, err
	}

	var settled []*models.Incident
	ledgerDirty := false
	for _, incident := range incidents {
		switch incident.Status {
		case models.IncidentStatusNew, models.IncidentStatusResponding:
			if err := s.tryPromote(ctx, tx, incident, now); err != nil {
				return nil, err
			}
			if incident.Status == models.IncidentStatusResolving {
				// Промоутнут в этом проходе, дедлайн больше не применяется
				continue
			}
			age := now.Sub(incident.CreatedAt)
			if age > time.Duration(incident.DeadlineSeconds)*time.Second {
				incident.Status = models.IncidentStatusFailed
				incident.ResolvedAt = &now
				if err := tx.SaveIncident(ctx, incident); err != nil {
					return nil, err
				}
				state.IncidentsFailed++
				ledgerDirty = true
				settled = append(settled, incident)
				s.logger.WithFields(logrus.Fields{
					"incident_id": incident.ID,
					"deadline_s":  incident.DeadlineSeconds,
				}).Info("Incident failed: deadline exceeded")
			}
		case models.IncidentStatusResolving:
			started := incident.CreatedAt
			if incident.ResponseStartedAt != nil {
				started = *incident.ResponseStartedAt
			}
			required := time.Duration(ResolveTickBaseSeconds+ResolvePerSeverity*incident.Severity) * time.Second
			if now.Sub(started) < required {
				continue
			}
			if err := s.settleIncident(ctx, tx, incident, hospitals, state, now); err != nil {
				return nil, err
			}
			ledgerDirty = true
			settled = append(settled, incident)
		}
	}

	if ledgerDirty {
		if err := tx.SaveGameState(ctx, state); err != nil {
			return nil, err
		}
	}
	return settled, nil
}

// settleIncident финализирует resolving-инцидент: при свободной вместимости
// ближайшей больницы - resolved с начислением наград, иначе failed с частичным
// штрафом. Нехватка мест - не ошибка, а доменный исход.
func (s *simulationService) settleIncident(ctx context.Context, tx WorldStore, incident *models.Incident, hospitals []*models.Hospital, state *models.GameState, now time.Time) error {
	beds := incident.NeedAmbulance
	if beds < 1 {
		beds = 1
	}
	hospital := nearestHospital(hospitals, incident.X, incident.Y)

	if hospital != nil && hospital.Capacity-hospital.Occupied >= beds {
		hospital.Occupied += beds
		if err := tx.SaveHospital(ctx, hospital); err != nil {
			return err
		}
		incident.Status = models.IncidentStatusResolved
		incident.ResolvedAt = &now
		if err := tx.SaveIncident(ctx, incident); err != nil {
			return err
		}
		state.Funds += float64(incident.CashReward)
		state.XP += incident.XPReward
		state.IncidentsResolved++
		s.logger.WithFields(logrus.Fields{
			"incident_id": incident.ID,
			"hospital_id": hospital.ID,
			"cash_reward": incident.CashReward,
		}).Info("Incident resolved")
		return nil
	}

	incident.Status = models.IncidentStatusFailed
	incident.ResolvedAt = &now
	if err := tx.SaveIncident(ctx, incident); err != nil {
		return err
	}
	state.Funds -= 0.2 * float64(incident.CashReward)
	if state.Funds < 0 {
		state.Funds = 0
	}
	state.IncidentsFailed++
	s.logger.WithFields(logrus.Fields{
		"incident_id": incident.ID,
	}).Info("Incident failed: no hospital capacity")
	return nil
}

// updatePersonnel применяет отдых и дельты усталости ко всему персоналу
func (s *simulationService) updatePersonnel(ctx context.Context, tx WorldStore, now time.Time) error {
	personnel, err := tx.ListPersonnel(ctx)
	if err != nil {
		return err
	}
	units, err := tx.ListUnits(ctx)
	if err != nil {
		return err
	}
	unitByID := make(map[int64]*models.Unit, len(units))
	for _, unit := range units {
		unitByID[unit.ID] = unit
	}

	for _, member := range personnel {
		if member.RestUntil != nil && !member.RestUntil.After(now) {
			member.RestUntil = nil
			member.Fatigue -= fatigueRestRecovery
			if member.Fatigue < fatigueRestFloor {
				member.Fatigue = fatigueRestFloor
			}
		}

		onDuty := false
		if member.UnitID != nil {
			if unit := unitByID[*member.UnitID]; unit != nil {
				switch unit.Status {
				case models.UnitStatusEnroute, models.UnitStatusAtScene, models.UnitStatusReturning:
					onDuty = true
				}
			}
		}

		if onDuty {
			applyFatigue(member, float64(randBetween(s.rng, 3, 6)), now)
		} else {
			applyFatigue(member, -float64(randBetween(s.rng, 1, 3)), now)
			if member.Fatigue < fatigueShiftReturn {
				member.OnShift = true
			}
		}

		if err := tx.SavePersonnel(ctx, member); err != nil {
			return err
		}
	}
	return nil
}
