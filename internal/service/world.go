package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/shenikar/emergency_dispatch_system/internal/config"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/shenikar/emergency_dispatch_system/internal/webhook"
	"github.com/sirupsen/logrus"
)

// ErrNotFound возвращается хранилищем, когда сущность с указанным id не существует
var ErrNotFound = errors.New("entity not found")

// Константы симуляции. Фиксированы и не настраиваются через окружение.
const (
	MinTravelTime = 45 * time.Second
	TravelFactor  = 40.0
	ReturnBuffer  = 20 * time.Second

	// Базовое время работы на месте и ликвидации: секунды + добавка за серьёзность
	OnSceneBaseSeconds     = 90
	OnScenePerSeverity     = 30
	ResolveTickBaseSeconds = 90
	ResolvePerSeverity     = 40

	BreakdownDowntime   = 15 * time.Minute
	MaintenanceDowntime = 10 * time.Minute
	RestDuration        = 2 * time.Hour

	minUnitCondition     = 0.1
	conditionRepairStep  = 0.25
	fatigueRestThreshold = 95.0
	fatigueDispatchLimit = 98.0
	fatigueShiftReturn   = 70.0
	fatigueRestRecovery  = 20.0
	fatigueRestFloor     = 10.0
)

// incidentDeadlines - набор дедлайнов, из которого выбирается срок инцидента
var incidentDeadlines = []int{240, 300, 360}

// citiesFallback используется, когда в мире ещё нет ни одной станции
var citiesFallback = []string{"Randers", "Aarhus", "Viborg", "Silkeborg", "Aalborg"}

// WorldStore определяет контракт хранилища мира. Atomically выполняет fn как одну
// атомарную единицу работы: либо все её чтения-записи видны вместе, либо никакие.
type WorldStore interface {
	Atomically(ctx context.Context, fn func(WorldStore) error) error

	GetUnit(ctx context.Context, id int64) (*models.Unit, error)
	GetIncident(ctx context.Context, id int64) (*models.Incident, error)
	GetHospital(ctx context.Context, id int64) (*models.Hospital, error)
	GetDispatch(ctx context.Context, id int64) (*models.Dispatch, error)
	GetPersonnel(ctx context.Context, id int64) (*models.Personnel, error)
	GetGameState(ctx context.Context) (*models.GameState, error)

	ListStations(ctx context.Context) ([]*models.Station, error)
	ListHospitals(ctx context.Context) ([]*models.Hospital, error)
	ListUnits(ctx context.Context) ([]*models.Unit, error)
	ListUnitsByStatus(ctx context.Context, statuses ...string) ([]*models.Unit, error)
	ListIncidents(ctx context.Context, page, pageSize int) ([]*models.Incident, error)
	ListIncidentsByStatus(ctx context.Context, statuses ...string) ([]*models.Incident, error)
	ListActiveDispatches(ctx context.Context) ([]*models.Dispatch, error)
	ListDispatchesByIncident(ctx context.Context, incidentID int64, activeOnly bool) ([]*models.Dispatch, error)
	ListPersonnel(ctx context.Context) ([]*models.Personnel, error)
	ListPersonnelByUnit(ctx context.Context, unitID int64) ([]*models.Personnel, error)

	SaveStation(ctx context.Context, station *models.Station) error
	SaveHospital(ctx context.Context, hospital *models.Hospital) error
	SaveUnit(ctx context.Context, unit *models.Unit) error
	SaveIncident(ctx context.Context, incident *models.Incident) error
	SaveDispatch(ctx context.Context, dispatch *models.Dispatch) error
	SavePersonnel(ctx context.Context, person *models.Personnel) error
	SaveGameState(ctx context.Context, state *models.GameState) error

	Reset(ctx context.Context) error
}

// Rand абстрагирует источник случайности, чтобы тесты могли подменять исходы
// (поломка да/нет, дельты усталости) без статистических повторов
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// SimulationService определяет контракт движка симуляции
type SimulationService interface {
	SpawnIncident(ctx context.Context) (*models.Incident, error)
	Dispatch(ctx context.Context, incidentID, unitID int64) (bool, error)
	Tick(ctx context.Context) error
	WorldSnapshot(ctx context.Context) (*models.WorldState, error)
	GetIncident(ctx context.Context, id int64) (*models.Incident, error)
	ListIncidents(ctx context.Context, page, pageSize int) ([]*models.Incident, error)
	GetGameState(ctx context.Context) (*models.GameState, error)
	ResetWorld(ctx context.Context) error
}

type simulationService struct {
	store            WorldStore
	logger           *logrus.Logger
	cfg              *config.Config
	webhookPublisher webhook.WebhookPublisher
	rng              Rand
	now              func() time.Time
}

func NewSimulationService(store WorldStore, logger *logrus.Logger, cfg *config.Config, publisher webhook.WebhookPublisher) SimulationService {
	return &simulationService{
		store:            store,
		logger:           logger,
		cfg:              cfg,
		webhookPublisher: publisher,
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
		now:              time.Now,
	}
}

// GetIncident возвращает инцидент по id
func (s *simulationService) GetIncident(ctx context.Context, id int64) (*models.Incident, error) {
	incident, err := s.store.GetIncident(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}
	return incident, nil
}

// ListIncidents возвращает список инцидентов с пагинацией, новые первыми
func (s *simulationService) ListIncidents(ctx context.Context, page, pageSize int) ([]*models.Incident, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	incidents, err := s.store.ListIncidents(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}
	return incidents, nil
}

// GetGameState возвращает агрегат ресурсов
func (s *simulationService) GetGameState(ctx context.Context) (*models.GameState, error) {
	state, err := s.store.GetGameState(ctx)
	if errors.Is(err, ErrNotFound) {
		return &models.GameState{ID: models.GameStateID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service: could not get game state: %w", err)
	}
	return state, nil
}

// WorldSnapshot собирает консистентный снимок мира для слоя представления
func (s *simulationService) WorldSnapshot(ctx context.Context) (*models.WorldState, error) {
	world := &models.WorldState{GridSize: models.GridSize}
	err := s.store.Atomically(ctx, func(tx WorldStore) error {
		var err error
		if world.Incidents, err = tx.ListIncidents(ctx, 1, 100); err != nil {
			return err
		}
		if world.Units, err = tx.ListUnits(ctx); err != nil {
			return err
		}
		if world.Hospitals, err = tx.ListHospitals(ctx); err != nil {
			return err
		}
		if world.Stations, err = tx.ListStations(ctx); err != nil {
			return err
		}
		if world.Personnel, err = tx.ListPersonnel(ctx); err != nil {
			return err
		}
		state, err := tx.GetGameState(ctx)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if state == nil {
			state = &models.GameState{ID: models.GameStateID}
		}
		world.GameState = state
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service: could not build world snapshot: %w", err)
	}

	for _, incident := range world.Incidents {
		if incident.Terminal() {
			world.HistoryIncidents = append(world.HistoryIncidents, incident)
		} else {
			world.ActiveIncidents = append(world.ActiveIncidents, incident)
		}
	}
	for _, unit := range world.Units {
		if unit.Status == models.UnitStatusAvailable {
			world.AvailableUnits = append(world.AvailableUnits, unit)
		}
	}
	world.GeneratedAt = s.now()
	return world, nil
}

// publishIncidentEvent отправляет событие жизненного цикла инцидента в очередь вебхуков.
// Доставка best-effort: ошибка публикации не откатывает саму операцию.
func (s *simulationService) publishIncidentEvent(ctx context.Context, eventType string, incident *models.Incident) {
	if s.webhookPublisher == nil {
		return
	}
	event := webhook.NewIncidentEvent(eventType, incident, s.now())
	if err := s.webhookPublisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event_type":  eventType,
			"incident_id": incident.ID,
		}).Warn("Failed to publish incident event")
	}
}

// manhattan возвращает манхэттенское расстояние между двумя точками сетки
func manhattan(x1, y1, x2, y2 int) int {
	dx := x1 - x2
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y2
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// clampGrid прижимает координату к границам сетки
func clampGrid(v int) int {
	if v < 0 {
		return 0
	}
	if v > models.GridSize {
		return models.GridSize
	}
	return v
}

// randBetween возвращает равномерное целое из [lo, hi] включительно
func randBetween(rng Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// randFloatBetween возвращает равномерное число из [lo, hi)
func randFloatBetween(rng Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// applyFatigue применяет дельту усталости с прижатием к [0,100] и назначает
// отдых при достижении порога; поведение одинаково при диспетчеризации и в тике
func applyFatigue(person *models.Personnel, delta float64, now time.Time) {
	person.Fatigue += delta
	if person.Fatigue > 100 {
		person.Fatigue = 100
	}
	if person.Fatigue < 0 {
		person.Fatigue = 0
	}
	if person.Fatigue >= fatigueRestThreshold && person.RestUntil == nil {
		rest := now.Add(RestDuration)
		person.RestUntil = &rest
		person.OnShift = false
	}
}

// countRespondingUnits считает активные выезды, чьи юниты реально едут к инциденту
// или работают на месте. Сломавшиеся и уже возвращающиеся юниты не учитываются.
// Единственное место подсчёта выполненных требований: используется и после
// прибытия юнита, и в проходе прогрессии инцидентов.
func countRespondingUnits(dispatches []*models.Dispatch, unitByID map[int64]*models.Unit) (fire int, ambulance int) {
	for _, dispatch := range dispatches {
		if !dispatch.Active {
			continue
		}
		unit := unitByID[dispatch.UnitID]
		if unit == nil {
			continue
		}
		if unit.Status != models.UnitStatusEnroute && unit.Status != models.UnitStatusAtScene {
			continue
		}
		switch unit.Kind {
		case models.UnitKindFire:
			fire++
		case models.UnitKindAmbulance:
			ambulance++
		}
	}
	return fire, ambulance
}

// nearestHospital возвращает ближайшую к точке больницу по манхэттенскому расстоянию
func nearestHospital(hospitals []*models.Hospital, x, y int) *models.Hospital {
	var nearest *models.Hospital
	best := 0
	for _, hospital := range hospitals {
		distance := manhattan(hospital.X, hospital.Y, x, y)
		if nearest == nil || distance < best {
			nearest = hospital
			best = distance
		}
	}
	return nearest
}
