package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/shenikar/emergency_dispatch_system/internal/service"
)

const stationsCacheKey = "stations"

// querier покрывает и пул, и транзакцию pgx
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WorldRepository - хранилище мира симуляции поверх PostgreSQL с кэшем
// статичного списка станций в Redis
type WorldRepository struct {
	db          *pgxpool.Pool
	q           querier
	redisClient *redis.Client
	inTx        bool
}

func NewWorldRepository(db *pgxpool.Pool, redisClient *redis.Client) service.WorldStore {
	return &WorldRepository{
		db:          db,
		q:           db,
		redisClient: redisClient,
	}
}

// serializationRetries - число повторов транзакции после конфликта сериализации
const serializationRetries = 3

// Atomically выполняет fn в одной транзакции PostgreSQL уровня SERIALIZABLE:
// конкурирующие проверки статуса юнита при диспетчеризации не могут обе
// увидеть available. Прерванная из-за конфликта сериализации транзакция
// повторяется целиком. Вложенные вызовы продолжают работать в уже открытой
// транзакции.
func (r *WorldRepository) Atomically(ctx context.Context, fn func(service.WorldStore) error) error {
	if r.inTx {
		return fn(r)
	}

	var err error
	for attempt := 0; attempt <= serializationRetries; attempt++ {
		err = r.runInTx(ctx, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("transaction aborted after %d serialization retries: %w", serializationRetries, err)
}

func (r *WorldRepository) runInTx(ctx context.Context, fn func(service.WorldStore) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	txRepo := &WorldRepository{db: r.db, q: tx, redisClient: r.redisClient, inTx: true}
	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isSerializationFailure распознает ошибки, после которых транзакцию нужно
// повторить: serialization_failure (40001) и deadlock_detected (40P01)
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}

// GetUnit возвращает юнит по id
func (r *WorldRepository) GetUnit(ctx context.Context, id int64) (*models.Unit, error) {
	unit := &models.Unit{}
	query := `
		SELECT id, kind, name, status, station_id, speed, condition, x, y, home_x, home_y, down_until
		FROM units
		WHERE id = $1;
	`
	err := r.q.QueryRow(ctx, query, id).Scan(
		&unit.ID,
		&unit.Kind,
		&unit.Name,
		&unit.Status,
		&unit.StationID,
		&unit.Speed,
		&unit.Condition,
		&unit.X,
		&unit.Y,
		&unit.HomeX,
		&unit.HomeY,
		&unit.DownUntil,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("unit with id %d: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get unit by id: %w", err)
	}
	return unit, nil
}

// GetIncident возвращает инцидент по id
func (r *WorldRepository) GetIncident(ctx context.Context, id int64) (*models.Incident, error) {
	query := `
		SELECT id, type, severity, city, status, need_fire, need_ambulance, created_at,
			deadline_seconds, x, y, xp_reward, cash_reward, response_started_at, resolved_at
		FROM incidents
		WHERE id = $1;
	`
	incident, err := scanIncident(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %d: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// GetHospital возвращает больницу по id
func (r *WorldRepository) GetHospital(ctx context.Context, id int64) (*models.Hospital, error) {
	hospital := &models.Hospital{}
	query := `
		SELECT id, name, city, capacity, occupied, x, y
		FROM hospitals
		WHERE id = $1;
	`
	err := r.q.QueryRow(ctx, query, id).Scan(
		&hospital.ID,
		&hospital.Name,
		&hospital.City,
		&hospital.Capacity,
		&hospital.Occupied,
		&hospital.X,
		&hospital.Y,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("hospital with id %d: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get hospital by id: %w", err)
	}
	return hospital, nil
}

// GetDispatch возвращает выезд по id
func (r *WorldRepository) GetDispatch(ctx context.Context, id int64) (*models.Dispatch, error) {
	dispatch := &models.Dispatch{}
	query := `
		SELECT id, incident_id, unit_id, assigned_at, arrive_at, return_at, travel_time_seconds, active
		FROM dispatches
		WHERE id = $1;
	`
	err := r.q.QueryRow(ctx, query, id).Scan(
		&dispatch.ID,
		&dispatch.IncidentID,
		&dispatch.UnitID,
		&dispatch.AssignedAt,
		&dispatch.ArriveAt,
		&dispatch.ReturnAt,
		&dispatch.TravelTimeSeconds,
		&dispatch.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("dispatch with id %d: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get dispatch by id: %w", err)
	}
	return dispatch, nil
}

// GetPersonnel возвращает члена экипажа по id
func (r *WorldRepository) GetPersonnel(ctx context.Context, id int64) (*models.Personnel, error) {
	person := &models.Personnel{}
	query := `
		SELECT id, name, role, skill, fatigue, on_shift, rest_until, unit_id
		FROM personnel
		WHERE id = $1;
	`
	err := r.q.QueryRow(ctx, query, id).Scan(
		&person.ID,
		&person.Name,
		&person.Role,
		&person.Skill,
		&person.Fatigue,
		&person.OnShift,
		&person.RestUntil,
		&person.UnitID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("personnel with id %d: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get personnel by id: %w", err)
	}
	return person, nil
}

// GetGameState возвращает единственную запись агрегата ресурсов
func (r *WorldRepository) GetGameState(ctx context.Context) (*models.GameState, error) {
	state := &models.GameState{}
	query := `
		SELECT id, funds, xp, incidents_resolved, incidents_failed
		FROM game_state
		WHERE id = $1;
	`
	err := r.q.QueryRow(ctx, query, models.GameStateID).Scan(
		&state.ID,
		&state.Funds,
		&state.XP,
		&state.IncidentsResolved,
		&state.IncidentsFailed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("game state: %w", service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get game state: %w", err)
	}
	return state, nil
}

// ListStations возвращает все станции, по возможности из кэша Redis
func (r *WorldRepository) ListStations(ctx context.Context) ([]*models.Station, error) {
	if cached, err := r.getStationsFromCache(ctx); err == nil && cached != nil {
		return cached, nil
	}

	query := `SELECT id, name, city, x, y FROM stations ORDER BY id;`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	defer rows.Close()

	stations := make([]*models.Station, 0)
	for rows.Next() {
		station := &models.Station{}
		if err := rows.Scan(&station.ID, &station.Name, &station.City, &station.X, &station.Y); err != nil {
			return nil, fmt.Errorf("failed to scan station row: %w", err)
		}
		stations = append(stations, station)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration in ListStations: %w", err)
	}

	_ = r.setStationsCache(ctx, stations)
	return stations, nil
}

// ListHospitals возвращает все больницы
func (r *WorldRepository) ListHospitals(ctx context.Context) ([]*models.Hospital, error) {
	query := `SELECT id, name, city, capacity, occupied, x, y FROM hospitals ORDER BY id;`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hospitals: %w", err)
	}
	defer rows.Close()

	hospitals := make([]*models.Hospital, 0)
	for rows.Next() {
		hospital := &models.Hospital{}
		if err := rows.Scan(&hospital.ID, &hospital.Name, &hospital.City, &hospital.Capacity, &hospital.Occupied, &hospital.X, &hospital.Y); err != nil {
			return nil, fmt.Errorf("failed to scan hospital row: %w", err)
		}
		hospitals = append(hospitals, hospital)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration in ListHospitals: %w", err)
	}
	return hospitals, nil
}

// ListUnits возвращает все юниты
func (r *WorldRepository) ListUnits(ctx context.Context) ([]*models.Unit, error) {
	query := `
		SELECT id, kind, name, status, station_id, speed, condition, x, y, home_x, home_y, down_until
		FROM units
		ORDER BY id;
	`
	return r.queryUnits(ctx, query)
}

// ListUnitsByStatus возвращает юниты с одним из указанных статусов
func (r *WorldRepository) ListUnitsByStatus(ctx context.Context, statuses ...string) ([]*models.Unit, error) {
	query := `
		SELECT id, kind, name, status, station_id, speed, condition, x, y, home_x, home_y, down_until
		FROM units
		WHERE status = ANY($1)
		ORDER BY id;
	`
	return r.queryUnits(ctx, query, statuses)
}

func (r *WorldRepository) queryUnits(ctx context.Context, query string, args ...any) ([]*models.Unit, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	units := make([]*models.Unit, 0)
	for rows.Next() {
		unit := &models.Unit{}
		err := rows.Scan(
			&unit.ID,
			&unit.Kind,
			&unit.Name,
			&unit.Status,
			&unit.StationID,
			&unit.Speed,
			&unit.Condition,
			&unit.X,
			&unit.Y,
			&unit.HomeX,
			&unit.HomeY,
			&unit.DownUntil,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unit row: %w", err)
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration in queryUnits: %w", err)
	}
	return units, nil
}

// ListIncidents возвращает список инцидентов с пагинацией, новые первыми
func (r *WorldRepository) ListIncidents(ctx context.Context, page, pageSize int) ([]*models.Incident, error) {
	offset := (page - 1) * pageSize
	query := `
		SELECT id, type, severity, city, status, need_fire, need_ambulance, created_at,
			deadline_seconds, x, y, xp_reward, cash_reward, response_started_at, resolved_at
		FROM incidents
		ORDER BY id DESC
		LIMIT $1 OFFSET $2;
	`
	return r.queryIncidents(ctx, query, pageSize, offset)
}

// ListIncidentsByStatus возвращает инциденты с одним из указанных статусов
func (r *WorldRepository) ListIncidentsByStatus(ctx context.Context, statuses ...string) ([]*models.Incident, error) {
	query := `
		SELECT id, type, severity, city, status, need_fire, need_ambulance, created_at,
			deadline_seconds, x, y, xp_reward, cash_reward, response_started_at, resolved_at
		FROM incidents
		WHERE status = ANY($1)
		ORDER BY id;
	`
	return r.queryIncidents(ctx, query, statuses)
}

func (r *WorldRepository) queryIncidents(ctx context.Context, query string, args ...any) ([]*models.Incident, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration in queryIncidents: %w", err)
	}
	return incidents, nil
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.Type,
		&incident.Severity,
		&incident.City,
		&incident.Status,
		&incident.NeedFire,
		&incident.NeedAmbulance,
		&incident.CreatedAt,
		&incident.DeadlineSeconds,
		&incident.X,
		&incident.Y,
		&incident.XPReward,
		&incident.CashReward,
		&incident.ResponseStartedAt,
		&incident.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// ListActiveDispatches возвращает все активные выезды
func (r *WorldRepository) ListActiveDispatches(ctx context.Context) ([]*models.Dispatch, error) {
	query := `
		SELECT id, incident_id, unit_id, assigned_at, arrive_at, return_at, travel_time_seconds, active
		FROM dispatches
		WHERE active
		ORDER BY id;
	`
	return r.queryDispatches(ctx, query)
}

// ListDispatchesByIncident возвращает выезды инцидента, опционально только активные
func (r *WorldRepository) ListDispatchesByIncident(ctx context.Context, incidentID int64, activeOnly bool) ([]*models.Dispatch, error) {
	query := `
		SELECT id, incident_id, unit_id, assigned_at, arrive_at, return_at, travel_time_seconds, active
		FROM dispatches
		WHERE incident_id = $1 AND (NOT $2 OR active)
		ORDER BY id;
	`
	return r.queryDispatches(ctx, query, incidentID, activeOnly)
}

func (r *WorldRepository) queryDispatches(ctx context.Context, query string, args ...any) ([]*models.Dispatch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatches: %w", err)
	}
	defer rows.Close()

	dispatches := make([]*models.Dispatch, 0)
	for rows.Next() {
		dispatch := &models.Dispatch{}
		err := rows.Scan(
			&dispatch.ID,
			&dispatch.IncidentID,
			&dispatch.UnitID,
			&dispatch.AssignedAt,
			&dispatch.ArriveAt,
			&dispatch.ReturnAt,
			&dispatch.TravelTimeSeconds,
			&dispatch.Active,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispatch row: %w", err)
		}
		dispatches = append(dispatches, dispatch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration in queryDispatches: %w", err)
	}
	return dispatches, nil
}

// ListPersonnel возвращает весь персонал
func (r *WorldRepository) ListPersonnel(ctx context.Context) ([]*models.Personnel, error) {
	query := `
		SELECT id, name, role, skill, fatigue, on_shift, rest_until, unit_id
		FROM personnel
		ORDER BY id;
	`
	return r.queryPersonnel(ctx, query)
}

// ListPersonnelByUnit возвращает экипаж юнита
func (r *WorldRepository) ListPersonnelByUnit(ctx context.Context, unitID int64) ([]*models.Personnel, error) {
	query := `
		SELECT id, name, role, skill, fatigue, on_shift, rest_until, unit_id
		FROM personnel
		WHERE unit_id = $1
		ORDER BY id;
	`
	return r.queryPersonnel(ctx, query, unitID)
}

func (r *WorldRepository) queryPersonnel(ctx context.Context, query string, args ...any) ([]*models.Personnel, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list personnel: %w", err)
	}
	defer rows.Close()

	personnel := make([]*models.Personnel, 0)
	for rows.Next() {
		person := &models.Personnel{}
		err := rows.Scan(
			&person.ID,
			&person.Name,
			&person.Role,
			&person.Skill,
			&person.Fatigue,
			&person.OnShift,
			&person.RestUntil,
			&person.UnitID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan personnel row: %w", err)
		}
		personnel = append(personnel, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration in queryPersonnel: %w", err)
	}
	return personnel, nil
}

// SaveStation создает или обновляет станцию
func (r *WorldRepository) SaveStation(ctx context.Context, station *models.Station) error {
	if station.ID == 0 {
		query := `
			INSERT INTO stations (name, city, x, y)
			VALUES ($1, $2, $3, $4) RETURNING id;
		`
		if err := r.q.QueryRow(ctx, query, station.Name, station.City, station.X, station.Y).Scan(&station.ID); err != nil {
			return fmt.Errorf("failed to create station: %w", err)
		}
	} else {
		query := `
			UPDATE stations SET name = $1, city = $2, x = $3, y = $4
			WHERE id = $5;
		`
		if _, err := r.q.Exec(ctx, query, station.Name, station.City, station.X, station.Y, station.ID); err != nil {
			return fmt.Errorf("failed to update station: %w", err)
		}
	}
	_ = r.invalidateStationsCache(ctx)
	return nil
}

// SaveHospital создает или обновляет больницу
func (r *WorldRepository) SaveHospital(ctx context.Context, hospital *models.Hospital) error {
	if hospital.ID == 0 {
		query := `
			INSERT INTO hospitals (name, city, capacity, occupied, x, y)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id;
		`
		err := r.q.QueryRow(ctx, query,
			hospital.Name,
			hospital.City,
			hospital.Capacity,
			hospital.Occupied,
			hospital.X,
			hospital.Y,
		).Scan(&hospital.ID)
		if err != nil {
			return fmt.Errorf("failed to create hospital: %w", err)
		}
		return nil
	}
	query := `
		UPDATE hospitals SET name = $1, city = $2, capacity = $3, occupied = $4, x = $5, y = $6
		WHERE id = $7;
	`
	if _, err := r.q.Exec(ctx, query,
		hospital.Name,
		hospital.City,
		hospital.Capacity,
		hospital.Occupied,
		hospital.X,
		hospital.Y,
		hospital.ID,
	); err != nil {
		return fmt.Errorf("failed to update hospital: %w", err)
	}
	return nil
}

// SaveUnit создает или обновляет юнит
func (r *WorldRepository) SaveUnit(ctx context.Context, unit *models.Unit) error {
	if unit.ID == 0 {
		query := `
			INSERT INTO units (kind, name, status, station_id, speed, condition, x, y, home_x, home_y, down_until)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id;
		`
		err := r.q.QueryRow(ctx, query,
			unit.Kind,
			unit.Name,
			unit.Status,
			unit.StationID,
			unit.Speed,
			unit.Condition,
			unit.X,
			unit.Y,
			unit.HomeX,
			unit.HomeY,
			unit.DownUntil,
		).Scan(&unit.ID)
		if err != nil {
			return fmt.Errorf("failed to create unit: %w", err)
		}
		return nil
	}
	query := `
		UPDATE units SET kind = $1, name = $2, status = $3, station_id = $4, speed = $5,
			condition = $6, x = $7, y = $8, home_x = $9, home_y = $10, down_until = $11
		WHERE id = $12;
	`
	if _, err := r.q.Exec(ctx, query,
		unit.Kind,
		unit.Name,
		unit.Status,
		unit.StationID,
		unit.Speed,
		unit.Condition,
		unit.X,
		unit.Y,
		unit.HomeX,
		unit.HomeY,
		unit.DownUntil,
		unit.ID,
	); err != nil {
		return fmt.Errorf("failed to update unit: %w", err)
	}
	return nil
}

// SaveIncident создает или обновляет инцидент
func (r *WorldRepository) SaveIncident(ctx context.Context, incident *models.Incident) error {
	if incident.ID == 0 {
		query := `
			INSERT INTO incidents (type, severity, city, status, need_fire, need_ambulance, created_at,
				deadline_seconds, x, y, xp_reward, cash_reward, response_started_at, resolved_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id;
		`
		err := r.q.QueryRow(ctx, query,
			incident.Type,
			incident.Severity,
			incident.City,
			incident.Status,
			incident.NeedFire,
			incident.NeedAmbulance,
			incident.CreatedAt,
			incident.DeadlineSeconds,
			incident.X,
			incident.Y,
			incident.XPReward,
			incident.CashReward,
			incident.ResponseStartedAt,
			incident.ResolvedAt,
		).Scan(&incident.ID)
		if err != nil {
			return fmt.Errorf("failed to create incident: %w", err)
		}
		return nil
	}
	query := `
		UPDATE incidents SET type = $1, severity = $2, city = $3, status = $4, need_fire = $5,
			need_ambulance = $6, created_at = $7, deadline_seconds = $8, x = $9, y = $10,
			xp_reward = $11, cash_reward = $12, response_started_at = $13, resolved_at = $14
		WHERE id = $15;
	`
	cmdTag, err := r.q.Exec(ctx, query,
		incident.Type,
		incident.Severity,
		incident.City,
		incident.Status,
		incident.NeedFire,
		incident.NeedAmbulance,
		incident.CreatedAt,
		incident.DeadlineSeconds,
		incident.X,
		incident.Y,
		incident.XPReward,
		incident.CashReward,
		incident.ResponseStartedAt,
		incident.ResolvedAt,
		incident.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update incident: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %d not found for update: %w", incident.ID, service.ErrNotFound)
	}
	return nil
}

// SaveDispatch создает или обновляет выезд
func (r *WorldRepository) SaveDispatch(ctx context.Context, dispatch *models.Dispatch) error {
	if dispatch.ID == 0 {
		query := `
			INSERT INTO dispatches (incident_id, unit_id, assigned_at, arrive_at, return_at, travel_time_seconds, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id;
		`
		err := r.q.QueryRow(ctx, query,
			dispatch.IncidentID,
			dispatch.UnitID,
			dispatch.AssignedAt,
			dispatch.ArriveAt,
			dispatch.ReturnAt,
			dispatch.TravelTimeSeconds,
			dispatch.Active,
		).Scan(&dispatch.ID)
		if err != nil {
			return fmt.Errorf("failed to create dispatch: %w", err)
		}
		return nil
	}
	query := `
		UPDATE dispatches SET incident_id = $1, unit_id = $2, assigned_at = $3, arrive_at = $4,
			return_at = $5, travel_time_seconds = $6, active = $7
		WHERE id = $8;
	`
	if _, err := r.q.Exec(ctx, query,
		dispatch.IncidentID,
		dispatch.UnitID,
		dispatch.AssignedAt,
		dispatch.ArriveAt,
		dispatch.ReturnAt,
		dispatch.TravelTimeSeconds,
		dispatch.Active,
		dispatch.ID,
	); err != nil {
		return fmt.Errorf("failed to update dispatch: %w", err)
	}
	return nil
}

// SavePersonnel создает или обновляет члена экипажа
func (r *WorldRepository) SavePersonnel(ctx context.Context, person *models.Personnel) error {
	if person.ID == 0 {
		query := `
			INSERT INTO personnel (name, role, skill, fatigue, on_shift, rest_until, unit_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id;
		`
		err := r.q.QueryRow(ctx, query,
			person.Name,
			person.Role,
			person.Skill,
			person.Fatigue,
			person.OnShift,
			person.RestUntil,
			person.UnitID,
		).Scan(&person.ID)
		if err != nil {
			return fmt.Errorf("failed to create personnel: %w", err)
		}
		return nil
	}
	query := `
		UPDATE personnel SET name = $1, role = $2, skill = $3, fatigue = $4, on_shift = $5,
			rest_until = $6, unit_id = $7
		WHERE id = $8;
	`
	if _, err := r.q.Exec(ctx, query,
		person.Name,
		person.Role,
		person.Skill,
		person.Fatigue,
		person.OnShift,
		person.RestUntil,
		person.UnitID,
		person.ID,
	); err != nil {
		return fmt.Errorf("failed to update personnel: %w", err)
	}
	return nil
}

// SaveGameState сохраняет единственную запись агрегата ресурсов
func (r *WorldRepository) SaveGameState(ctx context.Context, state *models.GameState) error {
	state.ID = models.GameStateID
	query := `
		INSERT INTO game_state (id, funds, xp, incidents_resolved, incidents_failed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			funds = EXCLUDED.funds,
			xp = EXCLUDED.xp,
			incidents_resolved = EXCLUDED.incidents_resolved,
			incidents_failed = EXCLUDED.incidents_failed;
	`
	if _, err := r.q.Exec(ctx, query,
		state.ID,
		state.Funds,
		state.XP,
		state.IncidentsResolved,
		state.IncidentsFailed,
	); err != nil {
		return fmt.Errorf("failed to save game state: %w", err)
	}
	return nil
}

// Reset очищает все таблицы мира (используется при пересеве)
func (r *WorldRepository) Reset(ctx context.Context) error {
	query := `
		TRUNCATE dispatches, incidents, personnel, units, hospitals, stations, game_state
		RESTART IDENTITY;
	`
	if _, err := r.q.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to reset world: %w", err)
	}
	_ = r.invalidateStationsCache(ctx)
	return nil
}

// getStationsFromCache пытается получить список станций из Redis
func (r *WorldRepository) getStationsFromCache(ctx context.Context) ([]*models.Station, error) {
	if r.redisClient == nil {
		return nil, nil
	}
	val, err := r.redisClient.Get(ctx, stationsCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stations from cache: %w", err)
	}

	stations := make([]*models.Station, 0)
	if err := json.Unmarshal(val, &stations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stations from cache: %w", err)
	}
	return stations, nil
}

// setStationsCache сохраняет список станций в Redis
func (r *WorldRepository) setStationsCache(ctx context.Context, stations []*models.Station) error {
	if r.redisClient == nil {
		return nil
	}
	val, err := json.Marshal(stations)
	if err != nil {
		return fmt.Errorf("failed to marshal stations for cache: %w", err)
	}
	// Станции статичны, но кэш всё равно ограничиваем по времени
	if err := r.redisClient.Set(ctx, stationsCacheKey, val, 5*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set stations in cache: %w", err)
	}
	return nil
}

// invalidateStationsCache удаляет список станций из Redis кэша
func (r *WorldRepository) invalidateStationsCache(ctx context.Context) error {
	if r.redisClient == nil {
		return nil
	}
	if err := r.redisClient.Del(ctx, stationsCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stations cache: %w", err)
	}
	return nil
}
