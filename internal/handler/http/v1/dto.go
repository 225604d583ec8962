package v1

import (
	"time"
)

// DispatchRequest DTO для отправки юнита на инцидент
// @Description DTO для отправки юнита на инцидент
type DispatchRequest struct {
	IncidentID int64 `json:"incident_id" validate:"required,gt=0"`
	UnitID     int64 `json:"unit_id" validate:"required,gt=0"`
}

// DispatchResponse DTO для результата диспетчеризации
// @Description DTO для результата диспетчеризации
type DispatchResponse struct {
	Dispatched bool `json:"dispatched"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID                int64      `json:"id"`
	Type              string     `json:"type"`
	Severity          int        `json:"severity"`
	City              string     `json:"city"`
	Status            string     `json:"status"`
	NeedFire          int        `json:"need_fire"`
	NeedAmbulance     int        `json:"need_ambulance"`
	CreatedAt         time.Time  `json:"created_at"`
	DeadlineSeconds   int        `json:"deadline_seconds"`
	X                 int        `json:"x"`
	Y                 int        `json:"y"`
	XPReward          int        `json:"xp_reward"`
	CashReward        int        `json:"cash_reward"`
	ResponseStartedAt *time.Time `json:"response_started_at,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

// UnitResponse DTO для ответа с информацией о юните
// @Description DTO для ответа с информацией о юните
type UnitResponse struct {
	ID        int64      `json:"id"`
	Kind      string     `json:"kind"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	StationID int64      `json:"station_id"`
	Speed     float64    `json:"speed"`
	Condition float64    `json:"condition"`
	X         int        `json:"x"`
	Y         int        `json:"y"`
	DownUntil *time.Time `json:"down_until,omitempty"`
}

// StationResponse DTO для ответа с информацией о станции
// @Description DTO для ответа с информацией о станции
type StationResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// HospitalResponse DTO для ответа с информацией о больнице
// @Description DTO для ответа с информацией о больнице
type HospitalResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Capacity int    `json:"capacity"`
	Occupied int    `json:"occupied"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// PersonnelResponse DTO для ответа с информацией о члене экипажа
// @Description DTO для ответа с информацией о члене экипажа
type PersonnelResponse struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	Skill     int        `json:"skill"`
	Fatigue   float64    `json:"fatigue"`
	OnShift   bool       `json:"on_shift"`
	RestUntil *time.Time `json:"rest_until,omitempty"`
	UnitID    *int64     `json:"unit_id,omitempty"`
}

// GameStateResponse DTO для ответа с ресурсами и счётчиками
// @Description DTO для ответа с ресурсами и счётчиками
type GameStateResponse struct {
	Funds             float64 `json:"funds"`
	XP                int     `json:"xp"`
	IncidentsResolved int     `json:"incidents_resolved"`
	IncidentsFailed   int     `json:"incidents_failed"`
}

// WorldStateResponse DTO для снимка мира
// @Description DTO для снимка мира
type WorldStateResponse struct {
	ActiveIncidents  []*IncidentResponse  `json:"active_incidents"`
	HistoryIncidents []*IncidentResponse  `json:"history_incidents"`
	Units            []*UnitResponse      `json:"units"`
	AvailableUnits   []*UnitResponse      `json:"available_units"`
	Hospitals        []*HospitalResponse  `json:"hospitals"`
	Stations         []*StationResponse   `json:"stations"`
	Personnel        []*PersonnelResponse `json:"personnel"`
	GameState        *GameStateResponse   `json:"game_state"`
	GridSize         int                  `json:"grid_size"`
	GeneratedAt      time.Time            `json:"generated_at"`
}
