package models

import (
	"time"
)

// GameStateID - фиксированный id единственной записи GameState
const GameStateID = 1

// GameState - агрегат ресурсов симуляции: бюджет, опыт и счётчики исходов.
// Существует ровно в одном экземпляре.
type GameState struct {
	ID                int64   `json:"id"`
	Funds             float64 `json:"funds"`
	XP                int     `json:"xp"`
	IncidentsResolved int     `json:"incidents_resolved"`
	IncidentsFailed   int     `json:"incidents_failed"`
}

// WorldState - консистентный снимок мира для слоя представления
type WorldState struct {
	Incidents        []*Incident  `json:"incidents"`
	ActiveIncidents  []*Incident  `json:"active_incidents"`
	HistoryIncidents []*Incident  `json:"history_incidents"`
	Units            []*Unit      `json:"units"`
	AvailableUnits   []*Unit      `json:"available_units"`
	Hospitals        []*Hospital  `json:"hospitals"`
	Stations         []*Station   `json:"stations"`
	Personnel        []*Personnel `json:"personnel"`
	GameState        *GameState   `json:"game_state"`
	GridSize         int          `json:"grid_size"`
	GeneratedAt      time.Time    `json:"generated_at"`
}
