package models

import (
	"time"
)

// GridSize - размер квадратной сетки города, все координаты лежат в [0, GridSize]
const GridSize = 10

// Виды юнитов
const (
	UnitKindFire      = "fire"
	UnitKindAmbulance = "ambulance"
	UnitKindPolice    = "police"
)

// Статусы юнитов
const (
	UnitStatusAvailable   = "available"
	UnitStatusEnroute     = "enroute"
	UnitStatusAtScene     = "at_scene"
	UnitStatusReturning   = "returning"
	UnitStatusBroken      = "broken"
	UnitStatusMaintenance = "maintenance"
)

// Роли персонала
const (
	RoleParamedic   = "paramedic"
	RoleFirefighter = "firefighter"
	RoleDriver      = "driver"
)

// Station представляет пожарную/спасательную станцию, к которой приписаны юниты
type Station struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Hospital представляет больницу с ограниченной вместимостью.
// Инвариант: 0 <= Occupied <= Capacity
type Hospital struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Capacity int    `json:"capacity"`
	Occupied int    `json:"occupied"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// Unit представляет машину экстренной службы вместе с её текущим состоянием
type Unit struct {
	ID        int64      `json:"id"`
	Kind      string     `json:"kind"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	StationID int64      `json:"station_id"`
	Speed     float64    `json:"speed"`
	Condition float64    `json:"condition"`
	X         int        `json:"x"`
	Y         int        `json:"y"`
	HomeX     int        `json:"home_x"`
	HomeY     int        `json:"home_y"`
	DownUntil *time.Time `json:"down_until,omitempty"`
}

// Personnel представляет члена экипажа, закреплённого за юнитом.
// Усталость держится в пределах [0,100]; член экипажа с назначенным
// отдыхом (RestUntil в будущем) не учитывается при проверке ролей.
type Personnel struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	Skill     int        `json:"skill"`
	Fatigue   float64    `json:"fatigue"`
	OnShift   bool       `json:"on_shift"`
	RestUntil *time.Time `json:"rest_until,omitempty"`
	UnitID    *int64     `json:"unit_id,omitempty"`
}
