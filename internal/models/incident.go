package models

import (
	"time"
)

// Типы инцидентов
const (
	IncidentTypeFire    = "fire"
	IncidentTypeMedical = "medical"
	IncidentTypeTraffic = "traffic"
)

// Статусы инцидентов. Переходы строго монотонны:
// new -> responding -> resolving -> {resolved|failed}
const (
	IncidentStatusNew        = "new"
	IncidentStatusResponding = "responding"
	IncidentStatusResolving  = "resolving"
	IncidentStatusResolved   = "resolved"
	IncidentStatusFailed     = "failed"
)

// Incident представляет происшествие на сетке города
type Incident struct {
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

// Terminal сообщает, достиг ли инцидент конечного статуса
func (i *Incident) Terminal() bool {
	return i.Status == IncidentStatusResolved || i.Status == IncidentStatusFailed
}

// Dispatch связывает один юнит с одним инцидентом на время выезда.
// Active=false означает историческую запись: она не учитывается
// при подсчёте выполненных требований инцидента.
type Dispatch struct {
	ID                int64      `json:"id"`
	IncidentID        int64      `json:"incident_id"`
	UnitID            int64      `json:"unit_id"`
	AssignedAt        time.Time  `json:"assigned_at"`
	ArriveAt          *time.Time `json:"arrive_at,omitempty"`
	ReturnAt          *time.Time `json:"return_at,omitempty"`
	TravelTimeSeconds int        `json:"travel_time_seconds"`
	Active            bool       `json:"active"`
}
