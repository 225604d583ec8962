package v1

import "github.com/shenikar/emergency_dispatch_system/internal/models"

// ModelToIncidentResponse преобразует доменную модель инцидента в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:                model.ID,
		Type:              model.Type,
		Severity:          model.Severity,
		City:              model.City,
		Status:            model.Status,
		NeedFire:          model.NeedFire,
		NeedAmbulance:     model.NeedAmbulance,
		CreatedAt:         model.CreatedAt,
		DeadlineSeconds:   model.DeadlineSeconds,
		X:                 model.X,
		Y:                 model.Y,
		XPReward:          model.XPReward,
		CashReward:        model.CashReward,
		ResponseStartedAt: model.ResponseStartedAt,
		ResolvedAt:        model.ResolvedAt,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

// ModelToUnitResponse преобразует доменную модель юнита в DTO для ответа
func ModelToUnitResponse(model *models.Unit) *UnitResponse {
	return &UnitResponse{
		ID:        model.ID,
		Kind:      model.Kind,
		Name:      model.Name,
		Status:    model.Status,
		StationID: model.StationID,
		Speed:     model.Speed,
		Condition: model.Condition,
		X:         model.X,
		Y:         model.Y,
		DownUntil: model.DownUntil,
	}
}

// ModelsToUnitResponses преобразует слайс моделей в слайс DTO
func ModelsToUnitResponses(models []*models.Unit) []*UnitResponse {
	responses := make([]*UnitResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToUnitResponse(model)
	}
	return responses
}

// ModelToGameStateResponse преобразует агрегат ресурсов в DTO для ответа
func ModelToGameStateResponse(model *models.GameState) *GameStateResponse {
	return &GameStateResponse{
		Funds:             model.Funds,
		XP:                model.XP,
		IncidentsResolved: model.IncidentsResolved,
		IncidentsFailed:   model.IncidentsFailed,
	}
}

// ModelToWorldStateResponse преобразует снимок мира в DTO для ответа
func ModelToWorldStateResponse(world *models.WorldState) *WorldStateResponse {
	resp := &WorldStateResponse{
		ActiveIncidents:  ModelsToIncidentResponses(world.ActiveIncidents),
		HistoryIncidents: ModelsToIncidentResponses(world.HistoryIncidents),
		Units:            ModelsToUnitResponses(world.Units),
		AvailableUnits:   ModelsToUnitResponses(world.AvailableUnits),
		GameState:        ModelToGameStateResponse(world.GameState),
		GridSize:         world.GridSize,
		GeneratedAt:      world.GeneratedAt,
	}

	resp.Hospitals = make([]*HospitalResponse, len(world.Hospitals))
	for i, hospital := range world.Hospitals {
		resp.Hospitals[i] = &HospitalResponse{
			ID:       hospital.ID,
			Name:     hospital.Name,
			City:     hospital.City,
			Capacity: hospital.Capacity,
			Occupied: hospital.Occupied,
			X:        hospital.X,
			Y:        hospital.Y,
		}
	}

	resp.Stations = make([]*StationResponse, len(world.Stations))
	for i, station := range world.Stations {
		resp.Stations[i] = &StationResponse{
			ID:   station.ID,
			Name: station.Name,
			City: station.City,
			X:    station.X,
			Y:    station.Y,
		}
	}

	resp.Personnel = make([]*PersonnelResponse, len(world.Personnel))
	for i, person := range world.Personnel {
		resp.Personnel[i] = &PersonnelResponse{
			ID:        person.ID,
			Name:      person.Name,
			Role:      person.Role,
			Skill:     person.Skill,
			Fatigue:   person.Fatigue,
			OnShift:   person.OnShift,
			RestUntil: person.RestUntil,
			UnitID:    person.UnitID,
		}
	}

	return resp
}
