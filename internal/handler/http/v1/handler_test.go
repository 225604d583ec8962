package v1

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/emergency_dispatch_system/internal/config"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/shenikar/emergency_dispatch_system/internal/service"
	"github.com/shenikar/emergency_dispatch_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestHandler создает новый экземпляр Handler с мокированным сервисом
func newTestHandler(t *testing.T) (*Handler, *mocks.MockSimulationService, *gin.Engine) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockSimulationService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		APIKeys: []string{"test-api-key"},
	}

	handler := NewHandler(mockService, logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return handler, mockService, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetWorld_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	world := &models.WorldState{
		ActiveIncidents: []*models.Incident{
			{ID: 1, Type: models.IncidentTypeFire, Severity: 3, Status: models.IncidentStatusNew},
		},
		Units: []*models.Unit{
			{ID: 1, Kind: models.UnitKindFire, Name: "BR-1", Status: models.UnitStatusAvailable},
		},
		AvailableUnits: []*models.Unit{
			{ID: 1, Kind: models.UnitKindFire, Name: "BR-1", Status: models.UnitStatusAvailable},
		},
		Hospitals: []*models.Hospital{
			{ID: 1, Name: "Randers Hospital", Capacity: 20, Occupied: 3},
		},
		Stations: []*models.Station{
			{ID: 1, Name: "Station Randers", City: "Randers", X: 3, Y: 4},
		},
		GameState:   &models.GameState{ID: models.GameStateID, Funds: 2000, XP: 50},
		GridSize:    models.GridSize,
		GeneratedAt: time.Now(),
	}

	mockService.EXPECT().WorldSnapshot(gomock.Any()).Return(world, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/world", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp WorldStateResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Len(t, resp.ActiveIncidents, 1)
	assert.Len(t, resp.AvailableUnits, 1)
	assert.Equal(t, models.GridSize, resp.GridSize)
	assert.Equal(t, 2000.0, resp.GameState.Funds)
}

func TestGetWorld_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().WorldSnapshot(gomock.Any()).Return(nil, errors.New("db down")).Times(1)

	w := makeRequest(router, "GET", "/api/v1/world", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestDispatchUnit_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	reqBody := DispatchRequest{IncidentID: 5, UnitID: 2}

	mockService.EXPECT().Dispatch(gomock.Any(), int64(5), int64(2)).Return(true, nil).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/dispatch", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp DispatchResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Dispatched)
}

func TestDispatchUnit_Refused(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	reqBody := DispatchRequest{IncidentID: 5, UnitID: 2}

	mockService.EXPECT().Dispatch(gomock.Any(), int64(5), int64(2)).Return(false, nil).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/dispatch", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp DispatchResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.False(t, resp.Dispatched)
}

func TestDispatchUnit_InvalidJSON(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().Dispatch(gomock.Any(), gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/api/v1/dispatch", bytes.NewBufferString(`{"incident_id": 5`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestDispatchUnit_ValidationError(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	reqBody := DispatchRequest{IncidentID: 5} // Отсутствует UnitID

	mockService.EXPECT().Dispatch(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/dispatch", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error:Field validation for 'UnitID' failed on the 'required' tag")
}

func TestDispatchUnit_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	reqBody := DispatchRequest{IncidentID: 5, UnitID: 2}

	mockService.EXPECT().Dispatch(gomock.Any(), int64(5), int64(2)).Return(false, errors.New("tx failed")).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/dispatch", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestListIncidents_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	expectedIncidents := []*models.Incident{
		{ID: 2, Type: models.IncidentTypeMedical, Status: models.IncidentStatusNew},
		{ID: 1, Type: models.IncidentTypeFire, Status: models.IncidentStatusResolved},
	}

	mockService.EXPECT().ListIncidents(gomock.Any(), 1, 10).Return(expectedIncidents, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents?page=1&pageSize=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Len(t, resp, 2)
	assert.Equal(t, int64(2), resp[0].ID)
}

func TestListIncidents_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().ListIncidents(gomock.Any(), 1, 20).Return(nil, errors.New("db down")).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestGetIncident_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	expectedIncident := &models.Incident{
		ID:       7,
		Type:     models.IncidentTypeTraffic,
		Severity: 2,
		City:     "Aarhus",
		Status:   models.IncidentStatusResponding,
	}

	mockService.EXPECT().GetIncident(gomock.Any(), int64(7)).Return(expectedIncident, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/7", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, models.IncidentTypeTraffic, resp.Type)
}

func TestGetIncident_InvalidID(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().GetIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "GET", "/api/v1/incidents/not-a-number", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestGetIncident_NotFound(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	wrapped := fmt.Errorf("service: could not get incident: %w", service.ErrNotFound)
	mockService.EXPECT().GetIncident(gomock.Any(), int64(99)).Return(nil, wrapped).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/99", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "incident not found")
}

func TestGetIncident_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().GetIncident(gomock.Any(), int64(3)).Return(nil, errors.New("db down")).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/3", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestGetStats_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	state := &models.GameState{
		ID:                models.GameStateID,
		Funds:             1750.5,
		XP:                120,
		IncidentsResolved: 4,
		IncidentsFailed:   1,
	}

	mockService.EXPECT().GetGameState(gomock.Any()).Return(state, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/stats", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp GameStateResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, 1750.5, resp.Funds)
	assert.Equal(t, 120, resp.XP)
	assert.Equal(t, 4, resp.IncidentsResolved)
	assert.Equal(t, 1, resp.IncidentsFailed)
}

func TestGetStats_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().GetGameState(gomock.Any()).Return(nil, errors.New("db down")).Times(1)

	w := makeRequest(router, "GET", "/api/v1/stats", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestSpawnIncident_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incident := &models.Incident{
		ID:       10,
		Type:     models.IncidentTypeFire,
		Severity: 4,
		City:     "Randers",
		Status:   models.IncidentStatusNew,
	}

	mockService.EXPECT().SpawnIncident(gomock.Any()).Return(incident, nil).Times(1)

	w := makeRequest(router, "POST", "/api/v1/admin/spawn", nil, map[string]string{"X-API-Key": "test-api-key"})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, int64(10), resp.ID)
	assert.Equal(t, models.IncidentStatusNew, resp.Status)
}

func TestSpawnIncident_Unauthorized(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().SpawnIncident(gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/api/v1/admin/spawn", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "API key required")
}

func TestSpawnIncident_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().SpawnIncident(gomock.Any()).Return(nil, errors.New("tx failed")).Times(1)

	w := makeRequest(router, "POST", "/api/v1/admin/spawn", nil, map[string]string{"X-API-Key": "test-api-key"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestResetWorld_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().ResetWorld(gomock.Any()).Return(nil).Times(1)

	w := makeRequest(router, "POST", "/api/v1/admin/reset", nil, map[string]string{"X-API-Key": "test-api-key"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestResetWorld_InvalidKey(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().ResetWorld(gomock.Any()).Times(0)

	w := makeRequest(router, "POST", "/api/v1/admin/reset", nil, map[string]string{"X-API-Key": "wrong-key"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")
}

func TestResetWorld_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().ResetWorld(gomock.Any()).Return(errors.New("tx failed")).Times(1)

	w := makeRequest(router, "POST", "/api/v1/admin/reset", nil, map[string]string{"X-API-Key": "test-api-key"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestHealthCheck_Success(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestAPIKeyAuthMiddleware_BearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	cfg := &config.Config{
		APIKeys: []string{"valid-key"},
	}

	router.Use(APIKeyAuthMiddleware(cfg, logger))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := makeRequest(router, "GET", "/test", nil, map[string]string{"Authorization": "Bearer valid-key"})
	assert.Equal(t, http.StatusOK, w.Code)
}
