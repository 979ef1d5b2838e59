package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/wricardo/direkt/game/config"
	"github.com/wricardo/direkt/game/engine"
	"github.com/wricardo/direkt/game/service"
	"github.com/wricardo/direkt/game/session"
	"github.com/wricardo/direkt/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	TakeActionFunc func(ctx context.Context, sessionID, action string, reset bool) (*service.ActionResult, error)
	BulkActionFunc func(ctx context.Context, sessionID string, actions []string, reset bool) (*service.BulkActionResult, error)
	ResetFunc      func(ctx context.Context, sessionID string) (*service.GameState, error)

	// Game State
	GetGameStateFunc    func(ctx context.Context, sessionID string) (*service.GameState, error)
	GetValidActionsFunc func(ctx context.Context, sessionID string) ([]service.ActionInfo, error)
	GetHistoryFunc      func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	HintFunc            func(ctx context.Context, sessionID string, maxDepth int) (*service.HintResult, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.LevelConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, cfg *engine.LevelConfig) error
	LevelStatsFunc  func(ctx context.Context, configName string) (*service.LevelStats, error)
}

func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "test", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test-config", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) ExpireSessions(ctx context.Context, maxAge time.Duration) int {
	return 0
}

func (m *MockGameService) TakeAction(ctx context.Context, sessionID, action string, reset bool) (*service.ActionResult, error) {
	if m.TakeActionFunc != nil {
		return m.TakeActionFunc(ctx, sessionID, action, reset)
	}
	return &service.ActionResult{Requested: action, Applied: action, Accepted: true, GameState: &service.GameState{}}, nil
}

func (m *MockGameService) BulkAction(ctx context.Context, sessionID string, actions []string, reset bool) (*service.BulkActionResult, error) {
	if m.BulkActionFunc != nil {
		return m.BulkActionFunc(ctx, sessionID, actions, reset)
	}
	return &service.BulkActionResult{
		ActionsExecuted:  len(actions),
		RequestedActions: len(actions),
		GameState:        &service.GameState{},
	}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*service.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &service.GameState{}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*service.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &service.GameState{}, nil
}

func (m *MockGameService) GetValidActions(ctx context.Context, sessionID string) ([]service.ActionInfo, error) {
	if m.GetValidActionsFunc != nil {
		return m.GetValidActionsFunc(ctx, sessionID)
	}
	return []service.ActionInfo{{Code: 0, Name: "east"}, {Code: 5, Name: "wait"}}, nil
}

func (m *MockGameService) GetHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetHistoryFunc != nil {
		return m.GetHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Turns:      []service.TurnRecord{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockGameService) Hint(ctx context.Context, sessionID string, maxDepth int) (*service.HintResult, error) {
	if m.HintFunc != nil {
		return m.HintFunc(ctx, sessionID, maxDepth)
	}
	return &service.HintResult{Found: true, Actions: []string{"east"}, Codes: []int{0}}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.LevelConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.LevelConfig{Name: configName, Description: "Test config"}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, cfg *engine.LevelConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, cfg)
	}
	return nil
}

func (m *MockGameService) LevelStats(ctx context.Context, configName string) (*service.LevelStats, error) {
	if m.LevelStatsFunc != nil {
		return m.LevelStatsFunc(ctx, configName)
	}
	return &service.LevelStats{Level: configName}, nil
}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockGameService) *Server {
	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v (body %s)", err, w.Body.String())
	}
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", service.ErrSessionNotFound, id)
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		rawBody        string
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "Create session with default config",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "" {
						t.Errorf("Expected empty config name, got %s", configName)
					}
					return &service.SessionInfo{ID: "ab12", ConfigName: "level1", CreatedAt: time.Now()}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "ab12" {
					t.Errorf("Expected session ID ab12, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with config_id",
			requestBody: map[string]string{"config_id": "gates"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "cd34", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "gates" {
					t.Errorf("Expected config name 'gates', got %s", resp.ConfigName)
				}
			},
		},
		{
			name:        "Deprecated config_name still accepted",
			requestBody: map[string]string{"config_name": "enemies"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "ef56", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "enemies" {
					t.Errorf("Expected config name 'enemies', got %s", resp.ConfigName)
				}
			},
		},
		{
			name:           "Malformed body",
			rawBody:        "{not json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Unknown config",
			requestBody: map[string]string{"config_id": "missing"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("config '%s' not found: %w", configName, config.ErrConfigNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Handle service error",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] != "service error" {
					t.Errorf("Expected error message 'service error', got %s", resp["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			req := makeRequest("POST", "/api/sessions", tt.requestBody)
			if tt.rawBody != "" {
				req = httptest.NewRequest("POST", "/api/sessions", strings.NewReader(tt.rawBody))
			}

			server.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sessions := func() []*service.SessionInfo {
		return []*service.SessionInfo{
			{ID: "aaaa", CreatedAt: base, LastAccessedAt: base.Add(3 * time.Minute)},
			{ID: "bbbb", CreatedAt: base.Add(time.Minute), LastAccessedAt: base.Add(time.Minute)},
			{ID: "cccc", CreatedAt: base.Add(2 * time.Minute), LastAccessedAt: base.Add(2 * time.Minute)},
		}
	}

	tests := []struct {
		name      string
		query     string
		wantIDs   []string
		wantTotal float64
	}{
		{"default sorts by last access desc", "", []string{"aaaa", "cccc", "bbbb"}, 3},
		{"created ascending", "?sort=created&order=asc", []string{"aaaa", "bbbb", "cccc"}, 3},
		{"created descending with limit", "?sort=created&limit=2", []string{"cccc", "bbbb"}, 3},
		{"invalid limit ignored", "?limit=abc", []string{"aaaa", "cccc", "bbbb"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					return sessions(), nil
				},
			}
			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    float64                `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Count != len(tt.wantIDs) || resp.Total != tt.wantTotal {
				t.Errorf("Expected count %d total %v, got %d/%v", len(tt.wantIDs), tt.wantTotal, resp.Count, resp.Total)
			}
			for i, id := range tt.wantIDs {
				if i >= len(resp.Sessions) || resp.Sessions[i].ID != id {
					t.Fatalf("Expected order %v, got %+v", tt.wantIDs, resp.Sessions)
				}
			}
		})
	}

	t.Run("service error", func(t *testing.T) {
		mockService := &MockGameService{
			ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
				return nil, fmt.Errorf("database error")
			},
		}
		server := setupTestServer(t, mockService)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", w.Code)
		}
	})
}

func TestGetSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "ab12" {
				return nil, notFound(sessionID)
			}
			return &service.SessionInfo{ID: sessionID, ConfigName: "level1"}, nil
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		name           string
		sessionID      string
		expectedStatus int
	}{
		{"existing session", "ab12", http.StatusOK},
		{"session not found", "zzzz", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/"+tt.sessionID, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestDeleteSession(t *testing.T) {
	var deleted string
	mockService := &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID != "ab12" {
				return notFound(sessionID)
			}
			deleted = sessionID
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/ab12", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if deleted != "ab12" {
		t.Errorf("Expected session ab12 to be deleted, got %q", deleted)
	}

	var resp map[string]string
	parseResponse(t, w, &resp)
	if resp["message"] != "Session ab12 deleted" {
		t.Errorf("Unexpected message %q", resp["message"])
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/zzzz", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Game Operation Tests

func TestAction(t *testing.T) {
	tests := []struct {
		name           string
		sessionID      string
		requestBody    interface{}
		wantAction     string
		wantReset      bool
		expectedStatus int
	}{
		{
			name:           "Action by name",
			sessionID:      "ab12",
			requestBody:    map[string]interface{}{"action": "east"},
			wantAction:     "east",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Action by numeric code",
			sessionID:      "ab12",
			requestBody:    map[string]interface{}{"action": 4},
			wantAction:     "4",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Action with reset",
			sessionID:      "ab12",
			requestBody:    map[string]interface{}{"action": "wait", "reset": true},
			wantAction:     "wait",
			wantReset:      true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing action",
			sessionID:      "ab12",
			requestBody:    map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Action of the wrong type",
			sessionID:      "ab12",
			requestBody:    map[string]interface{}{"action": true},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown action name",
			sessionID:      "ab12",
			requestBody:    map[string]interface{}{"action": "jump"},
			wantAction:     "jump",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Session not found",
			sessionID:      "zzzz",
			requestBody:    map[string]interface{}{"action": "east"},
			wantAction:     "east",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				TakeActionFunc: func(ctx context.Context, sessionID, action string, reset bool) (*service.ActionResult, error) {
					if action != tt.wantAction {
						t.Errorf("Expected action %q, got %q", tt.wantAction, action)
					}
					if reset != tt.wantReset {
						t.Errorf("Expected reset %v, got %v", tt.wantReset, reset)
					}
					if sessionID == "zzzz" {
						return nil, notFound(sessionID)
					}
					if action == "jump" {
						return nil, fmt.Errorf("%w: %q", service.ErrInvalidAction, action)
					}
					return &service.ActionResult{
						Requested: action,
						Applied:   action,
						Accepted:  true,
						GameState: &service.GameState{Snapshot: engine.Snapshot{Tick: 1}},
					}, nil
				},
			}
			server := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/"+tt.sessionID+"/action", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
			if w.Code == http.StatusOK {
				var resp service.ActionResult
				parseResponse(t, w, &resp)
				if !resp.Accepted || resp.GameState == nil || resp.GameState.Tick != 1 {
					t.Errorf("Unexpected result %+v", resp)
				}
			}
		})
	}
}

func TestBulkAction(t *testing.T) {
	var got []string
	mockService := &MockGameService{
		BulkActionFunc: func(ctx context.Context, sessionID string, actions []string, reset bool) (*service.BulkActionResult, error) {
			got = actions
			return &service.BulkActionResult{
				ActionsExecuted:  len(actions),
				RequestedActions: len(actions),
				StopReasonCode:   "victory",
				Outcome:          1,
				GameState:        &service.GameState{},
				Events:           []service.GameEvent{{Type: "victory"}},
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	body := map[string]interface{}{"actions": []interface{}{"east", 0, "cw"}}
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/bulk-action", body))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d (%s)", w.Code, w.Body.String())
	}
	want := []string{"east", "0", "cw"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected actions %v, got %v", want, got)
	}

	var resp service.BulkActionResult
	parseResponse(t, w, &resp)
	if resp.ActionsExecuted != 3 || resp.Outcome != 1 || resp.StopReasonCode != "victory" {
		t.Errorf("Unexpected result %+v", resp)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/sessions/ab12/bulk-action", strings.NewReader("nope"))
	server.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid body, got %d", w.Code)
	}
}

func TestReset(t *testing.T) {
	mockService := &MockGameService{
		ResetFunc: func(ctx context.Context, sessionID string) (*service.GameState, error) {
			if sessionID != "ab12" {
				return nil, notFound(sessionID)
			}
			return &service.GameState{StatusName: "playing"}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/reset", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Message string             `json:"message"`
		State   *service.GameState `json:"state"`
	}
	parseResponse(t, w, &resp)
	if resp.State == nil || resp.State.StatusName != "playing" {
		t.Errorf("Expected reset state, got %+v", resp)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/zzzz/reset", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantOpts service.HistoryOptions
	}{
		{"Default pagination", "", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"Custom pagination", "?page=2&limit=5&order=asc", service.HistoryOptions{Page: 2, Limit: 5, Order: "asc"}},
		{"Invalid values fall back", "?page=-1&limit=x&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				GetHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					if opts != tt.wantOpts {
						t.Errorf("Expected options %+v, got %+v", tt.wantOpts, opts)
					}
					return &service.HistoryResponse{Turns: []service.TurnRecord{}, Page: opts.Page}, nil
				},
			}
			server := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/history"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}
		})
	}
}

func TestGetGameState(t *testing.T) {
	mockService := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*service.GameState, error) {
			if sessionID != "ab12" {
				return nil, notFound(sessionID)
			}
			return &service.GameState{
				Snapshot: engine.Snapshot{Player: engine.PlayerView{Row: 1, Col: 2, Facing: engine.South}},
				Board:    []string{"#####", "#.Pv#", "#####"},
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var state service.GameState
	parseResponse(t, w, &state)
	if state.Player.Row != 1 || state.Player.Col != 2 || len(state.Board) != 3 {
		t.Errorf("Unexpected state %+v", state)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/zzzz/state", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestValidActions(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/actions", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		SessionID string               `json:"session_id"`
		Actions   []service.ActionInfo `json:"actions"`
	}
	parseResponse(t, w, &resp)
	if resp.SessionID != "ab12" || len(resp.Actions) != 2 || resp.Actions[1].Name != "wait" {
		t.Errorf("Unexpected response %+v", resp)
	}
}

func TestHint(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		wantDepth      int
		expectedStatus int
	}{
		{"default depth", "", 0, http.StatusOK},
		{"explicit depth", "?max_depth=12", 12, http.StatusOK},
		{"invalid depth", "?max_depth=-3", 0, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				HintFunc: func(ctx context.Context, sessionID string, maxDepth int) (*service.HintResult, error) {
					if maxDepth != tt.wantDepth {
						t.Errorf("Expected depth %d, got %d", tt.wantDepth, maxDepth)
					}
					return &service.HintResult{Found: true, Actions: []string{"east"}}, nil
				},
			}
			server := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/hint"+tt.query, nil))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

// Configuration Tests

func TestListConfigs(t *testing.T) {
	mockService := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{
				{ConfigID: "level1", Filename: "level1.json", Rows: 3, Cols: 5},
				{ConfigID: "gates", Filename: "gates.yaml", Gates: 2},
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var configs []service.ConfigInfo
	parseResponse(t, w, &configs)
	if len(configs) != 2 || configs[1].ConfigID != "gates" {
		t.Errorf("Unexpected configs %+v", configs)
	}
}

func TestGetConfig(t *testing.T) {
	mockService := &MockGameService{
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.LevelConfig, error) {
			if configName == "missing" {
				return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configName)
			}
			if configName == "broken" {
				return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, engine.ErrInvalidLevel)
			}
			return &engine.LevelConfig{Name: configName, LevelSetup: [][]int{{1, 9}}, Player: []int{0, 0}}, nil
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		name           string
		configName     string
		expectedStatus int
	}{
		{"existing config", "level1", http.StatusOK},
		{"config not found", "missing", http.StatusNotFound},
		{"invalid config file", "broken", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/configs/"+tt.configName, nil))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestCreateConfig(t *testing.T) {
	var saved *engine.LevelConfig
	mockService := &MockGameService{
		SaveConfigFunc: func(ctx context.Context, configName string, cfg *engine.LevelConfig) error {
			if len(cfg.LevelSetup) == 0 {
				return fmt.Errorf("%w: empty level", config.ErrInvalidConfig)
			}
			saved = cfg
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{
			name: "valid config",
			body: engine.LevelConfig{
				Name:       "custom",
				LevelSetup: [][]int{{1, 1, 9}},
				Player:     []int{0, 0},
			},
			expectedStatus: http.StatusCreated,
		},
		{"missing name", engine.LevelConfig{LevelSetup: [][]int{{1, 9}}}, http.StatusBadRequest},
		{"invalid level", engine.LevelConfig{Name: "empty"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/configs", tt.body))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}

	if saved == nil || saved.Name != "custom" {
		t.Errorf("Expected custom config to be saved, got %+v", saved)
	}
}

func TestConfigStats(t *testing.T) {
	t.Run("stats available", func(t *testing.T) {
		mockService := &MockGameService{
			LevelStatsFunc: func(ctx context.Context, configName string) (*service.LevelStats, error) {
				return &service.LevelStats{Level: configName, Episodes: 4, Wins: 1, BestTurns: 3}, nil
			},
		}
		server := setupTestServer(t, mockService)

		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/configs/level1.json/stats", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}

		var stats service.LevelStats
		parseResponse(t, w, &stats)
		if stats.Level != "level1" || stats.Episodes != 4 || stats.BestTurns != 3 {
			t.Errorf("Unexpected stats %+v", stats)
		}
	})

	t.Run("stats disabled", func(t *testing.T) {
		mockService := &MockGameService{
			LevelStatsFunc: func(ctx context.Context, configName string) (*service.LevelStats, error) {
				return nil, service.ErrStatsDisabled
			},
		}
		server := setupTestServer(t, mockService)

		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/configs/level1/stats", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	parseResponse(t, w, &resp)
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", resp)
	}
}

func TestWebSocket(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "ab12" {
				return nil, notFound(sessionID)
			}
			return &service.SessionInfo{ID: sessionID}, nil
		},
	}

	tests := []struct {
		name           string
		query          string
		expectedStatus int
	}{
		{"Missing session parameter", "", http.StatusBadRequest},
		{"Invalid session", "?session=zzzz", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/ws"+tt.query, nil))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}

	t.Run("Valid session receives updates", func(t *testing.T) {
		hub := websocket.NewHub()
		go hub.Run()
		defer hub.Stop()

		server := NewServer(mockService, hub)
		ts := httptest.NewServer(server)
		defer ts.Close()

		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=ab12"
		conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("Failed to connect: %v", err)
		}
		defer conn.Close()

		deadline := time.Now().Add(time.Second)
		for hub.ClientCount("ab12") == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}

		body, _ := json.Marshal(map[string]string{"action": "east"})
		resp, err := http.Post(ts.URL+"/api/sessions/ab12/action", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("Action request failed: %v", err)
		}
		resp.Body.Close()

		conn.SetReadDeadline(time.Now().Add(time.Second))
		var msg websocket.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Failed to read update: %v", err)
		}
		if msg.Event != "state_update" || msg.SessionID != "ab12" {
			t.Errorf("Unexpected message %+v", msg)
		}
	})

	t.Run("Hub disabled", func(t *testing.T) {
		server := NewServer(mockService, nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/ws?session=ab12", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})
}

// TestEndToEnd drives the real service stack through the HTTP API
func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	level := `{"name": "Corridor", "level_setup": [[1, 1, 1, 9]], "player": [0, 0]}`
	if err := os.WriteFile(filepath.Join(dir, "level1.json"), []byte(level), 0o644); err != nil {
		t.Fatal(err)
	}

	configs, err := config.NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	svc := service.NewGameService(session.NewManager(), configs)
	server := NewServer(svc, nil)

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest(method, path, body))
		return w
	}

	w := do("POST", "/api/sessions", map[string]string{"config_id": "level1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Create failed: %d %s", w.Code, w.Body.String())
	}
	var info service.SessionInfo
	parseResponse(t, w, &info)
	base := "/api/sessions/" + info.ID

	w = do("POST", base+"/action", map[string]interface{}{"action": "east"})
	if w.Code != http.StatusOK {
		t.Fatalf("Action failed: %d %s", w.Code, w.Body.String())
	}
	var step service.ActionResult
	parseResponse(t, w, &step)
	if !step.Accepted || step.GameState.Player.Col != 1 {
		t.Errorf("Expected player at column 1, got %+v", step.GameState.Player)
	}

	w = do("POST", base+"/action", map[string]interface{}{"action": "jump"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown action, got %d", w.Code)
	}

	w = do("POST", base+"/bulk-action", map[string]interface{}{"actions": []interface{}{"east", 0}})
	if w.Code != http.StatusOK {
		t.Fatalf("Bulk action failed: %d %s", w.Code, w.Body.String())
	}
	var bulk service.BulkActionResult
	parseResponse(t, w, &bulk)
	if bulk.Outcome != int(engine.Won) {
		t.Errorf("Expected victory, got outcome %d", bulk.Outcome)
	}

	w = do("GET", base+"/actions", nil)
	var actions struct {
		Actions []service.ActionInfo `json:"actions"`
	}
	parseResponse(t, w, &actions)
	if len(actions.Actions) != 0 {
		t.Errorf("Expected no valid actions after victory, got %v", actions.Actions)
	}

	w = do("GET", base+"/history?order=asc", nil)
	var history service.HistoryResponse
	parseResponse(t, w, &history)
	if history.TotalTurns != 3 {
		t.Errorf("Expected 3 turns of history, got %d", history.TotalTurns)
	}

	w = do("POST", base+"/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Reset failed: %d", w.Code)
	}

	w = do("GET", base+"/hint", nil)
	var hint service.HintResult
	parseResponse(t, w, &hint)
	if !hint.Found || len(hint.Actions) != 3 {
		t.Errorf("Expected 3-step hint, got %+v", hint)
	}

	w = do("GET", "/api/configs/level1/stats", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without a stats source, got %d", w.Code)
	}

	w = do("GET", "/api/configs/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown config, got %d", w.Code)
	}

	w = do("DELETE", base, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Delete failed: %d", w.Code)
	}
	w = do("GET", base+"/state", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}
