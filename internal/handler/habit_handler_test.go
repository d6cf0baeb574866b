package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/engine"
)

func setupTestAPI(t *testing.T) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewAPI(engine.New(engine.NewMemoryStore()))
}

func performJSON(t *testing.T, api *API, handle gin.HandlerFunc, method, path string, payload any, params gin.Params) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params

	handle(c)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var decoded map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return decoded
}

func createTestHabit(t *testing.T, api *API, name, schedule string) string {
	t.Helper()
	payload := map[string]any{
		"name":      name,
		"schedule":  schedule,
		"xp_reward": 10,
	}

	w := performJSON(t, api, api.CreateHabit, http.MethodPost, "/admin/api/habits", payload, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	habit := decodeBody(t, w)["habit"].(map[string]any)
	return habit["id"].(string)
}

func TestCreateHabitAndGet(t *testing.T) {
	api := setupTestAPI(t)
	id := createTestHabit(t, api, "晨跑", "daily")

	w := performJSON(t, api, api.GetHabit, http.MethodGet, "/admin/api/habits/"+id, nil,
		gin.Params{gin.Param{Key: "id", Value: id}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	habit := decodeBody(t, w)["habit"].(map[string]any)
	if habit["name"] != "晨跑" || habit["schedule"] != "daily" {
		t.Fatalf("unexpected habit payload: %+v", habit)
	}
}

func TestCreateHabitInvalidSchedule(t *testing.T) {
	api := setupTestAPI(t)

	payload := map[string]any{"name": "阅读", "schedule": "monthly"}
	w := performJSON(t, api, api.CreateHabit, http.MethodPost, "/admin/api/habits", payload, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestCreateHabitInvalidReminderTime(t *testing.T) {
	api := setupTestAPI(t)

	payload := map[string]any{"name": "阅读", "schedule": "daily", "reminder_time": "late evening"}
	w := performJSON(t, api, api.CreateHabit, http.MethodPost, "/admin/api/habits", payload, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestUpdateHabitUnknownID(t *testing.T) {
	api := setupTestAPI(t)

	payload := map[string]any{"name": "阅读", "schedule": "daily"}
	w := performJSON(t, api, api.UpdateHabit, http.MethodPut, "/admin/api/habits/missing", payload,
		gin.Params{gin.Param{Key: "id", Value: "missing"}})

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestCompleteHabitAndStats(t *testing.T) {
	api := setupTestAPI(t)
	id := createTestHabit(t, api, "晨跑", "daily")
	params := gin.Params{gin.Param{Key: "id", Value: id}}

	w := performJSON(t, api, api.CompleteHabit, http.MethodPost, "/admin/api/habits/"+id+"/complete",
		map[string]any{"count": 2, "note": "加练"}, params)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if decoded := decodeBody(t, w); decoded["recorded"] != true {
		t.Fatalf("expected recorded=true, got %+v", decoded)
	}

	w = performJSON(t, api, api.GetHabitStats, http.MethodGet, "/admin/api/habits/"+id+"/stats", nil, params)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	stats := decodeBody(t, w)["stats"].(map[string]any)
	if stats["completed_today"] != true {
		t.Fatalf("expected completed_today, got %+v", stats)
	}
	if stats["today_count"].(float64) != 2 {
		t.Fatalf("expected today_count 2, got %v", stats["today_count"])
	}
	if stats["current_streak"].(float64) < 1 {
		t.Fatalf("expected positive streak, got %v", stats["current_streak"])
	}
	if stats["total_xp_earned"].(float64) != 20 {
		t.Fatalf("expected total xp 20, got %v", stats["total_xp_earned"])
	}
}

func TestCompleteHabitInvalidDate(t *testing.T) {
	api := setupTestAPI(t)
	id := createTestHabit(t, api, "晨跑", "daily")

	w := performJSON(t, api, api.CompleteHabit, http.MethodPost, "/admin/api/habits/"+id+"/complete",
		map[string]any{"date": "05/01/2024"}, gin.Params{gin.Param{Key: "id", Value: id}})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestUncompleteHabitIdempotent(t *testing.T) {
	api := setupTestAPI(t)
	id := createTestHabit(t, api, "晨跑", "daily")
	params := gin.Params{gin.Param{Key: "id", Value: id}}

	w := performJSON(t, api, api.CompleteHabit, http.MethodPost, "/admin/api/habits/"+id+"/complete", nil, params)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	for i := 0; i < 2; i++ {
		w = performJSON(t, api, api.UncompleteHabit, http.MethodPost, "/admin/api/habits/"+id+"/uncomplete", nil, params)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200 on attempt %d, got %d", i+1, w.Code)
		}
	}

	today := engine.DayOf(time.Now())
	if api.engine.IsCompleted(id, today) {
		t.Fatal("expected completion to be cleared")
	}
}

func TestDeleteHabitClearsStats(t *testing.T) {
	api := setupTestAPI(t)
	id := createTestHabit(t, api, "晨跑", "daily")
	params := gin.Params{gin.Param{Key: "id", Value: id}}

	w := performJSON(t, api, api.CompleteHabit, http.MethodPost, "/admin/api/habits/"+id+"/complete", nil, params)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = performJSON(t, api, api.DeleteHabit, http.MethodDelete, "/admin/api/habits/"+id, nil, params)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = performJSON(t, api, api.GetHabitStats, http.MethodGet, "/admin/api/habits/"+id+"/stats", nil, params)
	stats := decodeBody(t, w)["stats"].(map[string]any)
	if stats["current_streak"].(float64) != 0 || stats["total_completions"].(float64) != 0 {
		t.Fatalf("expected zero snapshot after delete, got %+v", stats)
	}
}

func TestProgressEndpoint(t *testing.T) {
	api := setupTestAPI(t)

	w := performJSON(t, api, api.GetProgress, http.MethodGet, "/admin/api/progress", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := decodeBody(t, w)["progress"].(float64); got != 1.0 {
		t.Fatalf("expected progress 1.0 with no habits, got %v", got)
	}

	id := createTestHabit(t, api, "晨跑", "daily")
	w = performJSON(t, api, api.GetProgress, http.MethodGet, "/admin/api/progress", nil, nil)
	if got := decodeBody(t, w)["progress"].(float64); got != 0 {
		t.Fatalf("expected progress 0 with one due habit, got %v", got)
	}

	w = performJSON(t, api, api.CompleteHabit, http.MethodPost, "/admin/api/habits/"+id+"/complete", nil,
		gin.Params{gin.Param{Key: "id", Value: id}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = performJSON(t, api, api.GetProgress, http.MethodGet, "/admin/api/progress", nil, nil)
	if got := decodeBody(t, w)["progress"].(float64); got != 1.0 {
		t.Fatalf("expected progress 1.0 after completing, got %v", got)
	}
}

func TestListDueAndCompleted(t *testing.T) {
	api := setupTestAPI(t)
	first := createTestHabit(t, api, "晨跑", "daily")
	createTestHabit(t, api, "阅读", "daily")

	w := performJSON(t, api, api.CompleteHabit, http.MethodPost, "/admin/api/habits/"+first+"/complete", nil,
		gin.Params{gin.Param{Key: "id", Value: first}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = performJSON(t, api, api.ListDueHabits, http.MethodGet, "/admin/api/habits/due", nil, nil)
	due := decodeBody(t, w)["habits"].([]any)
	if len(due) != 1 {
		t.Fatalf("expected 1 due habit, got %d", len(due))
	}

	w = performJSON(t, api, api.ListCompletedHabits, http.MethodGet, "/admin/api/habits/completed", nil, nil)
	completed := decodeBody(t, w)["habits"].([]any)
	if len(completed) != 1 {
		t.Fatalf("expected 1 completed habit, got %d", len(completed))
	}
}
