package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/config"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/engine"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/store"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/worker"
)

type fakeQueue struct {
	reasons []string
	err     error
}

func (q *fakeQueue) EnqueueRetrain(ctx context.Context, reason string) error {
	q.reasons = append(q.reasons, reason)
	return q.err
}

type countingTrainer struct {
	worker.Trainer
	runs int
}

func (c *countingTrainer) Train(records []models.ContextRecord) (*engine.TrainReport, error) {
	c.runs++
	return c.Trainer.Train(records)
}

type testEnv struct {
	router  *mux.Router
	engine  *engine.Engine
	records store.RecordStore
	trainer *countingTrainer
}

func newTestEnv(t *testing.T, cfg config.Config, queue *fakeQueue) *testEnv {
	t.Helper()
	records, err := store.NewBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { records.Close() })

	e := engine.New(engine.NewArtifacts(t.TempDir(), "", ""), engine.DefaultOptions())

	cfg.Version = "test"
	cfg.Store.Driver = "badger"

	trainer := &countingTrainer{Trainer: e}
	retrainer := worker.NewRetrainer(worker.RetrainDeps{Records: records, Trainer: trainer})

	var handler *Handler
	if queue != nil {
		handler = NewHandler(e, records, retrainer, queue, cfg)
	} else {
		handler = NewHandler(e, records, retrainer, nil, cfg)
	}

	r := mux.NewRouter()
	handler.RegisterDataRoutes(r)
	handler.RegisterRoutes(r)
	return &testEnv{router: r, engine: e, records: records, trainer: trainer}
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) seed(t *testing.T, place string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, env.records.Add(context.Background(), &models.ContextRecord{
			Month: "June", Season: "Summer", Budget: "Low", ActivityPreference: "Adventure",
			Temperature: models.Float64(30), SuggestedPlace: place,
		}))
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(out))
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil)

	w := env.do(t, "GET", "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	decode(t, w, &response)
	assert.Equal(t, "ok", response["status"])
}

func TestHealthEndpointStoreDown(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil)
	require.NoError(t, env.records.Close())

	w := env.do(t, "GET", "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestInfoEndpoint(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil)

	w := env.do(t, "GET", "/api/info", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	decode(t, w, &response)
	assert.Equal(t, "test", response["version"])
	assert.Equal(t, false, response["trained"])

	env.seed(t, "Goa", 2)
	env.seed(t, "Manali", 1)
	require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/train", nil).Code)

	w = env.do(t, "GET", "/api/info", nil)
	decode(t, w, &response)
	assert.Equal(t, true, response["trained"])
	assert.Equal(t, []interface{}{"Goa", "Manali"}, response["places"])
}

func TestGetUserDataEmpty(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil)

	w := env.do(t, "GET", "/getUserData", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data": []}`, w.Body.String())
}

func TestAddUserDataUntrained(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil)

	w := env.do(t, "POST", "/addUserData", map[string]interface{}{
		"Month": "June", "Season": "Summer", "Budget": "Low", "Activity_Preference": "Adventure", "Group_Size": 2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var response models.AddUserDataResponse
	decode(t, w, &response)
	assert.Equal(t, "User data added successfully!", response.Message)
	assert.Empty(t, response.Prediction)
	assert.NotEmpty(t, response.ID)

	w = env.do(t, "GET", "/getUserData", nil)
	var data models.UserDataResponse
	decode(t, w, &data)
	require.Len(t, data.Data, 1)
	assert.Equal(t, "June", data.Data[0].Month)
	assert.Equal(t, 2, *data.Data[0].GroupSize)
	assert.False(t, data.Data[0].Labeled())
}

func TestAddUserDataLabelsWithPrediction(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil)
	env.seed(t, "Goa", 3)
	require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/train", nil).Code)

	w := env.do(t, "POST", "/addUserData", map[string]interface{}{"Month": "May", "Budget": "Low"})
	require.Equal(t, http.StatusOK, w.Code)

	var response models.AddUserDataResponse
	decode(t, w, &response)
	assert.Equal(t, "Goa", response.Prediction)

	records, err := env.records.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "Goa", records[3].SuggestedPlace)
}

func TestAddUserDataKeepsClientPlace(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil)
	env.seed(t, "Goa", 3)
	require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/train", nil).Code)

	w := env.do(t, "POST", "/addUserData", map[string]interface{}{"Month": "May", "Suggested_Place": "Ooty"})
	require.Equal(t, http.StatusOK, w.Code)

	records, err := env.records.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ooty", records[len(records)-1].SuggestedPlace)
}

func TestAddUserDataInvalidJSON(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil)

	req := httptest.NewRequest("POST", "/addUserData", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response map[string]string
	decode(t, w, &response)
	assert.Contains(t, response["error"], "invalid JSON")
}

func TestAddUserDataRetrainsInline(t *testing.T) {
	cfg := config.Config{}
	cfg.Training.RetrainOnAdd = true
	env := newTestEnv(t, cfg, nil)

	w := env.do(t, "POST", "/addUserData", map[string]interface{}{"Month": "June", "Suggested_Place": "Goa"})
	require.Equal(t, http.StatusOK, w.Code)

	places, err := env.engine.Recommend(models.ContextRecord{Month: "June"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Goa"}, places)
}

func TestAddUserDataRetrainsViaQueue(t *testing.T) {
	cfg := config.Config{}
	cfg.Training.RetrainOnAdd = true
	queue := &fakeQueue{err: errors.New("redis down")}
	env := newTestEnv(t, cfg, queue)

	w := env.do(t, "POST", "/addUserData", map[string]interface{}{"Month": "June", "Suggested_Place": "Goa"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"record added"}, queue.reasons)

	_, err := env.engine.LoadPredictor()
	assert.ErrorIs(t, err, engine.ErrUntrained)
}

func TestRecommendEndpoint(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil)

	w := env.do(t, "POST", "/api/recommend", map[string]interface{}{"Month": "June"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"suggested_places": []}`, w.Body.String())

	env.seed(t, "Goa", 2)
	env.seed(t, "Manali", 2)
	env.seed(t, "Jaipur", 2)
	env.seed(t, "Coorg", 2)
	require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/train", nil).Code)

	w = env.do(t, "POST", "/api/recommend", map[string]interface{}{"Month": "June", "Budget": "Low"})
	require.Equal(t, http.StatusOK, w.Code)

	var response models.RecommendResponse
	decode(t, w, &response)
	assert.Len(t, response.SuggestedPlaces, 3)
	require.Len(t, response.Details, 3)
	assert.Equal(t, response.SuggestedPlaces[0], response.Details[0].Place)
}

func TestTrainEndpoint(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil)

	w := env.do(t, "POST", "/api/train", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	env.seed(t, "Goa", 5)
	env.seed(t, "Manali", 2)

	w = env.do(t, "POST", "/api/train", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report models.TrainResponse
	decode(t, w, &report)
	assert.Equal(t, 2, report.VocabularySize)
	assert.Equal(t, 7, report.Records)
	assert.Equal(t, 4, report.Balanced)
}

func TestTrainEndpointAsync(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil)
	w := env.do(t, "POST", "/api/train?async=true", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	queue := &fakeQueue{}
	env = newTestEnv(t, config.Config{}, queue)
	w = env.do(t, "POST", "/api/train?async=true", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"api request"}, queue.reasons)
}

func TestRecordsRoute(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil)
	env.seed(t, "Goa", 1)

	w := env.do(t, "GET", "/api/records", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data models.UserDataResponse
	decode(t, w, &data)
	assert.Len(t, data.Data, 1)
}

func TestTrainingUsesSharedRetrainer(t *testing.T) {
	cfg := config.Config{}
	cfg.Training.RetrainOnAdd = true
	env := newTestEnv(t, cfg, nil)
	env.seed(t, "Goa", 2)

	require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/train", nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, "POST", "/addUserData", map[string]interface{}{"Month": "June"}).Code)

	assert.Equal(t, 2, env.trainer.runs)
}

func TestWrongMethodIsNotAllowed(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil)

	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api/recommend"},
		{"GET", "/api/train"},
		{"POST", "/api/health"},
		{"DELETE", "/api/records"},
		{"POST", "/getUserData"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, nil)
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		})
	}
}
