package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/horizon/internal/modules/historical"
	testingpkg "github.com/aristath/horizon/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandler(t *testing.T, seed bool) *Handler {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	db := testingpkg.NewTestDB(t, "history")
	repo := historical.NewRepository(db.Conn(), logger)

	if seed {
		for _, series := range testingpkg.NewSeriesFixtures() {
			require.NoError(t, repo.SaveSeries(context.Background(), series))
		}
	}

	return NewHandler(repo, logger)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHandleGetAssets(t *testing.T) {
	handler := setupHandler(t, true)

	req := httptest.NewRequest("GET", "/api/historical/assets", nil)
	w := httptest.NewRecorder()
	handler.HandleGetAssets(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["count"])
	assert.ElementsMatch(t, []interface{}{"AGG", "GLD", "IWDA.L"}, data["assets"])
}

func TestHandleGetAssets_Empty(t *testing.T) {
	handler := setupHandler(t, false)

	req := httptest.NewRequest("GET", "/api/historical/assets", nil)
	w := httptest.NewRecorder()
	handler.HandleGetAssets(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{}, data["assets"])
}

func TestHandleGetReturns(t *testing.T) {
	handler := setupHandler(t, true)

	tests := []struct {
		name           string
		asset          string
		expectedStatus int
		validate       func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:           "stored asset",
			asset:          "GLD",
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				data := decode(t, w)["data"].(map[string]interface{})
				assert.Equal(t, float64(5), data["count"])
				returns := data["returns"].([]interface{})
				first := returns[0].(map[string]interface{})
				assert.Equal(t, "2024-01", first["month"])
				assert.Equal(t, 0.013, first["monthly_return"])
			},
		},
		{
			name:           "unknown asset",
			asset:          "MISSING",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/historical/returns/"+tt.asset, nil)
			w := httptest.NewRecorder()

			handler.HandleGetReturns(w, req, tt.asset)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validate != nil {
				tt.validate(t, w)
			}
		})
	}
}

func TestHandleGetPanel(t *testing.T) {
	handler := setupHandler(t, true)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		validate       func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:           "all assets",
			query:          "",
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				data := decode(t, w)["data"].(map[string]interface{})
				assert.Equal(t, float64(5), data["rows"])
				assert.Equal(t, float64(0), data["dropped_rows"])
				assert.Equal(t, "2024-01", data["first_month"])
				assert.Equal(t, "2024-05", data["last_month"])
			},
		},
		{
			name:           "selected assets keep order",
			query:          "?assets=GLD,AGG",
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				data := decode(t, w)["data"].(map[string]interface{})
				assert.Equal(t, []interface{}{"GLD", "AGG"}, data["assets"])
			},
		},
		{
			name:           "unknown asset",
			query:          "?assets=GLD,MISSING",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/historical/panel"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.HandleGetPanel(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validate != nil {
				tt.validate(t, w)
			}
		})
	}
}
