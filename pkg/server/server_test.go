package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/transparency-atlas/pkg/models/api"
	"github.com/de-tools/transparency-atlas/pkg/models/domain"
	"github.com/de-tools/transparency-atlas/pkg/runtime/export"
	"github.com/de-tools/transparency-atlas/pkg/services/pipeline"
	"github.com/de-tools/transparency-atlas/pkg/services/report"
	"github.com/de-tools/transparency-atlas/pkg/services/source"
	"github.com/de-tools/transparency-atlas/pkg/store/duckdb"
	"github.com/de-tools/transparency-atlas/pkg/store/duckdb/metrics"
)

const devicesCSV = `Time Period,Start,End,Country,Requests,Devices,Unused,Honored
2019-H1,,,Germany,100,200,,50
2019-H1,,,France,50,100,,80
2019-H1,,,Spain,10,40,,10
2019-H2,,,Germany,120,240,,50
2019-H2,,,France,60,90,,60
2019-H2,,,Italy,30,30,,100
`

func setupServer(t *testing.T) *httptest.Server {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	store, err := metrics.NewStore(db)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	ctrl, err := pipeline.NewController(
		source.StaticSource{domain.CategoryDevices: devicesCSV},
		export.NewMemorySink(),
		pipeline.WithStore(db, store),
		pipeline.WithMetrics(pipeline.NewMetrics(registry)),
	)
	require.NoError(t, err)
	_, err = ctrl.Run(context.Background(), []domain.Category{domain.CategoryDevices})
	require.NoError(t, err)

	router := ConfigureRouter(Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies: Dependencies{
			Reports:  report.NewService(store),
			Logger:   zerolog.New(zerolog.NewTestWriter(t)),
			Gatherer: registry,
		},
	})
	testServer := httptest.NewServer(router)
	t.Cleanup(testServer.Close)
	return testServer
}

func TestWebAPI_Endpoints(t *testing.T) {
	testServer := setupServer(t)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expected       interface{}
		parseResponse  func([]byte) (interface{}, error)
	}{
		{
			name:           "ListCategories",
			path:           "/api/v1/categories",
			expectedStatus: http.StatusOK,
			expected:       []api.Category{{Slug: "devices", Name: "Device Requests", FileName: "device_requests.csv"}},
			parseResponse:  unmarshalResponse[[]api.Category](),
		},
		{
			name:           "ListPeriods",
			path:           "/api/v1/categories/devices/periods",
			expectedStatus: http.StatusOK,
			expected:       []string{"2019-H1", "2019-H2"},
			parseResponse: func(data []byte) (interface{}, error) {
				var response api.Periods
				err := json.Unmarshal(data, &response)
				return response.Periods, err
			},
		},
		{
			name:           "GetRanking",
			path:           "/api/v1/categories/devices/periods/2019-H2/metrics/requests/rankings?n=2",
			expectedStatus: http.StatusOK,
			expected:       []string{"Germany", "France"},
			parseResponse: func(data []byte) (interface{}, error) {
				var response api.Ranking
				err := json.Unmarshal(data, &response)
				countries := make([]string, 0, len(response.Values))
				for _, v := range response.Values {
					countries = append(countries, v.Country)
				}
				return countries, err
			},
		},
		{
			name:           "GetDistribution",
			path:           "/api/v1/categories/devices/periods/2019-H1/metrics/requests/distribution",
			expectedStatus: http.StatusOK,
			expected:       3,
			parseResponse: func(data []byte) (interface{}, error) {
				var response api.Distribution
				err := json.Unmarshal(data, &response)
				total := 0
				for _, b := range response.Buckets {
					total += b.Countries
				}
				return total, err
			},
		},
		{
			name:           "GetTimeSeries",
			path:           "/api/v1/categories/devices/metrics/requests/timeseries?direction=bottom&n=2",
			expectedStatus: http.StatusOK,
			expected:       []string{"Italy", "France"},
			parseResponse: func(data []byte) (interface{}, error) {
				var response api.TimeSeries
				err := json.Unmarshal(data, &response)
				return response.Countries, err
			},
		},
		{
			name:           "CategoryNotInRun",
			path:           "/api/v1/categories/account_requests/periods",
			expectedStatus: http.StatusNotFound,
			expected:       true,
			parseResponse: func(data []byte) (interface{}, error) {
				var response api.Error
				err := json.Unmarshal(data, &response)
				return response.Error != "", err
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(testServer.URL + tc.path)
			require.NoError(t, err, "Failed to send request")
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")

			actual, err := tc.parseResponse(body)
			require.NoError(t, err, "Failed to parse response")

			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestWebAPI_Metrics(t *testing.T) {
	testServer := setupServer(t)

	resp, err := http.Get(testServer.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `transparency_rows_parsed_total{category="devices"} 6`))
}

func unmarshalResponse[T any]() func([]byte) (interface{}, error) {
	return func(data []byte) (interface{}, error) {
		var response T
		err := json.Unmarshal(data, &response)
		return response, err
	}
}
