package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/de-tools/transparency-atlas/pkg/adapters"
	"github.com/de-tools/transparency-atlas/pkg/models/api"
	"github.com/de-tools/transparency-atlas/pkg/models/domain"
	"github.com/de-tools/transparency-atlas/pkg/services/report"
)

const (
	defaultN = 10
	maxN     = 1000
)

var errBadRequest = errors.New("bad request")

type Handler struct {
	svc report.Service
}

func NewHandler(svc report.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, lo.Map(categories, func(c domain.Category, _ int) api.Category {
		return adapters.MapCategoryToAPI(c)
	}))
}

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	c, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	periods, err := h.svc.ListPeriods(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.Periods{
		Category: string(c),
		RunID:    periods.RunID,
		Periods:  periods.Periods,
		Latest:   periods.Latest,
	})
}

func (h *Handler) GetRanking(w http.ResponseWriter, r *http.Request) {
	c, m, err := categoryAndMetric(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dir, n, err := directionAndN(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	period := chi.URLParam(r, "period")

	values, err := h.svc.Ranking(r.Context(), report.RankingQuery{
		Category:  c,
		Period:    period,
		Metric:    m,
		Direction: dir,
		N:         n,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.Ranking{
		Category:  string(c),
		Period:    period,
		Metric:    string(m),
		Direction: string(dir),
		N:         n,
		Values:    adapters.MapRankedValuesToAPI(values),
	})
}

func (h *Handler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	c, m, err := categoryAndMetric(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	period := chi.URLParam(r, "period")

	buckets, err := h.svc.Distribution(r.Context(), c, period, m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.Distribution{
		Category: string(c),
		Period:   period,
		Metric:   string(m),
		Buckets:  adapters.MapBucketsToAPI(buckets),
	})
}

func (h *Handler) GetTimeSeries(w http.ResponseWriter, r *http.Request) {
	c, m, err := categoryAndMetric(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dir, n, err := directionAndN(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rankBy := m
	if raw := r.URL.Query().Get("rank_by"); raw != "" {
		rankBy, err = domain.ParseMetric(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	ts, err := h.svc.TimeSeries(r.Context(), report.TimeSeriesQuery{
		Category:  c,
		Metric:    m,
		RankBy:    rankBy,
		Direction: dir,
		N:         n,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.TimeSeries{
		Category:  string(c),
		Metric:    string(m),
		RankedBy:  string(rankBy),
		Direction: string(dir),
		Countries: ts.Countries,
		Rows:      adapters.MapTimeSeriesRowsToAPI(ts.Rows),
	})
}

func categoryAndMetric(r *http.Request) (domain.Category, domain.Metric, error) {
	c, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		return "", "", err
	}
	m, err := domain.ParseMetric(chi.URLParam(r, "metric"))
	if err != nil {
		return "", "", err
	}
	return c, m, nil
}

func directionAndN(r *http.Request) (domain.Direction, int, error) {
	q := r.URL.Query()
	dir, err := domain.ParseDirection(q.Get("direction"))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	n := defaultN
	if raw := q.Get("n"); raw != "" {
		n, err = strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxN {
			return "", 0, fmt.Errorf("%w: n must be between 1 and %d", errBadRequest, maxN)
		}
	}
	return dir, n, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrUnknownMetric):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNumericDomain):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := zerolog.Ctx(r.Context())
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, r, status, api.Error{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}

// Register mounts the report routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Get("/categories/{category}/periods", h.ListPeriods)
	r.Get("/categories/{category}/periods/{period}/metrics/{metric}/rankings", h.GetRanking)
	r.Get("/categories/{category}/periods/{period}/metrics/{metric}/distribution", h.GetDistribution)
	r.Get("/categories/{category}/metrics/{metric}/timeseries", h.GetTimeSeries)
}
