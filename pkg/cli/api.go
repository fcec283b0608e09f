package cli

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/cardio/pkg/assess"
	"github.com/mchmarny/cardio/pkg/model"
	"github.com/mchmarny/cardio/pkg/risk"
)

const (
	statusSuccess = "success"
	statusError   = "error"
	statusHealthy = "healthy"

	msgNoInput        = "No input data received"
	msgModelNotLoaded = "Model not loaded on server"
	msgInternal       = "internal server error"

	timestampFormat = time.DateTime
	maxRequestBytes = 1 << 20
	requestIDHeader = "X-Request-ID"
)

type ctxKey struct{}

type predictResponse struct {
	Prediction           int        `json:"prediction" yaml:"prediction"`
	RiskLevel            risk.Level `json:"risk_level" yaml:"risk_level"`
	RiskScore            float64    `json:"risk_score" yaml:"risk_score"`
	Confidence           float64    `json:"confidence" yaml:"confidence"`
	ConfidenceCalibrated bool       `json:"confidence_calibrated" yaml:"confidence_calibrated"`
	Explanation          string     `json:"explanation" yaml:"explanation"`
	Factors              []string   `json:"factors" yaml:"factors"`
	Status               string     `json:"status" yaml:"status"`
	Timestamp            string     `json:"timestamp" yaml:"timestamp"`
}

type errorResponse struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

type healthResponse struct {
	Status       string           `json:"status" yaml:"status"`
	ModelLoaded  bool             `json:"model_loaded" yaml:"model_loaded"`
	ModelKind    string           `json:"model_kind,omitempty" yaml:"model_kind,omitempty"`
	ModelVersion string           `json:"model_version,omitempty" yaml:"model_version,omitempty"`
	Capability   model.Capability `json:"capability,omitempty" yaml:"capability,omitempty"`
}

func toResponse(a *assess.Assessment) *predictResponse {
	return &predictResponse{
		Prediction:           a.Prediction.Label,
		RiskLevel:            a.Level,
		RiskScore:            a.Prediction.RiskScore,
		Confidence:           a.Prediction.Confidence,
		ConfidenceCalibrated: a.Prediction.Calibrated,
		Explanation:          a.Explanation.Narrative,
		Factors:              a.Explanation.Factors,
		Status:               statusSuccess,
		Timestamp:            a.Time.Format(timestampFormat),
	}
}

// errorStatus maps a pipeline error to its HTTP status and response body.
func errorStatus(err error) (int, *errorResponse) {
	switch {
	case errors.Is(err, assess.ErrNoInput):
		return http.StatusBadRequest, &errorResponse{Status: statusError, Message: msgNoInput}
	case errors.Is(err, model.ErrUnavailable):
		return http.StatusInternalServerError, &errorResponse{Status: statusError, Message: msgModelNotLoaded}
	default:
		return http.StatusBadRequest, &errorResponse{Status: statusError, Error: err.Error()}
	}
}

// writeJSON encodes v before sending the header so an unencodable value
// becomes a 500 instead of a success status with no body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		status = http.StatusInternalServerError
		b, _ = json.Marshal(&errorResponse{Status: statusError, Error: msgInternal})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(b, '\n')); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorStatus(err)
	logger(r.Context()).Error("prediction failed", "status", status, "error", err)
	writeJSON(w, status, body)
}

func predictAPIHandler(a *assess.Assessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

		var fields map[string]any
		d := json.NewDecoder(r.Body)
		d.UseNumber()
		if err := d.Decode(&fields); err != nil {
			logger(r.Context()).Debug("invalid request body", "error", err)
			fields = nil
		}

		res, err := a.Assess(fields)
		if err != nil {
			writeError(w, r, err)
			return
		}

		logger(r.Context()).Debug("prediction",
			"label", res.Prediction.Label,
			"risk_score", res.Prediction.RiskScore,
			"risk_level", res.Level,
			"factors", len(res.Explanation.Factors))

		writeJSON(w, http.StatusOK, toResponse(res))
	}
}

func health(m *model.Model) *healthResponse {
	info := m.Info()
	return &healthResponse{
		Status:       statusHealthy,
		ModelLoaded:  m.Available(),
		ModelKind:    info.Kind,
		ModelVersion: info.Version,
		Capability:   info.Capability,
	}
}

func healthAPIHandler(m *model.Model) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, health(m))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestMiddleware tags each request with an ID, logs it and converts
// panics into a 500 response.
func requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		l := slog.Default().With("request_id", id)
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, l))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				l.Error("panic serving request", "panic", p)
				writeJSON(rec, http.StatusInternalServerError, &errorResponse{Status: statusError, Error: msgInternal})
			}
			l.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start))
		}()

		next.ServeHTTP(rec, r)
	})
}

func logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
