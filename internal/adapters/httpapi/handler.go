package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stoik/email-fraud-classifier/internal/application"
	"github.com/stoik/email-fraud-classifier/internal/domain"
)

const (
	maxRequestBytes     = 1 << 20
	defaultHistoryLimit = 20
)

// Classifier is the subset of ClassificationService the API serves
type Classifier interface {
	LoadDataset(ctx context.Context, path string) (application.LoadResult, error)
	Train(ctx context.Context) (domain.TrainingReport, error)
	Predict(ctx context.Context, text string) (domain.Prediction, error)
	Status() application.Status
	History(ctx context.Context, limit int) (application.History, error)
}

type loadRequest struct {
	Filepath string `json:"filepath"`
}

type loadResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	Source         string `json:"source"`
	Examples       int    `json:"examples"`
	UsedDemoCorpus bool   `json:"used_demo_corpus"`
}

type trainResponse struct {
	Success  bool                  `json:"success"`
	TrainAcc float64               `json:"train_acc"`
	TestAcc  float64               `json:"test_acc"`
	Report   domain.TrainingReport `json:"report"`
}

type predictRequest struct {
	EmailText string `json:"emailText"`
}

type predictResponse struct {
	Success          bool    `json:"success"`
	Result           string  `json:"result"`
	Confidence       float64 `json:"confidence"`
	FraudProbability float64 `json:"fraud_probability"`
	RiskLevel        string  `json:"risk_level"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewHandler returns the API router. Dataset paths sent by clients are
// resolved inside datasetDir.
func NewHandler(svc Classifier, datasetDir string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{svc: svc, datasetDir: datasetDir, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/load-dataset", h.loadDataset)
	mux.HandleFunc("POST /api/train-model", h.trainModel)
	mux.HandleFunc("POST /api/predict", h.predict)
	mux.HandleFunc("GET /api/status", h.status)
	mux.HandleFunc("GET /api/history", h.history)
	return mux
}

type handler struct {
	svc        Classifier
	datasetDir string
	logger     *slog.Logger
}

func (h *handler) loadDataset(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if !h.decode(w, r, &req) {
		return
	}

	path, ok := h.datasetPath(req.Filepath)
	if !ok {
		writeError(w, http.StatusBadRequest, "filepath must name a file inside the dataset directory")
		return
	}

	result, err := h.svc.LoadDataset(r.Context(), path)
	if err != nil {
		h.writeServiceError(w, "load dataset", err)
		return
	}

	// The cause is already logged by the service
	message := "success"
	if result.UsedDemoCorpus {
		message = "dataset unavailable, loaded demonstration corpus"
	}
	writeJSON(w, http.StatusOK, loadResponse{
		Success:        true,
		Message:        message,
		Source:         result.Source,
		Examples:       result.Examples,
		UsedDemoCorpus: result.UsedDemoCorpus,
	})
}

// datasetPath joins a client-supplied relative path onto the dataset directory.
// Absolute paths and paths escaping the directory are refused.
func (h *handler) datasetPath(path string) (string, bool) {
	path = strings.TrimSpace(path)
	if !filepath.IsLocal(path) {
		return "", false
	}
	return filepath.Join(h.datasetDir, path), true
}

func (h *handler) trainModel(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Train(r.Context())
	if err != nil {
		h.writeServiceError(w, "train model", err)
		return
	}

	writeJSON(w, http.StatusOK, trainResponse{
		Success:  true,
		TrainAcc: report.TrainAccuracy,
		TestAcc:  report.TestAccuracy,
		Report:   report,
	})
}

func (h *handler) predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if !h.decode(w, r, &req) {
		return
	}

	prediction, err := h.svc.Predict(r.Context(), req.EmailText)
	if err != nil {
		h.writeServiceError(w, "predict", err)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		Success:          true,
		Result:           prediction.LabelName(),
		Confidence:       prediction.Confidence,
		FraudProbability: prediction.FraudProbability,
		RiskLevel:        prediction.RiskLevel,
	})
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	history, err := h.svc.History(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "error binding json")
		return false
	}
	return true
}

// writeServiceError maps domain error kinds to status codes
func (h *handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsStateError(err):
		status = http.StatusConflict
	case domain.IsDataError(err), domain.IsConfigError(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, application.ErrStorageDisabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		status = http.StatusRequestTimeout
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "op", op, "error", err)
	} else {
		h.logger.Warn("request rejected", "op", op, "error", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}
