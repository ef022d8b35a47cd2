package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/AndresRojas2002/library-manager/internal/domain"
	"github.com/AndresRojas2002/library-manager/internal/service/catalog"
	"github.com/AndresRojas2002/library-manager/internal/service/lending"
	"github.com/AndresRojas2002/library-manager/internal/service/readers"
)

// Handler собирает REST API библиотеки: каталог, читатели, выдачи.
type Handler struct {
	catalog  *catalog.Service
	readers  *readers.Service
	lending  lending.Orchestrator
	timeline domain.TimelineRepository
	logger   *log.Entry
}

// NewHandler создаёт REST handler поверх сервисного слоя.
func NewHandler(
	catalogSvc *catalog.Service,
	readersSvc *readers.Service,
	orchestrator lending.Orchestrator,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Handler {
	if logger == nil {
		logger = log.WithField("component", "rest")
	}

	return &Handler{
		catalog:  catalogSvc,
		readers:  readersSvc,
		lending:  orchestrator,
		timeline: timeline,
		logger:   logger,
	}
}

// Routes возвращает mux со всеми маршрутами API.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/books", h.createBook)
	mux.HandleFunc("GET /v1/books", h.listBooks)
	mux.HandleFunc("GET /v1/books/{id}", h.getBook)
	mux.HandleFunc("PUT /v1/books/{id}", h.updateBook)
	mux.HandleFunc("DELETE /v1/books/{id}", h.deleteBook)

	mux.HandleFunc("POST /v1/users", h.createUser)
	mux.HandleFunc("GET /v1/users", h.listUsers)
	mux.HandleFunc("GET /v1/users/{id}", h.getUser)
	mux.HandleFunc("PUT /v1/users/{id}", h.updateUser)
	mux.HandleFunc("DELETE /v1/users/{id}", h.deleteUser)

	mux.HandleFunc("POST /v1/loans", h.createLoan)
	mux.HandleFunc("GET /v1/loans", h.listLoans)
	mux.HandleFunc("GET /v1/loans/{id}", h.getLoan)
	mux.HandleFunc("DELETE /v1/loans/{id}", h.deleteLoan)
	mux.HandleFunc("POST /v1/loans/{id}/return", h.returnLoan)
	mux.HandleFunc("GET /v1/loans/{id}/timeline", h.loanTimeline)

	return mux
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Warn("failed to encode response")
	}
}

// writeError переводит доменные ошибки в HTTP-статусы.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var catalogValidation *catalog.ValidationError
	if errors.As(err, &catalogValidation) {
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation failed",
			Details: validationDetails(catalogValidation.Errs),
		})
		return
	}
	var readersValidation *readers.ValidationError
	if errors.As(err, &readersValidation) {
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation failed",
			Details: validationDetails(readersValidation.Errs),
		})
		return
	}

	switch {
	case domain.IsNotFound(err):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case domain.IsInvalidTransition(err),
		domain.IsVersionConflict(err),
		errors.Is(err, domain.ErrBookOnLoan),
		errors.Is(err, domain.ErrUserHasLoan),
		errors.Is(err, domain.ErrDuplicateISBN):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.logger.WithError(err).Error("request failed")
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func validationDetails(errs []error) []string {
	details := make([]string, 0, len(errs))
	for _, err := range errs {
		details = append(details, err.Error())
	}
	return details
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
