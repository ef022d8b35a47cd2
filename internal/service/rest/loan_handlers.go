package rest

import (
	"net/http"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

func (h *Handler) createLoan(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" || req.BookID == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id and book_id are required"})
		return
	}

	loan, err := h.lending.CreateLoan(req.UserID, req.BookID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toLoanResponse(loan))
}

// listLoans поддерживает фильтр state=active|not_active.
func (h *Handler) listLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.lending.ListLoans(parseLimit(r))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if state := r.URL.Query().Get("state"); state != "" {
		filtered := make([]domain.Loan, 0, len(loans))
		for _, loan := range loans {
			if string(loan.State) == state {
				filtered = append(filtered, loan)
			}
		}
		loans = filtered
	}

	h.writeJSON(w, http.StatusOK, toLoanResponses(loans))
}

func (h *Handler) getLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.lending.GetLoan(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

func (h *Handler) returnLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.lending.ReturnLoan(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

func (h *Handler) deleteLoan(w http.ResponseWriter, r *http.Request) {
	if err := h.lending.DeleteLoan(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) loanTimeline(w http.ResponseWriter, r *http.Request) {
	loanID := r.PathValue("id")

	// Таймлайн отдаётся только для существующей выдачи.
	if _, err := h.lending.GetLoan(loanID); err != nil {
		h.writeError(w, err)
		return
	}

	if h.timeline == nil {
		h.writeJSON(w, http.StatusOK, []timelineEventResponse{})
		return
	}

	events, err := h.timeline.List(loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toTimelineResponses(events))
}
