package rest

import (
	"net/http"

	"github.com/AndresRojas2002/library-manager/internal/domain"
	"github.com/AndresRojas2002/library-manager/internal/service/readers"
)

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	user, err := h.readers.Create(readers.NewUser{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// listUsers поддерживает фильтры: q (имя/фамилия), state.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		users []domain.User
		err   error
	)
	switch {
	case query.Get("q") != "":
		users, err = h.readers.Search(query.Get("q"))
	case query.Get("state") == string(domain.UserStateWithLoan):
		users, err = h.readers.ListWithLoan()
	case query.Get("state") == string(domain.UserStateWithoutLoan):
		users, err = h.readers.ListWithoutLoan()
	default:
		users, err = h.readers.List(parseLimit(r))
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toUserResponses(users))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.readers.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	user, err := h.readers.Update(r.PathValue("id"), readers.NewUser{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if _, err := h.readers.Delete(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusNoContent, nil)
}
