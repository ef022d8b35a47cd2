package rest

import (
	"net/http"

	"github.com/AndresRojas2002/library-manager/internal/domain"
	"github.com/AndresRojas2002/library-manager/internal/service/catalog"
)

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	book, err := h.catalog.Create(catalog.NewBook{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		PublishedAt: req.PublishedAt,
		Genre:       req.Genre,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toBookResponse(book))
}

// listBooks поддерживает фильтры: q (автор/название), genre, state.
func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		books []domain.Book
		err   error
	)
	switch {
	case query.Get("q") != "":
		books, err = h.catalog.Search(query.Get("q"))
	case query.Get("genre") != "":
		books, err = h.catalog.ListByGenre(query.Get("genre"))
	case query.Get("state") == string(domain.BookStateAvailable):
		books, err = h.catalog.ListAvailable()
	case query.Get("state") == string(domain.BookStateLoaned):
		books, err = h.catalog.ListLoaned()
	default:
		books, err = h.catalog.List(parseLimit(r))
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toBookResponses(books))
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.catalog.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toBookResponse(book))
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	book, err := h.catalog.Update(r.PathValue("id"), catalog.NewBook{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		PublishedAt: req.PublishedAt,
		Genre:       req.Genre,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toBookResponse(book))
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	if _, err := h.catalog.Delete(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusNoContent, nil)
}
