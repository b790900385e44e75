package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// filterParams are the query parameters turned into exact-match filters on
// entity listings, when the kind has such a field.
var filterParams = []string{"status", "inmateId", "severity", "priority", "role", "woreda", "prisonName", "caseType"}

type entityHandler[T models.Entity] struct {
	api *API
	svc *services.EntityService[T]
}

// mountEntity registers the CRUD routes for one kind under /{plural}. The
// create route is left to the caller when withCreate is false.
func mountEntity[T models.Entity](r chi.Router, a *API, plural string, svc *services.EntityService[T], withCreate bool) {
	h := &entityHandler[T]{api: a, svc: svc}
	base := "/" + plural
	r.Get(base, h.list)
	if withCreate {
		r.Post(base, h.create)
	}
	r.Get(base+"/{id}", h.get)
	r.Put(base+"/{id}", h.update)
	r.Patch(base+"/{id}", h.update)
	r.Delete(base+"/{id}", h.delete)
}

func (h *entityHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := pageRequest(q)
	if err != nil {
		h.api.writeError(w, r, err)
		return
	}
	from, to, err := dateRange(q)
	if err != nil {
		h.api.writeError(w, r, err)
		return
	}
	equals := map[string]any{}
	for _, k := range filterParams {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			equals[k] = v
		}
	}

	out, err := h.svc.List(r.Context(), actor(r), services.ListParams{
		PageRequest: page,
		Search:      strings.TrimSpace(searchTerm(q)),
		Equals:      equals,
		From:        from,
		To:          to,
	})
	if err != nil {
		h.api.writeError(w, r, err)
		return
	}
	writePage(w, out)
}

func (h *entityHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	var item T
	if err := decodeJSON(w, r, &item); err != nil {
		h.api.writeError(w, r, err)
		return
	}
	out, err := h.svc.Create(r.Context(), actor(r), item)
	if err != nil {
		h.api.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, string(h.svc.Kind())+" created", out)
}

func (h *entityHandler[T]) get(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		h.api.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", out)
}

func (h *entityHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	var partial map[string]any
	if err := decodeJSON(w, r, &partial); err != nil {
		h.api.writeError(w, r, err)
		return
	}
	out, err := h.svc.Update(r.Context(), actor(r), chi.URLParam(r, "id"), partial)
	if err != nil {
		h.api.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, string(h.svc.Kind())+" updated", out)
}

func (h *entityHandler[T]) delete(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Delete(r.Context(), actor(r), chi.URLParam(r, "id"), r.URL.Query().Get("reason"))
	if err != nil {
		h.api.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, string(h.svc.Kind())+" deleted", nil)
}
