package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/prisonkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

func (a *API) listArchives(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := pageRequest(q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	from, to, err := dateRange(q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	restored, err := parseBool(q, "isRestored")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	out, err := a.svc.Archive.List(r.Context(), actor(r), services.ArchiveFilter{
		PageRequest: page,
		EntityType:  strings.TrimSpace(q.Get("entityType")),
		IsRestored:  restored,
		From:        from,
		To:          to,
		Search:      searchTerm(q),
		DeletedBy:   q.Get("deletedBy"),
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writePage(w, out)
}

func (a *API) getArchive(w http.ResponseWriter, r *http.Request) {
	view, err := a.svc.Archive.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", view)
}

func (a *API) restoreArchive(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.Archive.Restore(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "item restored successfully", out)
}

func (a *API) deleteArchive(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Archive.PermanentlyDelete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "archive permanently deleted", nil)
}

func (a *API) manualArchive(w http.ResponseWriter, r *http.Request) {
	var in services.ManualArchiveInput
	if err := decodeJSON(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	caller := actor(r)
	rec, err := a.svc.Archive.ManualArchive(r.Context(), &caller, in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "item archived", rec)
}

func (a *API) manualArchivePublic(w http.ResponseWriter, r *http.Request) {
	var in services.ManualArchiveInput
	if err := decodeJSON(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	rec, err := a.svc.Archive.ManualArchive(r.Context(), nil, in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "item archived", rec)
}
