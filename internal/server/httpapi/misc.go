package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

func (a *API) addBehaviorLog(w http.ResponseWriter, r *http.Request) {
	var entry models.BehaviorLog
	if err := decodeJSON(w, r, &entry); err != nil {
		a.writeError(w, r, err)
		return
	}
	rec, err := a.svc.Parole.AddBehaviorLog(r.Context(), actor(r), chi.URLParam(r, "id"), entry)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "behavior log added", rec)
}

func (a *API) dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := dateRange(q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	rng := services.StatsRange{Name: q.Get("range"), Start: from}
	if to != nil {
		// the dashboard period is half-open
		end := to.Add(1)
		rng.End = &end
	}
	d, err := a.svc.Stats.Dashboard(r.Context(), actor(r), rng)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", d)
}

func (a *API) presignUpload(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Purpose string `json:"purpose"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	ticket, err := a.svc.Uploads.Presign(r.Context(), actor(r), in.Purpose)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", ticket)
}

func (a *API) downloadURL(w http.ResponseWriter, r *http.Request) {
	ticket, err := a.svc.Uploads.DownloadURL(r.Context(), actor(r), r.URL.Query().Get("key"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", ticket)
}
