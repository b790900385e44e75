package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	if in.Username == "" || in.Password == "" {
		a.writeError(w, r, common.NewValidationError("username and password are required", "username", "password"))
		return
	}
	pair, err := a.svc.Users.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "login successful", pair)
}

func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeJSON(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	if in.RefreshToken == "" {
		a.writeError(w, r, common.NewValidationError("is required", "refreshToken"))
		return
	}
	pair, err := a.svc.Users.RefreshToken(r.Context(), in.RefreshToken)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", pair)
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeJSON(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.svc.Users.Logout(r.Context(), in.RefreshToken); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "logged out", nil)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	u, err := a.svc.Users.Me(r.Context(), actor(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", u)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var in services.NewUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	u, err := a.svc.Users.CreateUser(r.Context(), actor(r), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "user created", u)
}

func (a *API) setPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.svc.Users.SetPassword(r.Context(), actor(r), chi.URLParam(r, "id"), in.Password); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "password updated", nil)
}
