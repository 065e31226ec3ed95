package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"campaignomatic/internal/domain"
)

func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.Config.MaxBodyBytes)

	var req domain.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		verr := domain.NewValidationError()
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			verr.AddField(typeErr.Field, "Expected string, received "+typeErr.Value)
		} else {
			verr.AddForm("Invalid JSON body")
		}
		a.fail(w, r, verr)
		return
	}

	res, err := a.Generator.Generate(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}
