package main

import (
	"github.com/myrjola/deduce/internal/contexthelpers"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"log/slog"
	"net/http"
)

type caseTemplateData struct {
	ID      string
	Title   string
	Summary string
	// Status is empty until the player opens the case.
	Status string
}

type homeTemplateData struct {
	BaseTemplateData
	Cases []caseTemplateData
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playerID, _ := contexthelpers.PlayerID(ctx)
	caseIDs, err := app.library.CaseIDs(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	data := homeTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Cases:            make([]caseTemplateData, 0, len(caseIDs)),
	}
	for _, caseID := range caseIDs {
		definition, caseErr := app.library.Cases.Get(ctx, caseID)
		if caseErr != nil {
			app.serverError(w, r, errors.Wrap(caseErr, "load case", slog.String("case_id", caseID)))
			return
		}
		status, statusErr := app.games.status(ctx, playerID, definition.CaseID())
		if statusErr != nil {
			app.serverError(w, r, statusErr)
			return
		}
		data.Cases = append(data.Cases, caseTemplateData{
			ID:      definition.CaseID(),
			Title:   definition.Title(),
			Summary: definition.Summary(),
			Status:  status,
		})
	}

	app.render(w, r, http.StatusOK, "home", data)
}

// startCase opens a case for the player, resuming saved progress, and makes it the case being played.
func (app *application) startCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playerID, _ := contexthelpers.PlayerID(ctx)
	g, release, err := app.games.get(ctx, playerID, r.PathValue("caseID"))
	if errors.Is(err, gameerr.ErrNotFound) || errors.Is(err, gameerr.ErrInvalidArgument) {
		app.notFound(w, r)
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	defer release()
	if err = app.games.save(ctx, playerID, g); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.sessionManager.Put(ctx, caseIDSessionKey, g.CaseID())
	http.Redirect(w, r, "/play", http.StatusSeeOther)
}
