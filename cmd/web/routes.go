package main

import (
	"github.com/justinas/alice"
	"net/http"
	"time"
)

func (app *application) routes(defaultTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthy", app.healthy)

	session := alice.New(app.sessionManager.LoadAndSave, noSurf, app.identifyPlayer, commonContext)

	mux.Handle("GET /{$}", session.ThenFunc(app.home))
	mux.Handle("POST /cases/{caseID}/start", session.ThenFunc(app.startCase))

	mux.Handle("GET /play", session.ThenFunc(app.play))
	mux.Handle("POST /play/talk", session.ThenFunc(app.talk))
	mux.Handle("POST /play/continue", session.ThenFunc(app.continueInterrogation))
	mux.Handle("POST /play/choose", session.ThenFunc(app.choose))
	mux.Handle("POST /play/select", session.ThenFunc(app.selectAnchor))
	mux.Handle("POST /play/clear", session.ThenFunc(app.clearSelection))
	mux.Handle("POST /play/read", session.ThenFunc(app.markEvidenceRead))
	mux.Handle("POST /play/submit", session.ThenFunc(app.submit))

	return app.recoverPanic(app.logRequest(secureHeaders(timeoutHandler(mux, defaultTimeout))))
}
