package main

import (
	"context"
	"github.com/myrjola/deduce/internal/e2etest"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/logging"
	"log/slog"
	"os"
	"strings"
	"time"
)

// TestPlay opens the first listed case and starts its first interrogation.
func TestPlay(ctx context.Context, client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return errors.Wrap(err, "get case list")
	}
	caseID, ok := doc.Find("#cases li").First().Attr("data-case")
	if !ok {
		return errors.New("no cases listed")
	}
	if doc, err = client.SubmitForm(ctx, doc, "form[action='/cases/"+caseID+"/start']"); err != nil {
		return errors.Wrap(err, "open case", slog.String("case_id", caseID))
	}
	if doc, err = client.SubmitForm(ctx, doc, "#interrogation .dialogues li:first-child form"); err != nil {
		return errors.Wrap(err, "start interrogation", slog.String("case_id", caseID))
	}
	if strings.TrimSpace(doc.Find("#transcript li").First().Text()) == "" {
		return errors.New("nothing recorded in the transcript", slog.String("case_id", caseID))
	}
	return nil
}

func main() {
	logger := logging.New(os.Stdout, slog.LevelDebug)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		url      = "https://" + hostname
		client   *e2etest.Client
		err      error
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready", errors.SlogError(err))
		os.Exit(1)
	}
	if err = TestPlay(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing play", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
