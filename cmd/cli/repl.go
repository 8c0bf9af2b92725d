package main

import (
	"bufio"
	"context"
	"fmt"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/game"
	"github.com/myrjola/deduce/internal/gameerr"
	"io"
	"strings"
)

const replHelp = `Commands:
  talk <dialogue>   start an interrogation
  continue          hear the next line (also: c)
  choose <choice>   answer with a choice
  leave             end the interrogation
  select <anchor>   pick evidence:<id> or transcript:<line>, two picks form a deduction
  clear             drop the picked anchor
  evidence          list the evidence and mark it read
  transcript        list what has been said
  status            show the progress of the case
  submit            hand in the solution
  quit              stop playing`

// repl plays one game with line commands.
type repl struct {
	g       *game.Game
	out     io.Writer
	save    func(context.Context, *game.Game) error
	printed int
}

func newREPL(g *game.Game, out io.Writer, save func(context.Context, *game.Game) error) *repl {
	return &repl{g: g, out: out, save: save, printed: 0}
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	snapshot, err := r.g.Snapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "snapshot")
	}
	r.printf("%s\n\n%s\n", snapshot.Title, strings.TrimSpace(snapshot.Summary))
	r.printDialogues(snapshot)
	r.printJournal()
	r.printf("Type help for the commands.\n")

	scanner := bufio.NewScanner(in)
	for {
		r.printf("> ")
		if !scanner.Scan() {
			r.printf("\n")
			return errors.Wrap(scanner.Err(), "read command")
		}
		verb, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		arg = strings.TrimSpace(arg)
		if verb == "quit" || verb == "exit" {
			return nil
		}
		changed, err := r.execute(ctx, verb, arg)
		switch {
		case errors.Is(err, gameerr.ErrInvalidArgument), errors.Is(err, gameerr.ErrInvalidState):
			r.printf("! %v\n", err)
		case err != nil:
			return err
		}
		r.printJournal()
		if changed {
			if err = r.save(ctx, r.g); err != nil {
				return err
			}
		}
		if err = r.printPrompt(ctx); err != nil {
			return err
		}
	}
}

// execute runs one command and reports whether it may have changed the game.
func (r *repl) execute(ctx context.Context, verb, arg string) (bool, error) {
	switch verb {
	case "":
		return false, nil
	case "help":
		r.printf("%s\n", replHelp)
		return false, nil
	case "talk":
		return true, r.g.Talk(ctx, arg) //nolint:wrapcheck // annotated by the game
	case "continue", "c":
		ok, err := r.g.Continue()
		if err == nil && !ok {
			r.printf("Nobody is talking.\n")
		}
		return ok, err //nolint:wrapcheck // annotated by the game
	case "choose":
		ok, err := r.g.Choose(arg)
		if err == nil && !ok {
			r.printf("That is not an option.\n")
		}
		return ok, err //nolint:wrapcheck // annotated by the game
	case "leave":
		r.g.Leave()
		return false, nil
	case "select":
		_, err := r.g.Select(ctx, arg)
		return true, err //nolint:wrapcheck // annotated by the game
	case "clear":
		r.g.ClearSelection()
		return false, nil
	case "evidence":
		return true, r.listEvidence(ctx)
	case "transcript":
		return false, r.listTranscript(ctx)
	case "status":
		return false, r.printStatus(ctx)
	case "submit":
		return true, r.g.Submit() //nolint:wrapcheck // annotated by the game
	default:
		r.printf("Unknown command %q. Type help for the commands.\n", verb)
		return false, nil
	}
}

func (r *repl) listEvidence(ctx context.Context) error {
	snapshot, err := r.g.Snapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "snapshot")
	}
	for _, e := range snapshot.Evidence {
		marker := ""
		if e.New {
			marker = " (new)"
		}
		r.printf("%s  %s%s\n    %s\n", e.Anchor, e.Title, marker, e.Description)
		if e.New {
			if err = r.g.MarkEvidenceRead(e.ID); err != nil {
				return err //nolint:wrapcheck // annotated by the game
			}
		}
	}
	return nil
}

func (r *repl) listTranscript(ctx context.Context) error {
	snapshot, err := r.g.Snapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "snapshot")
	}
	for _, l := range snapshot.Transcript {
		anchor := l.Anchor
		if anchor == "" {
			anchor = "-"
		}
		r.printf("%s  %s: %s\n", anchor, l.SpeakerID, l.Text)
	}
	return nil
}

func (r *repl) printStatus(ctx context.Context) error {
	snapshot, err := r.g.Snapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "snapshot")
	}
	p := snapshot.Progress
	r.printf("Status: %s\nRequired deductions: %d/%d\nContradictions: %d (at least %d)\n",
		p.Status, p.RequiredFound, p.RequiredTotal, p.Contradictions, p.MinimumContradictions)
	if snapshot.Selected != "" {
		r.printf("Selected: %s\n", snapshot.Selected)
	}
	for _, d := range snapshot.Discovered {
		r.printf("  %s (%s) %s\n", d.Title, d.Type, d.Description)
	}
	return nil
}

// printPrompt tells what the player can do next.
func (r *repl) printPrompt(ctx context.Context) error {
	snapshot, err := r.g.Snapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "snapshot")
	}
	switch view := snapshot.Interrogation; {
	case snapshot.Completed:
		r.printf("The case is closed.\n")
	case view == nil:
		r.printDialogues(snapshot)
	case len(view.Choices) > 0:
		for _, c := range view.Choices {
			r.printf("  choose %s: %s\n", c.ID, c.Text)
		}
	default:
		r.printf("  continue\n")
	}
	return nil
}

func (r *repl) printDialogues(snapshot game.Snapshot) {
	talks := make([]string, 0, len(snapshot.Dialogues))
	for _, d := range snapshot.Dialogues {
		talks = append(talks, fmt.Sprintf("%s (%s)", d.ID, d.SubjectID))
	}
	r.printf("You can talk to: %s\n", strings.Join(talks, ", "))
}

func (r *repl) printJournal() {
	for _, e := range r.g.JournalSince(r.printed) {
		r.printf("* %s\n", e.Text)
		r.printed = e.Seq
	}
}

func (r *repl) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}
