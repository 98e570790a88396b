package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"quiz-widget/internal/app"
	"quiz-widget/internal/domain"
)

type commandKind int

const (
	cmdUnknown commandKind = iota
	cmdSelect
	cmdSubmit
	cmdAdvance
	cmdRestart
	cmdQuit
	cmdHelp
)

type command struct {
	kind   commandKind
	option int
}

func parseCommand(line string) command {
	line = strings.ToLower(strings.TrimSpace(line))
	switch line {
	case "s", "submit":
		return command{kind: cmdSubmit}
	case "n", "next", "results":
		return command{kind: cmdAdvance}
	case "r", "restart":
		return command{kind: cmdRestart}
	case "q", "quit", "exit":
		return command{kind: cmdQuit}
	case "h", "help", "?":
		return command{kind: cmdHelp}
	}
	if n, err := strconv.Atoi(line); err == nil {
		return command{kind: cmdSelect, option: n - 1}
	}
	return command{kind: cmdUnknown}
}

// Terminal renders a quiz session as text and feeds line commands into it.
type Terminal struct {
	session *app.QuizSession
	out     io.Writer
	lastKey string
}

func NewTerminal(session *app.QuizSession, out io.Writer) *Terminal {
	return &Terminal{session: session, out: out}
}

// Run reads commands until quit or end of input. Timer-driven changes such as
// time-up are rendered as they arrive.
func (t *Terminal) Run(ctx context.Context, in io.Reader) error {
	updates, cancel := t.session.Subscribe()
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	t.render(t.session.View())
	for {
		select {
		case <-ctx.Done():
			return nil
		case view, ok := <-updates:
			if !ok {
				return nil
			}
			t.render(view)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd := parseCommand(line)
			quit, err := t.handle(ctx, cmd)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			if cmd.kind == cmdRestart {
				// A restart on an untouched first question looks unchanged; show it anyway.
				t.lastKey = ""
			}
			t.render(t.session.View())
		}
	}
}

func (t *Terminal) handle(ctx context.Context, cmd command) (bool, error) {
	var err error
	switch cmd.kind {
	case cmdSelect:
		err = t.session.Select(ctx, cmd.option)
	case cmdSubmit:
		err = t.session.Submit(ctx)
	case cmdAdvance:
		err = t.session.Advance(ctx)
	case cmdRestart:
		err = t.session.Restart(ctx)
	case cmdQuit:
		return true, nil
	case cmdHelp:
		fmt.Fprintln(t.out, "Commands: <number> select option, s submit, n next/results, r restart, q quit")
		return false, nil
	default:
		fmt.Fprintln(t.out, "Unknown command. Type h for help.")
		return false, nil
	}
	if errors.Is(err, domain.ErrOptionOutOfRange) {
		fmt.Fprintln(t.out, "No such option.")
		return false, nil
	}
	return false, err
}

// render prints the view when something other than the countdown changed.
func (t *Terminal) render(view domain.View) {
	key := viewKey(view)
	if key == t.lastKey {
		return
	}
	t.lastKey = key

	out := t.out
	fmt.Fprintln(out)
	if view.Loading {
		fmt.Fprintln(out, "Loading...")
		return
	}
	if view.Results != nil {
		fmt.Fprintln(out, "Congratulations!")
		fmt.Fprintln(out, view.Results.Summary)
		fmt.Fprintln(out, "[r] restart  [q] quit")
		return
	}

	fmt.Fprintf(out, "Question %d/%d  (time remaining: %ds)\n", view.QuestionNumber, view.TotalQuestions, view.SecondsRemaining)
	fmt.Fprintln(out, view.Question)
	for _, opt := range view.Options {
		marker := " "
		if opt.Selected {
			marker = ">"
		}
		suffix := ""
		switch {
		case opt.Correct:
			suffix = "  [correct]"
		case opt.Incorrect:
			suffix = "  [wrong]"
		}
		fmt.Fprintf(out, "%s %d. %s%s\n", marker, opt.Index+1, opt.Text, suffix)
	}
	if view.Feedback != "" {
		fmt.Fprintln(out, view.Feedback)
	}
	fmt.Fprintln(out, actionLine(view.Actions))
}

func actionLine(actions []domain.Action) string {
	parts := make([]string, 0, len(actions)+1)
	for _, a := range actions {
		switch a {
		case domain.ActionSubmit:
			parts = append(parts, "[s] submit")
		case domain.ActionNext:
			parts = append(parts, "[n] next question")
		case domain.ActionResults:
			parts = append(parts, "[n] view results")
		case domain.ActionRestart:
			parts = append(parts, "[r] restart")
		}
	}
	parts = append(parts, "[q] quit")
	return strings.Join(parts, "  ")
}

func viewKey(view domain.View) string {
	selected := -1
	for _, opt := range view.Options {
		if opt.Selected {
			selected = opt.Index
		}
	}
	return fmt.Sprintf("%t|%s|%d|%d|%s|%d", view.Loading, view.Phase, view.QuestionNumber, selected, view.Feedback, view.CorrectCount)
}
