package main

import (
	"context"
	"errors"
	"flag"

	"github.com/jason-s-yu/clashkings/internal/game"
)

// tutorialAction maps a typed command onto the scripted input it stands for.
func tutorialAction(cmd command, step game.TutorialStep) (game.TutorialAction, bool) {
	switch cmd.kind {
	case cmdNext:
		if step.RequiredAction == game.TutorialFinish {
			return game.TutorialFinish, true
		}
		return game.TutorialNext, true
	case cmdPlay:
		if step.RequiredAction == game.TutorialPlayAce {
			return game.TutorialPlayAce, true
		}
		return game.TutorialPlayCard, true
	case cmdAce:
		return game.TutorialPlayAce, true
	case cmdDraw:
		return game.TutorialDraw, true
	case cmdEnd:
		return game.TutorialEndTurn, true
	}
	return "", false
}

func (a *app) runTutorial(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tutorial", flag.ContinueOnError)
	name := fs.String("name", "You", "your display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t := game.NewTutorial(*name)
	t.Engine.Subscribe(func(ch game.Change) { a.out.render(ch.State, 0, false) })
	a.out.render(t.Engine.Snapshot(), 0, true)

	input := lines(ctx, a.in)
	for {
		step, ok := t.Step()
		if !ok {
			a.out.printf("Tutorial complete. Try \"clashkings play\".\n")
			return nil
		}
		a.out.printf("\n%s\n", step.Text)

		var line string
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-input:
			if !ok {
				return nil
			}
		}

		cmd, err := parseCommand(line)
		if errors.Is(err, errEmptyCommand) {
			continue
		}
		if err != nil {
			a.out.notice(err.Error())
			continue
		}
		switch cmd.kind {
		case cmdQuit:
			return nil
		case cmdHelp:
			a.out.printf("%s\n", helpText)
			continue
		case cmdRefresh:
			a.out.render(t.Engine.Snapshot(), 0, true)
			continue
		}

		action, ok := tutorialAction(cmd, step)
		if !ok {
			a.out.notice("Not part of the tutorial.")
			continue
		}
		if err := t.Perform(action); err != nil {
			if errors.Is(err, game.ErrWrongTutorialAction) {
				a.out.notice("Follow the instruction.")
				continue
			}
			a.out.notice(err.Error())
		}
	}
}
