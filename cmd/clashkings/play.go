package main

import (
	"context"
	"errors"
	"flag"

	"github.com/jason-s-yu/clashkings/internal/bot"
	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/session"
	"github.com/sirupsen/logrus"
)

func (a *app) runPlay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	name := fs.String("name", "You", "your display name")
	bots := fs.Int("bots", 1, "number of bot opponents (1-3)")
	difficulty := fs.String("difficulty", "intermediate", "beginner, intermediate or advanced")
	handSize := fs.Int("hand", 0, "cards dealt per seat (default 7)")
	maxAces := fs.Int("aces", 0, "aces that block drawing (default 2)")
	seed := fs.Int64("seed", 0, "shuffle seed, 0 for random")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level, err := bot.ParseDifficulty(*difficulty)
	if err != nil {
		return err
	}
	rules := game.DefaultRules()
	overrides := map[string]interface{}{}
	if *handSize > 0 {
		overrides["handSize"] = *handSize
	}
	if *maxAces > 0 {
		overrides["maxAces"] = *maxAces
	}
	if err := rules.Update(overrides); err != nil {
		return err
	}
	hc, err := a.cfg.HostConfig()
	if err != nil {
		return err
	}

	o, err := session.NewOffline(session.OfflineConfig{
		Name:          *name,
		Bots:          *bots,
		Difficulty:    level,
		Rules:         rules,
		Personalities: hc.Personalities,
		TurnDelay:     hc.TurnDelay,
		DrawDelay:     hc.DrawDelay,
		Seed:          *seed,
	}, logrus.NewEntry(a.logger).WithField("mode", "offline"))
	if err != nil {
		return err
	}
	defer o.Close()

	o.SetNoticeFn(a.out.notice)
	o.Subscribe(func(ch game.Change) {
		a.out.render(ch.State, o.Seat, false)
	})
	if err := o.Start(); err != nil {
		return err
	}
	a.out.printf("h for help\n")

	input := lines(ctx, a.in)
	for {
		var line string
		var ok bool
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
		case cmdRefresh:
			a.out.render(o.Snapshot(), o.Seat, true)
		case cmdStart:
			if o.Snapshot().Status != game.StatusGameOver {
				a.out.notice("Game still running.")
				continue
			}
			err = o.Start()
		case cmdPlay:
			err = o.Play(cmd.index, cmd.side)
		case cmdDraw:
			err = o.Draw()
		case cmdEnd:
			err = o.EndTurn()
		case cmdSay:
			err = o.Say(cmd.text)
		default:
			a.out.notice("Not available offline.")
		}
		a.reportLocal(err)
	}
}

// reportLocal shows errors the notice callback has not already shown.
func (a *app) reportLocal(err error) {
	if err == nil {
		return
	}
	if _, ok := game.IsRuleError(err); ok {
		return
	}
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		a.out.notice("Not your turn.")
	case errors.Is(err, game.ErrNotPlaying):
		a.out.notice("No game in progress.")
	default:
		a.out.notice(err.Error())
	}
}
