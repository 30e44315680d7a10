// internal/game/tutorial.go
package game

import (
	"errors"
	"sync"

	"github.com/jason-s-yu/clashkings/internal/models"
)

// TutorialAction is the input a tutorial step waits for.
type TutorialAction string

const (
	TutorialNext     TutorialAction = "NEXT"
	TutorialPlayCard TutorialAction = "PLAY_CARD_0"
	TutorialEndTurn  TutorialAction = "END_TURN"
	TutorialDraw     TutorialAction = "DRAW"
	TutorialPlayAce  TutorialAction = "PLAY_ACE"
	TutorialFinish   TutorialAction = "FINISH"
)

// TutorialStep is one scripted instruction.
type TutorialStep struct {
	ID             string         `json:"id"`
	Text           string         `json:"text"`
	RequiredAction TutorialAction `json:"requiredAction"`
}

// TutorialSteps is the fixed script.
var TutorialSteps = []TutorialStep{
	{ID: "INTRO", Text: "Welcome to Clash of Kings. Your goal is to empty your hand.", RequiredAction: TutorialNext},
	{ID: "PLAY_1", Text: "Rule: Play Higher Rank & Opposite Suit (e.g. Hearts ♥ on Spades ♠). Tap Heart 5.", RequiredAction: TutorialPlayCard},
	{ID: "PLAY_2", Text: "Great! Now chain the Spade 6 (Black) onto the Heart 5.", RequiredAction: TutorialPlayCard},
	{ID: "STEP_END_TURN", Text: "Locked to Left Pile! You cannot switch sides mid-turn. Club 2 is too low for Left. End Turn.", RequiredAction: TutorialEndTurn},
	{ID: "DRAW_INFO", Text: "Opponent played Diamond 4 on Right. Your turn! Draw a card.", RequiredAction: TutorialDraw},
	{ID: "PLAY_ACE", Text: "You drew an Ace! Aces are wild and reset the pile. Tap the Diamond Ace to clear the Right Pile.", RequiredAction: TutorialPlayAce},
	{ID: "FINISH", Text: "You are ready to rule! Good luck.", RequiredAction: TutorialFinish},
}

// ErrWrongTutorialAction is returned when the input does not match the current step.
var ErrWrongTutorialAction = errors.New("tutorial expects a different action")

// TrainerName is the scripted opponent.
const TrainerName = "Trainer"

// NewTutorialState builds the reduced scripted table. Hands are left in
// script order so the first card is always the one the step points at.
func NewTutorialState(playerName string) *GameState {
	if playerName == "" {
		playerName = "You"
	}
	return &GameState{
		Deck: []models.Card{{ID: "t-ace", Suit: models.Diamonds, Rank: models.Ace}},
		Players: []models.Player{
			{ID: 0, Name: playerName, Connected: true, Hand: []models.Card{
				{ID: "t-h5", Suit: models.Hearts, Rank: 5},
				{ID: "t-s6", Suit: models.Spades, Rank: 6},
				{ID: "t-c2", Suit: models.Clubs, Rank: 2},
			}},
			{ID: 1, Name: TrainerName, IsBot: true, Connected: true, Hand: []models.Card{
				{ID: "t-b-d4", Suit: models.Diamonds, Rank: 4},
				{ID: "t-b-hk", Suit: models.Hearts, Rank: models.King},
			}},
		},
		LeftPile:  Pile{Side: models.Left, Cards: []models.Card{{ID: "t-left", Suit: models.Spades, Rank: 4}}},
		RightPile: Pile{Side: models.Right, Cards: []models.Card{{ID: "t-right", Suit: models.Clubs, Rank: 3}}},
		Status:    StatusTutorial,
		Message:   CodeTutorial,
		Rules:     DefaultRules(),
	}
}

// Tutorial walks the step script against its own engine.
type Tutorial struct {
	Engine *Engine

	mu   sync.Mutex
	step int
}

// NewTutorial creates a tutorial session for the given player name.
func NewTutorial(playerName string) *Tutorial {
	return &Tutorial{Engine: NewEngine(NewTutorialState(playerName), nil)}
}

// Step returns the current instruction. ok is false once the script is done.
func (t *Tutorial) Step() (TutorialStep, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.step >= len(TutorialSteps) {
		return TutorialStep{}, false
	}
	return TutorialSteps[t.step], true
}

// Perform applies the input if it is the one the current step requires.
func (t *Tutorial) Perform(action TutorialAction) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.step >= len(TutorialSteps) || TutorialSteps[t.step].RequiredAction != action {
		return ErrWrongTutorialAction
	}

	var err error
	switch action {
	case TutorialPlayCard:
		err = t.Engine.Apply(Play(0, 0, models.Left))
	case TutorialEndTurn:
		if err = t.Engine.Apply(EndTurn(0)); err == nil {
			t.trainerReply()
		}
	case TutorialDraw:
		err = t.Engine.Apply(Draw(0))
	case TutorialPlayAce:
		err = t.playAce()
	}
	if err != nil {
		return err
	}
	t.step++
	return nil
}

// trainerReply places the trainer's Diamond 4 on the right pile and hands
// the turn straight back.
func (t *Tutorial) trainerReply() {
	t.Engine.mutate(func(s *GameState) {
		trainer := s.PlayerBySeat(1)
		if trainer == nil {
			return
		}
		for i, c := range trainer.Hand {
			if c.Suit == models.Diamonds && c.Rank == 4 {
				trainer.Hand = append(trainer.Hand[:i:i], trainer.Hand[i+1:]...)
				s.RightPile.Cards = append(s.RightPile.Cards, c)
				s.RightPile.Cleared = false
				s.Message = PlayMessage(trainer.ID, c)
				break
			}
		}
		s.CurrentPlayerIndex = 0
	})
}

func (t *Tutorial) playAce() error {
	s := t.Engine.Snapshot()
	for i, c := range s.Players[0].Hand {
		if c.IsAce() {
			return t.Engine.Apply(Play(0, i, c.Suit.Side()))
		}
	}
	return &RuleError{Seat: 0, Reason: ReasonNoSuchCard}
}
