// internal/kadi/processor.go
package kadi

import "fmt"

// MoveType tags a MoveRequest.
type MoveType string

const (
	MovePick           MoveType = "pick"
	MoveDrop           MoveType = "drop"
	MoveDeclareSuit    MoveType = "declare_suit"
	MoveResolveAceDrop MoveType = "resolve_ace_drop"
)

// MoveRequest is the closed tagged request type for every in-game operation.
// Cards is set for drop, Suit for declare_suit, Drop for resolve_ace_drop.
type MoveRequest struct {
	Type  MoveType `json:"type"`
	Cards []Card   `json:"cards,omitempty"`
	Suit  Suit     `json:"suit,omitempty"`
	Drop  bool     `json:"drop,omitempty"`
}

// ProcessMove applies a pick or drop for userID to the room. The room is
// expected to be a clone; every guard failure returns before any mutation, so
// an accepted call is all-or-nothing from the caller's perspective.
func ProcessMove(room *Room, userID string, req MoveRequest) error {
	if room.IsTerminated {
		return ErrGameTerminated
	}
	idx := room.playerIndex(userID)
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, userID)
	}

	switch room.Phase() {
	case PhaseAwaitingSuitDeclaration:
		return fmt.Errorf("%w: a suit declaration is pending", ErrStateConflict)
	case PhaseAwaitingAceDropResolution:
		return fmt.Errorf("%w: an ace-drop resolution is pending", ErrStateConflict)
	}

	if idx != room.CurrentPlayerIndex {
		return ErrTurnViolation
	}
	player := room.PlayerList[idx]

	switch req.Type {
	case MovePick:
		return processPick(room, player)
	case MoveDrop:
		if err := ValidateMove(room, req.Cards); err != nil {
			return err
		}
		return processDrop(room, player, req.Cards)
	default:
		return fmt.Errorf("%w: unknown move type %q", ErrInvalidMove, req.Type)
	}
}

// processPick draws the pending feeding debt (or a single card), reshuffling
// the discard stack first when the draw pile cannot satisfy it. A pending
// question card survives the pick: the next player inherits it and must
// answer in its suit or pick in turn.
func processPick(room *Room, player *Player) error {
	need := 1
	if room.FeedingCount > 0 {
		need = room.FeedingCount
	}
	if room.Deck.Size() < need {
		room.Stack = room.Deck.Reshuffle(room.Stack)
	}
	drawn, err := room.Deck.Deal(need)
	if err != nil {
		// Unreachable with 52 conserved cards; surface as integrity failure.
		return fmt.Errorf("pick of %d failed after reshuffle: %w", need, err)
	}
	player.Hand = append(player.Hand, drawn...)
	room.FeedingCount = 0
	player.CardsDropped = 0
	room.AdvanceTurn()
	return nil
}

// processDrop applies a validated drop: cards leave the hand, land on the
// discard stack, and the last card's rank decides the follow-up effect.
func processDrop(room *Room, player *Player, cards []Card) error {
	hand, err := removeFromHand(player.Hand, cards)
	if err != nil {
		return err
	}
	player.Hand = hand
	room.Stack = append(room.Stack, cards...)
	player.CardsDropped = len(cards)
	player.TotalCardsDropped += len(cards)

	// An accepted drop consumes both the suit lock and any pending question.
	room.CurrentSuit = ""
	room.clearSpecial()

	last := cards[len(cards)-1]
	switch {
	case isFeedingRank(last.Rank):
		room.FeedingCount += feedingValue(last.Rank)
		room.AdvanceTurn()

	case last.Rank == RankAce:
		if room.FeedingCount > 0 {
			// The Ace cancels the debt outright; no declaration follows.
			room.FeedingCount = 0
			room.AdvanceTurn()
		} else {
			// Hold the turn until the player declares a suit.
			room.AwaitingSpecialAction = true
			room.SpecialCard = &Card{Rank: last.Rank, Suit: last.Suit}
		}

	case isQuestionRank(last.Rank):
		// Hold the turn until someone answers in suit (or picks).
		room.AwaitingSpecialAction = true
		room.SpecialCard = &Card{Rank: last.Rank, Suit: last.Suit}

	default:
		for _, c := range cards {
			if c.Rank == RankJack {
				room.SkipCount++
			}
		}
		if last.Rank == RankKing {
			room.flipDirection()
		}
		room.AdvanceTurn()
	}

	resolveWinner(room, player)
	return nil
}

func (r *Room) flipDirection() {
	if r.GameDirection == Forward {
		r.GameDirection = Backward
	} else {
		r.GameDirection = Forward
	}
}

// removeFromHand returns the hand with each dropped card removed once.
// Dropping a card the player does not hold is an invalid move.
func removeFromHand(hand, cards []Card) ([]Card, error) {
	out := append([]Card(nil), hand...)
	for _, c := range cards {
		found := -1
		for i, h := range out {
			if h == c {
				found = i
				break
			}
		}
		if found == -1 {
			return nil, fmt.Errorf("%w: %s is not in your hand", ErrInvalidMove, c)
		}
		out = append(out[:found], out[found+1:]...)
	}
	return out, nil
}

// DeclareSuit resolves a pending Ace by locking in the suit the next play
// must match, then releases the turn.
func DeclareSuit(room *Room, userID string, suit Suit) error {
	if room.IsTerminated {
		return ErrGameTerminated
	}
	idx := room.playerIndex(userID)
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, userID)
	}
	if room.Phase() != PhaseAwaitingSuitDeclaration || room.FeedingCount > 0 {
		return fmt.Errorf("%w: no suit declaration is pending", ErrStateConflict)
	}
	if idx != room.CurrentPlayerIndex {
		return ErrTurnViolation
	}
	if !validSuits[suit] {
		return fmt.Errorf("%w: %q is not a suit", ErrInvalidMove, suit)
	}
	room.CurrentSuit = suit
	room.clearSpecial()
	room.AdvanceTurn()
	return nil
}

// ResolveAceDrop handles the two Ace choice points.
//
// While a win is deferred (ace-drop endgame), each recorded Ace holder
// responds exactly once: drop=true counter-plays an Ace from their hand onto
// the stack, drop=false declines. When every holder has responded the win is
// either cancelled (someone countered) or finalized (all declined).
//
// With an Ace sitting atop an active feeding debt, the current player chooses
// whether the Ace cancels the debt (drop=true) or leaves it for the next
// player (drop=false).
func ResolveAceDrop(room *Room, userID string, drop bool) error {
	if room.IsTerminated {
		return ErrGameTerminated
	}
	idx := room.playerIndex(userID)
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, userID)
	}

	switch room.Phase() {
	case PhaseAwaitingAceDropResolution:
		return resolveEndgameAce(room, room.PlayerList[idx], drop)

	case PhaseAwaitingSuitDeclaration:
		if room.FeedingCount == 0 {
			return fmt.Errorf("%w: no feeding debt to resolve", ErrStateConflict)
		}
		if idx != room.CurrentPlayerIndex {
			return ErrTurnViolation
		}
		if drop {
			room.FeedingCount = 0
		} else {
			// The debt survives the Ace; the suit lock does not.
			room.CurrentSuit = ""
		}
		room.clearSpecial()
		room.AdvanceTurn()
		return nil

	default:
		return fmt.Errorf("%w: no ace drop is pending", ErrStateConflict)
	}
}

// resolveEndgameAce consumes one holder's response during the deferred-win
// phase and finalizes or cancels the win once the holder set empties.
func resolveEndgameAce(room *Room, player *Player, drop bool) error {
	holder := -1
	for i, id := range room.PlayersWithAces {
		if id == player.UserID {
			holder = i
			break
		}
	}
	if holder == -1 {
		return fmt.Errorf("%w: %s holds no pending ace counter", ErrStateConflict, player.UserID)
	}

	if drop {
		ace, hand, err := takeAce(player.Hand)
		if err != nil {
			return err
		}
		player.Hand = hand
		room.Stack = append(room.Stack, ace)
		player.TotalCardsDropped++
		room.AcesDropped = append(room.AcesDropped, player.UserID)
	}
	room.PlayersWithAces = append(room.PlayersWithAces[:holder], room.PlayersWithAces[holder+1:]...)

	if len(room.PlayersWithAces) > 0 {
		return nil
	}

	// Every holder has responded.
	winnerIdx := room.playerIndex(room.PotentialWinner)
	if len(room.AcesDropped) == 0 {
		// Nobody countered: the deferred win stands.
		w := room.PlayerList[winnerIdx]
		room.terminate(&Winner{UserID: w.UserID, DisplayName: w.DisplayName})
		return nil
	}

	// The win is cancelled; play resumes past the would-be winner, who
	// carries on with an empty hand and must pick on their next turn.
	room.AwaitingAceDrops = false
	room.PotentialWinner = ""
	room.AcesDropped = nil
	if winnerIdx >= 0 {
		room.CurrentPlayerIndex = winnerIdx
	}
	room.AdvanceTurn()
	return nil
}

func takeAce(hand []Card) (Card, []Card, error) {
	for i, c := range hand {
		if c.Rank == RankAce {
			out := append([]Card(nil), hand[:i]...)
			out = append(out, hand[i+1:]...)
			return c, out, nil
		}
	}
	return Card{}, nil, fmt.Errorf("%w: no ace in hand", ErrInvalidMove)
}

// AnnounceKadi toggles the player's "niko kadi" announcement. It is surfaced
// to the other players but does not gate the win check.
func AnnounceKadi(room *Room, userID string) error {
	if room.IsTerminated {
		return ErrGameTerminated
	}
	p := room.FindPlayer(userID)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, userID)
	}
	p.KadiAnnounced = !p.KadiAnnounced
	return nil
}
