// internal/kadi/room.go
package kadi

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Direction is the order in which turns travel around the table.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// Phase describes what kind of operation the room will currently accept.
type Phase string

const (
	PhaseNormal                    Phase = "normal"
	PhaseAwaitingSpecialAnswer     Phase = "awaiting_special_answer"
	PhaseAwaitingSuitDeclaration   Phase = "awaiting_suit_declaration"
	PhaseAwaitingAceDropResolution Phase = "awaiting_ace_drop_resolution"
	PhaseTerminated                Phase = "terminated"
)

// Room seat bounds.
const (
	MinPlayers = 2
	MaxPlayers = 6

	MinDeal = 3
	MaxDeal = 10
)

// Player is one seat in a room. Hands are unordered as far as the rules are
// concerned; the slice order is only kept stable for display.
type Player struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Hand        []Card `json:"hand"`

	// CardsDropped counts cards dropped on the player's most recent turn;
	// TotalCardsDropped accumulates across the whole game.
	CardsDropped      int `json:"cards_dropped"`
	TotalCardsDropped int `json:"total_cards_dropped"`

	// KadiAnnounced marks the "niko kadi" call a player makes when they are
	// about to go out. Display-only; it does not gate the win check.
	KadiAnnounced bool `json:"kadi_announced"`
}

func (p *Player) holdsAce() bool {
	return hasAce(p.Hand)
}

// Winner records who took the game.
type Winner struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Room is the aggregate root holding all mutable match state. It is only
// mutated through the processor, on a clone, once per accepted operation.
type Room struct {
	RoomID     uuid.UUID `json:"room_id"`
	RoomCode   string    `json:"room_code"`
	OwnerID    string    `json:"owner_id"`
	NumPlayers int       `json:"num_players"`
	NumToDeal  int       `json:"num_to_deal"`

	PlayerList         []*Player `json:"player_list"`
	CurrentPlayerIndex int       `json:"current_player_index"`
	GameDirection      Direction `json:"game_direction"`

	Deck *Deck `json:"deck"`
	// Stack is the discard stack; the last element is the top card that
	// constrains the next play. Never empty after creation.
	Stack []Card `json:"stack"`

	SkipCount    int `json:"skip_count"`
	FeedingCount int `json:"feeding_count"`

	AwaitingSpecialAction bool  `json:"awaiting_special_action"`
	SpecialCard           *Card `json:"special_card,omitempty"`
	CurrentSuit           Suit  `json:"current_suit,omitempty"`

	IsTerminated bool    `json:"is_terminated"`
	Winner       *Winner `json:"winner,omitempty"`

	// Ace-drop endgame: a hand-depletion win is deferred while at least two
	// opponents hold Aces they may counter-play.
	PotentialWinner  string   `json:"potential_winner,omitempty"`
	PlayersWithAces  []string `json:"players_with_aces,omitempty"`
	AwaitingAceDrops bool     `json:"awaiting_ace_drops"`
	AcesDropped      []string `json:"aces_dropped,omitempty"`

	CreatedAt    time.Time  `json:"created_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
	TerminatedAt *time.Time `json:"terminated_at,omitempty"`
}

// NewRoom builds a fresh room: full deck, shuffled, starting top card with a
// neutral rank moved to the discard stack, owner seated and dealt.
func NewRoom(numPlayers, numToDeal int, ownerID, ownerName string) (*Room, error) {
	if numPlayers < MinPlayers || numPlayers > MaxPlayers {
		return nil, fmt.Errorf("%w: numPlayers must be in [%d,%d], got %d", ErrInvalidMove, MinPlayers, MaxPlayers, numPlayers)
	}
	if numToDeal < MinDeal || numToDeal > MaxDeal {
		return nil, fmt.Errorf("%w: numToDeal must be in [%d,%d], got %d", ErrInvalidMove, MinDeal, MaxDeal, numToDeal)
	}
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id required", ErrInvalidMove)
	}

	deck := NewDeck()
	deck.Shuffle()

	top, err := takeStartingCard(deck)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	room := &Room{
		RoomID:             uuid.New(),
		RoomCode:           generateRoomCode(),
		OwnerID:            ownerID,
		NumPlayers:         numPlayers,
		NumToDeal:          numToDeal,
		CurrentPlayerIndex: 0,
		GameDirection:      Forward,
		Deck:               deck,
		Stack:              []Card{top},
		CreatedAt:          now,
		LastActiveAt:       now,
	}

	hand, err := deck.Deal(numToDeal)
	if err != nil {
		return nil, err
	}
	room.PlayerList = []*Player{{
		UserID:      ownerID,
		DisplayName: ownerName,
		Hand:        hand,
	}}
	return room, nil
}

// takeStartingCard removes the first neutral-ranked card from the draw pile.
// A full 52-card deck always contains one; its absence is an integrity error.
func takeStartingCard(d *Deck) (Card, error) {
	for i, c := range d.Cards {
		if isNeutralRank(c.Rank) {
			d.Cards = append(d.Cards[:i], d.Cards[i+1:]...)
			return c, nil
		}
	}
	return Card{}, fmt.Errorf("%w: no neutral starting card in deck", ErrInsufficientCards)
}

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateRoomCode returns the short human-shareable join secret.
func generateRoomCode() string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	code := make([]byte, 6)
	for i := range code {
		code[i] = roomCodeAlphabet[r.Intn(len(roomCodeAlphabet))]
	}
	return string(code)
}

// Phase derives the room's current phase from the aggregate fields.
func (r *Room) Phase() Phase {
	switch {
	case r.IsTerminated:
		return PhaseTerminated
	case r.AwaitingAceDrops:
		return PhaseAwaitingAceDropResolution
	case r.AwaitingSpecialAction && r.SpecialCard != nil && r.SpecialCard.Rank == RankAce:
		return PhaseAwaitingSuitDeclaration
	case r.AwaitingSpecialAction && r.SpecialCard != nil && isQuestionRank(r.SpecialCard.Rank):
		return PhaseAwaitingSpecialAnswer
	}
	return PhaseNormal
}

// TopCard returns the card currently constraining play.
func (r *Room) TopCard() Card {
	return r.Stack[len(r.Stack)-1]
}

// CurrentPlayer returns the seat whose turn it is.
func (r *Room) CurrentPlayer() *Player {
	return r.PlayerList[r.CurrentPlayerIndex]
}

func (r *Room) playerIndex(userID string) int {
	for i, p := range r.PlayerList {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

// FindPlayer returns the seat for userID, or nil.
func (r *Room) FindPlayer(userID string) *Player {
	if i := r.playerIndex(userID); i >= 0 {
		return r.PlayerList[i]
	}
	return nil
}

// clearSpecial resets the pending special-action state.
func (r *Room) clearSpecial() {
	r.AwaitingSpecialAction = false
	r.SpecialCard = nil
}

// terminate finalizes the room exactly once. Subsequent calls are no-ops, so
// the false→true transition and winner assignment are single-shot.
func (r *Room) terminate(w *Winner) {
	if r.IsTerminated {
		return
	}
	r.IsTerminated = true
	r.Winner = w
	now := time.Now().UTC()
	r.TerminatedAt = &now
	r.AwaitingAceDrops = false
	r.clearSpecial()
}

// Clone returns a deep copy. The engine mutates clones only, so a failed
// operation never aliases or corrupts the loaded state.
func (r *Room) Clone() *Room {
	cp := *r
	cp.PlayerList = make([]*Player, len(r.PlayerList))
	for i, p := range r.PlayerList {
		pc := *p
		pc.Hand = append([]Card(nil), p.Hand...)
		cp.PlayerList[i] = &pc
	}
	cp.Deck = &Deck{Cards: append([]Card(nil), r.Deck.Cards...)}
	cp.Stack = append([]Card(nil), r.Stack...)
	cp.PlayersWithAces = append([]string(nil), r.PlayersWithAces...)
	cp.AcesDropped = append([]string(nil), r.AcesDropped...)
	if r.SpecialCard != nil {
		sc := *r.SpecialCard
		cp.SpecialCard = &sc
	}
	if r.Winner != nil {
		w := *r.Winner
		cp.Winner = &w
	}
	if r.TerminatedAt != nil {
		t := *r.TerminatedAt
		cp.TerminatedAt = &t
	}
	return &cp
}

// addPlayer seats a new player and deals their opening hand, reshuffling the
// discard stack first if the draw pile runs short.
func (r *Room) addPlayer(userID, displayName string) error {
	if len(r.PlayerList) >= r.NumPlayers {
		return ErrRoomFull
	}
	if r.Deck.Size() < r.NumToDeal {
		r.Stack = r.Deck.Reshuffle(r.Stack)
	}
	hand, err := r.Deck.Deal(r.NumToDeal)
	if err != nil {
		return err
	}
	r.PlayerList = append(r.PlayerList, &Player{
		UserID:      userID,
		DisplayName: displayName,
		Hand:        hand,
	})
	return nil
}

// CardCount sums every card visible to the room: hands, draw pile, discard
// stack. It must equal 52 at every observable point.
func (r *Room) CardCount() int {
	n := r.Deck.Size() + len(r.Stack)
	for _, p := range r.PlayerList {
		n += len(p.Hand)
	}
	return n
}
