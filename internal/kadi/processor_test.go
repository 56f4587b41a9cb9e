// internal/kadi/processor_test.go
package kadi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessMoveGuards(t *testing.T) {
	t.Run("terminated room", func(t *testing.T) {
		room := newTestRoom(2)
		room.IsTerminated = true
		err := ProcessMove(room, "p0", MoveRequest{Type: MovePick})
		assert.ErrorIs(t, err, ErrGameTerminated)
	})

	t.Run("unknown player", func(t *testing.T) {
		room := newTestRoom(2)
		err := ProcessMove(room, "stranger", MoveRequest{Type: MovePick})
		assert.ErrorIs(t, err, ErrPlayerNotFound)
	})

	t.Run("out of turn", func(t *testing.T) {
		room := newTestRoom(2)
		err := ProcessMove(room, "p1", MoveRequest{Type: MovePick})
		assert.ErrorIs(t, err, ErrTurnViolation)
	})

	t.Run("pending suit declaration blocks moves", func(t *testing.T) {
		room := newTestRoom(2)
		room.AwaitingSpecialAction = true
		room.SpecialCard = &Card{RankAce, Hearts}
		err := ProcessMove(room, "p0", MoveRequest{Type: MovePick})
		assert.ErrorIs(t, err, ErrStateConflict)
	})

	t.Run("pending ace drops block moves", func(t *testing.T) {
		room := newTestRoom(2)
		room.AwaitingAceDrops = true
		err := ProcessMove(room, "p0", MoveRequest{Type: MovePick})
		assert.ErrorIs(t, err, ErrStateConflict)
	})

	t.Run("unknown move type", func(t *testing.T) {
		room := newTestRoom(2)
		err := ProcessMove(room, "p0", MoveRequest{Type: "shuffle"})
		assert.ErrorIs(t, err, ErrInvalidMove)
	})
}

func TestPickDrawsOneAndAdvances(t *testing.T) {
	room := newTestRoom(2)
	before := room.Deck.Size()

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{Type: MovePick}))
	assert.Len(t, room.PlayerList[0].Hand, 1)
	assert.Equal(t, before-1, room.Deck.Size())
	assert.Equal(t, 1, room.CurrentPlayerIndex)
	assert.Equal(t, PhaseNormal, room.Phase())
}

func TestPickServesFeedingDebt(t *testing.T) {
	room := newTestRoom(3)
	room.FeedingCount = 3

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{Type: MovePick}))
	assert.Len(t, room.PlayerList[0].Hand, 3)
	assert.Equal(t, 0, room.FeedingCount, "the debt is settled in full")
	assert.Equal(t, 1, room.CurrentPlayerIndex)
}

func TestPickPassesQuestionToNextPlayer(t *testing.T) {
	room := newTestRoom(2)
	room.Stack = []Card{{RankEight, Spades}}
	room.AwaitingSpecialAction = true
	room.SpecialCard = &Card{RankEight, Spades}

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{Type: MovePick}))
	assert.Equal(t, PhaseAwaitingSpecialAnswer, room.Phase(), "the question outlives the pick")
	require.NotNil(t, room.SpecialCard)
	assert.Equal(t, Card{RankEight, Spades}, *room.SpecialCard)
	assert.Equal(t, 1, room.CurrentPlayerIndex)

	// The inheritor is still bound to answer in suit.
	room.PlayerList[1].Hand = []Card{{RankNine, Hearts}, {RankNine, Spades}}
	err := ProcessMove(room, "p1", MoveRequest{Type: MoveDrop, Cards: []Card{{RankNine, Hearts}}})
	assert.ErrorIs(t, err, ErrInvalidMove)

	require.NoError(t, ProcessMove(room, "p1", MoveRequest{Type: MoveDrop, Cards: []Card{{RankNine, Spades}}}))
	assert.Equal(t, PhaseNormal, room.Phase(), "an in-suit answer clears the question")
}

func TestPickReshufflesWhenDrawPileEmpty(t *testing.T) {
	room := newTestRoom(2)
	room.Deck.Cards = nil
	room.Stack = []Card{
		{RankNine, Clubs},
		{RankTen, Clubs},
		{RankSeven, Spades},
	}

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{Type: MovePick}))
	assert.Len(t, room.PlayerList[0].Hand, 1)
	require.Len(t, room.Stack, 1)
	assert.Equal(t, Card{RankSeven, Spades}, room.TopCard())
	assert.Equal(t, 1, room.Deck.Size())
}

func TestDropRejectsCardNotInHand(t *testing.T) {
	room := newTestRoom(2)
	room.PlayerList[0].Hand = []Card{{RankNine, Spades}}

	err := ProcessMove(room, "p0", MoveRequest{Type: MoveDrop, Cards: []Card{{RankSeven, Spades}}})
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.Len(t, room.PlayerList[0].Hand, 1, "a rejected drop leaves the hand alone")
	assert.Len(t, room.Stack, 1)
}

func TestDropFeedingCardAddsDebt(t *testing.T) {
	room := newTestRoom(2)
	room.PlayerList[0].Hand = []Card{{RankTwo, Spades}, {RankNine, Hearts}}

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{Type: MoveDrop, Cards: []Card{{RankTwo, Spades}}}))
	assert.Equal(t, 2, room.FeedingCount)
	assert.Equal(t, 1, room.CurrentPlayerIndex)
	assert.Equal(t, Card{RankTwo, Spades}, room.TopCard())
}

func TestDropFeedingCardStacksDebt(t *testing.T) {
	room := newTestRoom(2)
	room.FeedingCount = 2
	room.Stack = []Card{{RankTwo, Spades}}
	room.PlayerList[0].Hand = []Card{{RankThree, Spades}, {RankNine, Hearts}}

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{Type: MoveDrop, Cards: []Card{{RankThree, Spades}}}))
	assert.Equal(t, 5, room.FeedingCount, "a counter feeding card adds its value to the debt")
}

func TestDropAceHoldsForSuitDeclaration(t *testing.T) {
	room := newTestRoom(2)
	room.PlayerList[0].Hand = []Card{{RankAce, Hearts}, {RankNine, Hearts}}

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{Type: MoveDrop, Cards: []Card{{RankAce, Hearts}}}))
	assert.Equal(t, PhaseAwaitingSuitDeclaration, room.Phase())
	assert.Equal(t, 0, room.CurrentPlayerIndex, "the turn is held until the suit is declared")

	require.NoError(t, DeclareSuit(room, "p0", Clubs))
	assert.Equal(t, Clubs, room.CurrentSuit)
	assert.Equal(t, PhaseNormal, room.Phase())
	assert.Equal(t, 1, room.CurrentPlayerIndex)
}

func TestDropAceCancelsFeedingDebt(t *testing.T) {
	room := newTestRoom(2)
	room.FeedingCount = 3
	room.Stack = []Card{{RankThree, Spades}}
	room.PlayerList[0].Hand = []Card{{RankAce, Hearts}, {RankNine, Hearts}}

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{Type: MoveDrop, Cards: []Card{{RankAce, Hearts}}}))
	assert.Equal(t, 0, room.FeedingCount)
	assert.Equal(t, PhaseNormal, room.Phase(), "no suit declaration when the ace spends itself on the debt")
	assert.Equal(t, 1, room.CurrentPlayerIndex)
}

func TestDropQuestionCardHoldsForAnswer(t *testing.T) {
	room := newTestRoom(2)
	room.PlayerList[0].Hand = []Card{{RankEight, Spades}, {RankNine, Hearts}}

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{Type: MoveDrop, Cards: []Card{{RankEight, Spades}}}))
	assert.Equal(t, PhaseAwaitingSpecialAnswer, room.Phase())
	assert.Equal(t, 0, room.CurrentPlayerIndex)
	require.NotNil(t, room.SpecialCard)
	assert.Equal(t, Card{RankEight, Spades}, *room.SpecialCard)

	// The answer clears the pending question.
	room.PlayerList[0].Hand = append(room.PlayerList[0].Hand, Card{RankNine, Spades})
	require.NoError(t, ProcessMove(room, "p0", MoveRequest{Type: MoveDrop, Cards: []Card{{RankNine, Spades}}}))
	assert.Equal(t, PhaseNormal, room.Phase())
	assert.Equal(t, 1, room.CurrentPlayerIndex)
}

func TestDropJackSkipsNextPlayer(t *testing.T) {
	room := newTestRoom(3)
	room.PlayerList[0].Hand = []Card{{RankJack, Spades}, {RankNine, Hearts}}

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{Type: MoveDrop, Cards: []Card{{RankJack, Spades}}}))
	assert.Equal(t, 2, room.CurrentPlayerIndex, "one jack skips exactly one seat")
	assert.Equal(t, 0, room.SkipCount)
}

func TestDropMultipleJacksSkipMultipleSeats(t *testing.T) {
	room := newTestRoom(4)
	room.PlayerList[0].Hand = []Card{{RankJack, Spades}, {RankJack, Hearts}, {RankNine, Hearts}}

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{
		Type:  MoveDrop,
		Cards: []Card{{RankJack, Spades}, {RankJack, Hearts}},
	}))
	assert.Equal(t, 3, room.CurrentPlayerIndex)
}

func TestDropKingFlipsDirection(t *testing.T) {
	room := newTestRoom(3)
	room.PlayerList[0].Hand = []Card{{RankKing, Spades}, {RankNine, Hearts}}

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{Type: MoveDrop, Cards: []Card{{RankKing, Spades}}}))
	assert.Equal(t, Backward, room.GameDirection)
	assert.Equal(t, 2, room.CurrentPlayerIndex, "the flip applies before the turn advances")
}

func TestDropClearsSuitLock(t *testing.T) {
	room := newTestRoom(2)
	room.CurrentSuit = Hearts
	room.PlayerList[0].Hand = []Card{{RankNine, Hearts}, {RankFour, Clubs}}

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{Type: MoveDrop, Cards: []Card{{RankNine, Hearts}}}))
	assert.Empty(t, room.CurrentSuit, "an accepted drop consumes the declared suit")
}

func TestDropUpdatesCounters(t *testing.T) {
	room := newTestRoom(2)
	room.PlayerList[0].Hand = []Card{{RankSeven, Hearts}, {RankSeven, Clubs}, {RankNine, Hearts}}

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{
		Type:  MoveDrop,
		Cards: []Card{{RankSeven, Hearts}, {RankSeven, Clubs}},
	}))
	p := room.PlayerList[0]
	assert.Equal(t, 2, p.CardsDropped)
	assert.Equal(t, 2, p.TotalCardsDropped)
	assert.Len(t, p.Hand, 1)
}

func TestDeclareSuitGuards(t *testing.T) {
	t.Run("nothing pending", func(t *testing.T) {
		room := newTestRoom(2)
		assert.ErrorIs(t, DeclareSuit(room, "p0", Hearts), ErrStateConflict)
	})

	t.Run("wrong player", func(t *testing.T) {
		room := newTestRoom(2)
		room.AwaitingSpecialAction = true
		room.SpecialCard = &Card{RankAce, Hearts}
		assert.ErrorIs(t, DeclareSuit(room, "p1", Hearts), ErrTurnViolation)
	})

	t.Run("bogus suit", func(t *testing.T) {
		room := newTestRoom(2)
		room.AwaitingSpecialAction = true
		room.SpecialCard = &Card{RankAce, Hearts}
		assert.ErrorIs(t, DeclareSuit(room, "p0", "x"), ErrInvalidMove)
	})
}

func TestResolveAceDropOnFeedingDebt(t *testing.T) {
	setup := func() *Room {
		room := newTestRoom(2)
		room.FeedingCount = 2
		room.CurrentSuit = Hearts
		room.AwaitingSpecialAction = true
		room.SpecialCard = &Card{RankAce, Hearts}
		return room
	}

	t.Run("drop cancels the debt", func(t *testing.T) {
		room := setup()
		require.NoError(t, ResolveAceDrop(room, "p0", true))
		assert.Equal(t, 0, room.FeedingCount)
		assert.Equal(t, 1, room.CurrentPlayerIndex)
		assert.Equal(t, PhaseNormal, room.Phase())
	})

	t.Run("decline passes the debt along", func(t *testing.T) {
		room := setup()
		require.NoError(t, ResolveAceDrop(room, "p0", false))
		assert.Equal(t, 2, room.FeedingCount)
		assert.Empty(t, room.CurrentSuit)
		assert.Equal(t, 1, room.CurrentPlayerIndex)
	})

	t.Run("only the current player resolves", func(t *testing.T) {
		room := setup()
		assert.ErrorIs(t, ResolveAceDrop(room, "p1", true), ErrTurnViolation)
	})

	t.Run("nothing pending", func(t *testing.T) {
		room := newTestRoom(2)
		assert.ErrorIs(t, ResolveAceDrop(room, "p0", true), ErrStateConflict)
	})
}

func TestAnnounceKadiToggles(t *testing.T) {
	room := newTestRoom(2)

	require.NoError(t, AnnounceKadi(room, "p1"))
	assert.True(t, room.PlayerList[1].KadiAnnounced)
	require.NoError(t, AnnounceKadi(room, "p1"))
	assert.False(t, room.PlayerList[1].KadiAnnounced)

	assert.ErrorIs(t, AnnounceKadi(room, "stranger"), ErrPlayerNotFound)
}

func TestFeedingDebtFlow(t *testing.T) {
	room := newTestRoom(2)
	room.Stack = []Card{{RankSeven, Hearts}}
	room.PlayerList[0].Hand = []Card{{RankTwo, Hearts}, {RankNine, Clubs}}
	room.PlayerList[1].Hand = []Card{{RankNine, Hearts}, {RankTen, Diamonds}}
	total := room.CardCount()

	require.NoError(t, ProcessMove(room, "p0", MoveRequest{Type: MoveDrop, Cards: []Card{{RankTwo, Hearts}}}))
	assert.Equal(t, 2, room.FeedingCount)
	assert.Equal(t, 1, room.CurrentPlayerIndex)

	// A non-feeding, non-ace drop cannot answer the debt.
	err := ProcessMove(room, "p1", MoveRequest{Type: MoveDrop, Cards: []Card{{RankNine, Hearts}}})
	assert.ErrorIs(t, err, ErrInvalidMove)

	require.NoError(t, ProcessMove(room, "p1", MoveRequest{Type: MovePick}))
	assert.Len(t, room.PlayerList[1].Hand, 4, "the debtor draws both owed cards")
	assert.Equal(t, 0, room.FeedingCount)
	assert.Equal(t, 0, room.CurrentPlayerIndex, "the turn returns to the feeder")
	assert.Equal(t, total, room.CardCount())
}

func TestCardConservationAcrossMoves(t *testing.T) {
	room, err := NewRoom(2, 7, "alice", "Alice")
	require.NoError(t, err)
	require.NoError(t, room.addPlayer("bob", "Bob"))
	require.Equal(t, 52, room.CardCount())

	for i := 0; i < 30; i++ {
		require.NoError(t, ProcessMove(room, room.CurrentPlayer().UserID, MoveRequest{Type: MovePick}))
		require.Equal(t, 52, room.CardCount(), "card count must hold after every accepted move")
	}
}
