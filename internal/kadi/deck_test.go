// internal/kadi/deck_test.go
package kadi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	d := NewDeck()
	require.Equal(t, 52, d.Size())

	seen := make(map[Card]bool, 52)
	for _, c := range d.Cards {
		assert.True(t, c.IsValid(), "card %s should be valid", c)
		assert.False(t, seen[c], "card %s should appear once", c)
		seen[c] = true
	}
}

func TestDealPopsFromTail(t *testing.T) {
	d := &Deck{Cards: []Card{
		{RankFour, Hearts},
		{RankFive, Hearts},
		{RankSix, Hearts},
	}}

	dealt, err := d.Deal(2)
	require.NoError(t, err)
	assert.Equal(t, []Card{{RankFive, Hearts}, {RankSix, Hearts}}, dealt)
	assert.Equal(t, []Card{{RankFour, Hearts}}, d.Cards)
}

func TestDealInsufficientCards(t *testing.T) {
	d := &Deck{Cards: []Card{{RankFour, Hearts}}}

	_, err := d.Deal(2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientCards)
	assert.Equal(t, 1, d.Size(), "a failed deal must not consume cards")
}

func TestReshuffleKeepsTopCard(t *testing.T) {
	d := &Deck{}
	stack := []Card{
		{RankNine, Clubs},
		{RankTen, Clubs},
		{RankSeven, Spades},
	}

	stack = d.Reshuffle(stack)
	require.Len(t, stack, 1)
	assert.Equal(t, Card{RankSeven, Spades}, stack[0])
	assert.Equal(t, 2, d.Size())
}

func TestReshuffleEmptyStack(t *testing.T) {
	d := &Deck{}
	assert.Empty(t, d.Reshuffle(nil))
	assert.Equal(t, 0, d.Size())
}
