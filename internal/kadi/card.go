// internal/kadi/card.go
package kadi

// Suit is one of the four card suit symbols.
type Suit string

const (
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
	Spades   Suit = "♠"
)

// Rank is a card rank, "A" and "2".."10" and "J","Q","K".
type Rank string

const (
	RankAce   Rank = "A"
	RankTwo   Rank = "2"
	RankThree Rank = "3"
	RankFour  Rank = "4"
	RankFive  Rank = "5"
	RankSix   Rank = "6"
	RankSeven Rank = "7"
	RankEight Rank = "8"
	RankNine  Rank = "9"
	RankTen   Rank = "10"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
)

// Suits is the canonical suit order used when building a deck.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Ranks is the canonical rank order used when building a deck.
var Ranks = []Rank{
	RankAce, RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven,
	RankEight, RankNine, RankTen, RankJack, RankQueen, RankKing,
}

// Card is a plain rank+suit value. There are exactly 52 distinct cards,
// no jokers and no wildcards.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

func (c Card) String() string {
	return string(c.Rank) + string(c.Suit)
}

// IsValid reports whether the card is one of the 52 legal values.
func (c Card) IsValid() bool {
	return validRanks[c.Rank] && validSuits[c.Suit]
}

var validRanks = func() map[Rank]bool {
	m := make(map[Rank]bool, len(Ranks))
	for _, r := range Ranks {
		m[r] = true
	}
	return m
}()

var validSuits = func() map[Suit]bool {
	m := make(map[Suit]bool, len(Suits))
	for _, s := range Suits {
		m[s] = true
	}
	return m
}()

// isFeedingRank reports whether the rank forces the next player to draw
// (a 2 feeds two cards, a 3 feeds three).
func isFeedingRank(r Rank) bool {
	return r == RankTwo || r == RankThree
}

// feedingValue returns the number of cards a feeding rank imposes.
func feedingValue(r Rank) int {
	switch r {
	case RankTwo:
		return 2
	case RankThree:
		return 3
	}
	return 0
}

// isQuestionRank reports whether the rank demands a same-suit answer.
func isQuestionRank(r Rank) bool {
	return r == RankEight || r == RankQueen
}

// isNeutralRank reports whether the rank is in the 4..7 band that carries no
// effect. Only a neutral top card can start a game or finish one.
func isNeutralRank(r Rank) bool {
	switch r {
	case RankFour, RankFive, RankSix, RankSeven:
		return true
	}
	return false
}

// hasAce reports whether the sequence contains an Ace.
func hasAce(cards []Card) bool {
	for _, c := range cards {
		if c.Rank == RankAce {
			return true
		}
	}
	return false
}
