// internal/kadi/validator.go
package kadi

import "fmt"

// ValidateMove is the pure legality check for a candidate drop against the
// current room state. It never mutates the room; two calls with identical
// inputs always agree.
//
// Rules, in order:
//  1. at least one card;
//  2. while a question card (8/Q) awaits its answer, every submitted card
//     must share the question card's suit;
//  3. the first card must match the top card by rank or suit, or match the
//     declared suit while an Ace's suit lock is active;
//  4. an Ace may only close a sequence;
//  5. each later card must follow its predecessor: same suit after an 8/Q,
//     otherwise same rank or suit;
//  6. with a feeding debt outstanding, the sequence must contain a feeding
//     card or an Ace; otherwise picking is the only legal action.
func ValidateMove(room *Room, cards []Card) error {
	if len(cards) < 1 {
		return fmt.Errorf("%w: at least one card must be played", ErrInvalidMove)
	}
	for _, c := range cards {
		if !c.IsValid() {
			return fmt.Errorf("%w: %s is not a card", ErrInvalidMove, c)
		}
	}

	// Rule 2: a pending question is answered in its own suit, and nothing
	// else about the sequence is inspected.
	if room.Phase() == PhaseAwaitingSpecialAnswer {
		want := room.SpecialCard.Suit
		for _, c := range cards {
			if c.Suit != want {
				return fmt.Errorf("%w: must answer %s with a %s card", ErrInvalidMove, room.SpecialCard, want)
			}
		}
		return nil
	}

	if err := validateFirstCard(room, cards[0]); err != nil {
		return err
	}

	for i, c := range cards {
		// Rule 4.
		if c.Rank == RankAce {
			if i != len(cards)-1 {
				return fmt.Errorf("%w: an Ace must be the last card in a sequence", ErrInvalidMove)
			}
			continue
		}
		if i == 0 {
			continue
		}
		// Rule 5.
		prev := cards[i-1]
		if isQuestionRank(prev.Rank) {
			if c.Suit != prev.Suit {
				return fmt.Errorf("%w: %s must answer %s in suit", ErrInvalidMove, c, prev)
			}
		} else if c.Rank != prev.Rank && c.Suit != prev.Suit {
			return fmt.Errorf("%w: %s does not follow %s", ErrInvalidMove, c, prev)
		}
	}

	// Rule 6.
	if room.FeedingCount > 0 && !containsFeeding(cards) && !hasAce(cards) {
		return fmt.Errorf("%w: must play a feeding card or an Ace, or pick up %d", ErrInvalidMove, room.FeedingCount)
	}
	return nil
}

// validateFirstCard applies rule 3. An Ace opening the sequence is always
// playable (rule 4 then forces the sequence to be that single Ace).
func validateFirstCard(room *Room, first Card) error {
	if first.Rank == RankAce {
		return nil
	}
	if room.CurrentSuit != "" {
		// Suit lock: the declared suit supersedes the Ace on the stack.
		if first.Suit != room.CurrentSuit {
			return fmt.Errorf("%w: first card must match the declared suit %s", ErrInvalidMove, room.CurrentSuit)
		}
		return nil
	}
	top := room.TopCard()
	if first.Rank != top.Rank && first.Suit != top.Suit {
		return fmt.Errorf("%w: %s does not match the top card %s", ErrInvalidMove, first, top)
	}
	return nil
}

func containsFeeding(cards []Card) bool {
	for _, c := range cards {
		if isFeedingRank(c.Rank) {
			return true
		}
	}
	return false
}
