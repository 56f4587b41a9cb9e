// internal/kadi/winner.go
package kadi

// resolveWinner runs after every accepted drop. The acting player wins when
// their hand is empty, every other player still holds at least one card, and
// the final top card sits in the neutral 4..7 band (so a game can never end
// mid-effect).
//
// When two or more opponents hold Aces the win is deferred instead: the room
// enters the ace-drop endgame and each holder may counter-play before the win
// finalizes (see ResolveAceDrop).
func resolveWinner(room *Room, actor *Player) {
	if room.IsTerminated || room.AwaitingAceDrops {
		return
	}
	if len(actor.Hand) != 0 {
		return
	}
	if !isNeutralRank(room.TopCard().Rank) {
		return
	}

	var holders []string
	for _, p := range room.PlayerList {
		if p.UserID == actor.UserID {
			continue
		}
		if len(p.Hand) == 0 {
			// Someone else is also out of cards; integrity demands every
			// other player holds at least one. No win.
			return
		}
		if p.holdsAce() {
			holders = append(holders, p.UserID)
		}
	}

	if len(holders) >= 2 {
		room.AwaitingAceDrops = true
		room.PotentialWinner = actor.UserID
		room.PlayersWithAces = holders
		room.AcesDropped = nil
		return
	}

	room.terminate(&Winner{UserID: actor.UserID, DisplayName: actor.DisplayName})
}
