// internal/kadi/scheduler.go
package kadi

// AdvanceTurn moves CurrentPlayerIndex to the next active player, honoring
// the game direction and consuming one pending skip per step. The modulo
// wraparound guarantees termination even when SkipCount >= numPlayers, and
// the walk always lands on exactly one player.
func (r *Room) AdvanceTurn() {
	n := len(r.PlayerList)
	if n == 0 {
		return
	}
	step := 1
	if r.GameDirection == Backward {
		step = -1
	}
	for {
		r.CurrentPlayerIndex = (r.CurrentPlayerIndex + step + n) % n
		if r.SkipCount == 0 {
			return
		}
		r.SkipCount--
	}
}
