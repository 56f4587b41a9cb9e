// internal/kadi/view.go
package kadi

import (
	"time"

	"github.com/google/uuid"
)

// PlayerView is one seat as seen by a particular viewer: the viewer's own
// hand is visible, everyone else's is reduced to a count.
type PlayerView struct {
	UserID            string `json:"user_id"`
	DisplayName       string `json:"display_name"`
	HandCount         int    `json:"hand_count"`
	Hand              []Card `json:"hand,omitempty"`
	CardsDropped      int    `json:"cards_dropped"`
	TotalCardsDropped int    `json:"total_cards_dropped"`
	KadiAnnounced     bool   `json:"kadi_announced"`
	IsCurrent         bool   `json:"is_current"`
}

// RoomView is the redacted per-player projection pushed through the
// notification gateway after every accepted operation. The draw pile is
// reduced to its size; the discard stack to its top card.
type RoomView struct {
	RoomID             uuid.UUID    `json:"room_id"`
	Phase              Phase        `json:"phase"`
	TopCard            Card         `json:"top_card"`
	CurrentSuit        Suit         `json:"current_suit,omitempty"`
	SpecialCard        *Card        `json:"special_card,omitempty"`
	GameDirection      Direction    `json:"game_direction"`
	CurrentPlayerIndex int          `json:"current_player_index"`
	CurrentPlayerID    string       `json:"current_player_id"`
	SkipCount          int          `json:"skip_count"`
	FeedingCount       int          `json:"feeding_count"`
	DeckSize           int          `json:"deck_size"`
	Players            []PlayerView `json:"players"`
	Winner             *Winner      `json:"winner,omitempty"`
	PotentialWinner    string       `json:"potential_winner,omitempty"`
	PlayersWithAces    []string     `json:"players_with_aces,omitempty"`
	IsTerminated       bool         `json:"is_terminated"`
	LastActiveAt       time.Time    `json:"last_active_at"`
}

// NewRoomView projects the room for viewerID.
func NewRoomView(room *Room, viewerID string) RoomView {
	v := RoomView{
		RoomID:             room.RoomID,
		Phase:              room.Phase(),
		TopCard:            room.TopCard(),
		CurrentSuit:        room.CurrentSuit,
		GameDirection:      room.GameDirection,
		CurrentPlayerIndex: room.CurrentPlayerIndex,
		CurrentPlayerID:    room.CurrentPlayer().UserID,
		SkipCount:          room.SkipCount,
		FeedingCount:       room.FeedingCount,
		DeckSize:           room.Deck.Size(),
		Winner:             room.Winner,
		PotentialWinner:    room.PotentialWinner,
		PlayersWithAces:    append([]string(nil), room.PlayersWithAces...),
		IsTerminated:       room.IsTerminated,
		LastActiveAt:       room.LastActiveAt,
	}
	if room.SpecialCard != nil {
		sc := *room.SpecialCard
		v.SpecialCard = &sc
	}
	v.Players = make([]PlayerView, len(room.PlayerList))
	for i, p := range room.PlayerList {
		pv := PlayerView{
			UserID:            p.UserID,
			DisplayName:       p.DisplayName,
			HandCount:         len(p.Hand),
			CardsDropped:      p.CardsDropped,
			TotalCardsDropped: p.TotalCardsDropped,
			KadiAnnounced:     p.KadiAnnounced,
			IsCurrent:         i == room.CurrentPlayerIndex,
		}
		if p.UserID == viewerID {
			pv.Hand = append([]Card(nil), p.Hand...)
		}
		v.Players[i] = pv
	}
	return v
}

// Views builds the per-player redacted views for every seat in the room.
func Views(room *Room) map[string]RoomView {
	out := make(map[string]RoomView, len(room.PlayerList))
	for _, p := range room.PlayerList {
		out[p.UserID] = NewRoomView(room, p.UserID)
	}
	return out
}
