package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bidascore/bidascore-go/internal/model"
)

const defaultDeckSize = 52

var suits = []string{"hearts", "diamonds", "clubs", "spades"}

type createRequest struct {
	Name           string              `json:"name"`
	Mode           model.Mode          `json:"mode"`
	PIN            string              `json:"pin"`
	PlayerNames    []string            `json:"player_names"`
	Penalty        model.PenaltyConfig `json:"penalty"`
	CardsPerPlayer int                 `json:"cards_per_player"`
}

type scoreRequest struct {
	PIN      string            `json:"pin"`
	WinnerID model.PlayerID    `json:"winner_id"`
	ScorerID model.PlayerID    `json:"scorer_id"`
	LoserIDs []model.PlayerID  `json:"loser_ids"`
	Events   []model.BallEvent `json:"events"`
}

type claimRequest struct {
	PlayerID   model.PlayerID `json:"player_id"`
	UserID     string         `json:"user_id"`
	GuestToken string         `json:"guest_token"`
}

type seatActionRequest struct {
	PlayerID   model.PlayerID `json:"player_id"`
	UserID     string         `json:"user_id"`
	GuestToken string         `json:"guest_token"`
	CardValue  int            `json:"card_value"`
}

type pinRequest struct {
	PIN string `json:"pin"`
}

func decode(r *http.Request, into any) error {
	return json.NewDecoder(r.Body).Decode(into)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := make([]model.Room, 0, len(s.rooms))
	for _, st := range s.rooms {
		rooms = append(rooms, st.room)
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.clock.Now()
	room := model.Room{
		ID:        model.RoomID(fmt.Sprintf("room-%d", s.nextID)),
		Name:      req.Name,
		Mode:      req.Mode,
		Version:   1,
		History:   []model.HistoryEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, name := range req.PlayerNames {
		room.Players = append(room.Players, model.Player{
			ID:   model.PlayerID(fmt.Sprintf("%s-p%d", room.ID, i+1)),
			Name: name,
		})
	}

	st := &roomState{room: room, pin: req.PIN, cardsPerPlayer: req.CardsPerPlayer}
	switch req.Mode {
	case model.ModePenalty:
		st.room.Penalty = req.Penalty
		if st.room.Penalty == nil {
			st.room.Penalty = model.DefaultPenaltyConfig()
		}
	case model.ModeCard:
		st.room.DeckRemaining = defaultDeckSize
		st.initialDeck = defaultDeckSize
		if st.cardsPerPlayer == 0 {
			st.cardsPerPlayer = 3
		}
	}

	s.rooms[room.ID] = st
	writeJSON(w, http.StatusCreated, st.room)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	pin := r.URL.Query().Get("pin")

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.rooms[model.RoomID(id)]
	if !ok {
		writeError(w, http.StatusNotFound, "room_not_found", "room not found")
		return
	}
	// An empty pin is a viewer read; a non-empty pin must match.
	if pin != "" && pin != st.pin {
		writeError(w, http.StatusForbidden, "wrong_pin", "wrong or missing PIN")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"room": st.room})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.lockedRoom(w, mux.Vars(r)["id"], req.PIN)
	if st == nil {
		return
	}

	var entry model.HistoryEntry
	switch st.room.Mode {
	case model.ModeSolo:
		if st.room.Player(req.WinnerID) == nil {
			writeError(w, http.StatusBadRequest, "unknown_player", "winner not in room")
			return
		}
		entry = model.HistoryEntry{Kind: model.KindSoloWin, WinnerID: req.WinnerID}
	case model.ModePenalty:
		if len(req.LoserIDs) == 0 || len(req.Events) == 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "losers and events required")
			return
		}
		entry = model.HistoryEntry{
			Kind:     model.KindPenalty,
			ScorerID: req.ScorerID,
			LoserIDs: req.LoserIDs,
			Events:   req.Events,
		}
	default:
		writeError(w, http.StatusBadRequest, "wrong_mode", "score update not valid for this mode")
		return
	}

	s.appendHistory(st, entry)
	s.recomputeScores(st)
	s.bump(st)

	// Score responses use the deepest envelope the real backend produces.
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "ok",
		"data":    map[string]any{"room": st.room},
	})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pin := r.URL.Query().Get("pin")

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.lockedRoom(w, vars["id"], pin)
	if st == nil {
		return
	}

	if len(st.room.History) == 0 {
		writeError(w, http.StatusBadRequest, "history_empty", "nothing to undo")
		return
	}
	last := st.room.History[0]
	if string(last.ID) != vars["historyID"] {
		writeError(w, http.StatusBadRequest, "not_latest", "only the most recent entry can be undone")
		return
	}

	st.room.History = st.room.History[1:]

	switch last.Kind {
	case model.KindSoloWin, model.KindPenalty:
		s.recomputeScores(st)
	case model.KindDraw:
		if p := st.room.Player(last.PlayerID); p != nil && last.Card != nil {
			p.Cards = removeCard(p.Cards, last.Card.ID)
			st.room.DeckRemaining++
		}
	case model.KindDiscard:
		if p := st.room.Player(last.PlayerID); p != nil && last.Card != nil {
			p.Cards = append(p.Cards, *last.Card)
		}
	default:
		writeError(w, http.StatusBadRequest, "not_undoable", "entry cannot be undone")
		return
	}

	s.bump(st)
	writeJSON(w, http.StatusOK, st.room)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.lockedRoom(w, mux.Vars(r)["id"], req.PIN)
	if st == nil {
		return
	}

	st.room.Finished = true
	s.bump(st)
	writeJSON(w, http.StatusOK, st.room)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.rooms[model.RoomID(mux.Vars(r)["id"])]
	if !ok {
		writeError(w, http.StatusNotFound, "room_not_found", "room not found")
		return
	}
	if st.room.Finished {
		writeError(w, http.StatusConflict, "room_finished", "room is finished")
		return
	}

	p := st.room.Player(req.PlayerID)
	if p == nil {
		writeError(w, http.StatusNotFound, "seat_not_found", "seat not found")
		return
	}
	if !p.Unclaimed() {
		writeError(w, http.StatusUnprocessableEntity, "seat_taken", "seat is already claimed")
		return
	}
	if req.UserID == "" && req.GuestToken == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "identity required")
		return
	}

	p.UserID = req.UserID
	p.GuestToken = req.GuestToken
	s.bump(st)

	writeJSON(w, http.StatusOK, map[string]any{"data": st.room})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.lockedRoom(w, mux.Vars(r)["id"], req.PIN)
	if st == nil {
		return
	}
	if st.room.Mode != model.ModeCard {
		writeError(w, http.StatusBadRequest, "wrong_mode", "start not valid for this mode")
		return
	}

	per := st.cardsPerPlayer
	if per == 0 {
		per = 3
	}
	if st.initialDeck == 0 {
		st.initialDeck = st.room.DeckRemaining
	}

	for i := range st.room.Players {
		hand := make([]model.Card, 0, per)
		for j := 0; j < per && st.room.DeckRemaining > 0; j++ {
			hand = append(hand, s.dealCard(st))
		}
		st.room.Players[i].Cards = hand
	}

	s.appendHistory(st, model.HistoryEntry{Kind: model.KindDeal})
	s.bump(st)
	writeJSON(w, http.StatusOK, st.room)
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	var req seatActionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, p := s.actingSeat(w, mux.Vars(r)["id"], req)
	if st == nil {
		return
	}
	if st.room.DeckRemaining == 0 {
		writeError(w, http.StatusBadRequest, "deck_empty", "deck has no cards left")
		return
	}

	card := s.dealCard(st)
	p.Cards = append(p.Cards, card)

	s.appendHistory(st, model.HistoryEntry{Kind: model.KindDraw, PlayerID: p.ID, Card: &card})
	s.bump(st)
	writeJSON(w, http.StatusOK, st.room)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	var req seatActionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, p := s.actingSeat(w, mux.Vars(r)["id"], req)
	if st == nil {
		return
	}

	var discarded *model.Card
	for i := range p.Cards {
		if p.Cards[i].Value == req.CardValue {
			c := p.Cards[i]
			discarded = &c
			p.Cards = append(p.Cards[:i], p.Cards[i+1:]...)
			break
		}
	}
	if discarded == nil {
		writeError(w, http.StatusBadRequest, "card_not_held", "player does not hold a card of that value")
		return
	}

	s.appendHistory(st, model.HistoryEntry{Kind: model.KindDiscard, PlayerID: p.ID, Card: discarded})
	s.bump(st)
	writeJSON(w, http.StatusOK, st.room)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.lockedRoom(w, mux.Vars(r)["id"], req.PIN)
	if st == nil {
		return
	}

	for i := range st.room.Players {
		st.room.Players[i].Cards = nil
		st.room.Players[i].Score = 0
	}
	st.room.DeckRemaining = st.initialDeck
	st.room.History = []model.HistoryEntry{}
	s.appendHistory(st, model.HistoryEntry{Kind: model.KindReset})
	s.bump(st)

	writeJSON(w, http.StatusOK, st.room)
}

// actingSeat resolves the room and the seat acting through identity
// binding. The caller must hold s.mu.
func (s *Server) actingSeat(w http.ResponseWriter, id string, req seatActionRequest) (*roomState, *model.Player) {
	st, ok := s.rooms[model.RoomID(id)]
	if !ok {
		writeError(w, http.StatusNotFound, "room_not_found", "room not found")
		return nil, nil
	}
	if st.room.Finished {
		writeError(w, http.StatusConflict, "room_finished", "room is finished")
		return nil, nil
	}

	p := st.room.Player(req.PlayerID)
	if p == nil {
		writeError(w, http.StatusNotFound, "seat_not_found", "seat not found")
		return nil, nil
	}

	identity := model.Identity{UserID: req.UserID, GuestToken: req.GuestToken}
	if !identity.Owns(p) {
		writeError(w, http.StatusForbidden, "not_seat_owner", "identity does not own this seat")
		return nil, nil
	}
	return st, p
}

func (s *Server) appendHistory(st *roomState, entry model.HistoryEntry) {
	s.nextID++
	entry.ID = model.HistoryID(fmt.Sprintf("h-%d", s.nextID))
	entry.CreatedAt = s.clock.Now()
	// Most recent first.
	st.room.History = append([]model.HistoryEntry{entry}, st.room.History...)
}

// recomputeScores replays the full history oldest-first. This is the
// backend's authoritative recomputation the client relies on after undo.
func (s *Server) recomputeScores(st *roomState) {
	for i := range st.room.Players {
		st.room.Players[i].Score = 0
	}

	for i := len(st.room.History) - 1; i >= 0; i-- {
		entry := st.room.History[i]
		switch entry.Kind {
		case model.KindSoloWin:
			if p := st.room.Player(entry.WinnerID); p != nil {
				p.Score++
			}
		case model.KindPenalty:
			total := 0
			for _, ev := range entry.Events {
				value := ev.Ball
				if v, ok := st.room.Penalty[ev.Ball]; ok {
					value = v
				}
				total += value * ev.Count
			}
			if p := st.room.Player(entry.ScorerID); p != nil {
				p.Score += total * len(entry.LoserIDs)
			}
			for _, loserID := range entry.LoserIDs {
				if p := st.room.Player(loserID); p != nil {
					p.Score -= total
				}
			}
		}
	}
}

func (s *Server) dealCard(st *roomState) model.Card {
	s.nextID++
	drawn := st.initialDeck - st.room.DeckRemaining
	st.room.DeckRemaining--
	return model.Card{
		ID:    fmt.Sprintf("card-%d", s.nextID),
		Value: drawn%13 + 1,
		Suit:  suits[drawn/13%len(suits)],
	}
}

func removeCard(cards []model.Card, id string) []model.Card {
	for i := range cards {
		if cards[i].ID == id {
			return append(cards[:i], cards[i+1:]...)
		}
	}
	return cards
}
