package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bidascore/bidascore-go/internal/model"
	"github.com/bidascore/bidascore-go/internal/normalize"
)

const roomsPath = "/api/v1/rooms"

// roomFromResponse runs every response through the normalizer; responses
// from different endpoints wrap the room at different depths.
func roomFromResponse(raw []byte) (*model.Room, error) {
	room, err := normalize.DecodeRoom(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse room response: %w", err)
	}
	if room == nil {
		return nil, fmt.Errorf("empty room response")
	}
	return room, nil
}

// ListRooms returns all visible rooms
func (c *Client) ListRooms(ctx context.Context) ([]model.Room, error) {
	raw, err := c.do(ctx, http.MethodGet, roomsPath, nil)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(raw, &resp); err == nil {
		if resp.Rooms != nil {
			return resp.Rooms, nil
		}
		if resp.Data != nil {
			return resp.Data, nil
		}
	}

	var rooms []model.Room
	if err := json.Unmarshal(raw, &rooms); err != nil {
		return nil, fmt.Errorf("failed to parse room list: %w", err)
	}
	return rooms, nil
}

// CreateRoom creates a new room and returns it
func (c *Client) CreateRoom(ctx context.Context, params CreateRoomParams) (*model.Room, error) {
	raw, err := c.do(ctx, http.MethodPost, roomsPath, params)
	if err != nil {
		return nil, err
	}
	return roomFromResponse(raw)
}

// GetRoom reads one room by id. An empty pin requests read-only viewer
// access; a non-empty pin requests read-write access and fails with an
// access error when rejected.
func (c *Client) GetRoom(ctx context.Context, roomID model.RoomID, pin string) (*model.Room, error) {
	path := fmt.Sprintf("%s/%s", roomsPath, roomID)
	if pin != "" {
		path += "?pin=" + url.QueryEscape(pin)
	}

	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return roomFromResponse(raw)
}

// UpdateSoloScore increments one player's win counter by one.
// Head-to-head mode only.
func (c *Client) UpdateSoloScore(ctx context.Context, roomID model.RoomID, pin string, winnerID model.PlayerID) (*model.Room, error) {
	raw, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("%s/%s/score", roomsPath, roomID), soloScoreRequest{
		PIN:      pin,
		WinnerID: winnerID,
	})
	if err != nil {
		return nil, err
	}
	return roomFromResponse(raw)
}

// UpdatePenaltyScore records a penalty scoring event. Both the penalized
// player set and the ball event set must be non-empty; empty sets are
// rejected before any request is sent.
func (c *Client) UpdatePenaltyScore(ctx context.Context, roomID model.RoomID, pin string, params PenaltyScoreParams) (*model.Room, error) {
	if len(params.LoserIDs) == 0 {
		return nil, model.ErrNoLosers
	}
	if len(params.Events) == 0 {
		return nil, model.ErrNoBallEvents
	}

	raw, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("%s/%s/score", roomsPath, roomID), penaltyScoreRequest{
		PIN:      pin,
		ScorerID: params.ScorerID,
		LoserIDs: params.LoserIDs,
		Events:   params.Events,
	})
	if err != nil {
		return nil, err
	}
	return roomFromResponse(raw)
}

// UndoScore deletes the given history entry, which must be the most
// recent one. The backend recomputes all scores and returns the new Room;
// the client never recomputes locally.
func (c *Client) UndoScore(ctx context.Context, roomID model.RoomID, historyID model.HistoryID, pin string) (*model.Room, error) {
	path := fmt.Sprintf("%s/%s/history/%s?pin=%s", roomsPath, roomID, historyID, url.QueryEscape(pin))
	raw, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return nil, err
	}
	return roomFromResponse(raw)
}

// FinishRoom marks the room finished. The backend accepts no further
// mutation afterwards.
func (c *Client) FinishRoom(ctx context.Context, roomID model.RoomID, pin string) (*model.Room, error) {
	raw, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%s/finish", roomsPath, roomID), pinRequest{PIN: pin})
	if err != nil {
		return nil, err
	}
	return roomFromResponse(raw)
}

// ClaimSeat binds an unclaimed seat to the given identity
func (c *Client) ClaimSeat(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, identity model.Identity) (*model.Room, error) {
	raw, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%s/claim", roomsPath, roomID), claimRequest{
		PlayerID:   playerID,
		UserID:     identity.UserID,
		GuestToken: identity.GuestToken,
	})
	if err != nil {
		return nil, err
	}
	return roomFromResponse(raw)
}

// StartDeal deals hands and opens the deck. Card mode only.
func (c *Client) StartDeal(ctx context.Context, roomID model.RoomID, pin string) (*model.Room, error) {
	raw, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%s/start", roomsPath, roomID), pinRequest{PIN: pin})
	if err != nil {
		return nil, err
	}
	return roomFromResponse(raw)
}

// DrawCard draws one card from the deck into the acting seat's hand.
// Card mode only.
func (c *Client) DrawCard(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, identity model.Identity) (*model.Room, error) {
	raw, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%s/draw", roomsPath, roomID), seatActionRequest{
		PlayerID:   playerID,
		UserID:     identity.UserID,
		GuestToken: identity.GuestToken,
	})
	if err != nil {
		return nil, err
	}
	return roomFromResponse(raw)
}

// DiscardCard discards a card of the stated face value from the acting
// seat's hand. Card mode only.
func (c *Client) DiscardCard(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, value int, identity model.Identity) (*model.Room, error) {
	raw, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%s/discard", roomsPath, roomID), seatActionRequest{
		PlayerID:   playerID,
		UserID:     identity.UserID,
		GuestToken: identity.GuestToken,
		CardValue:  value,
	})
	if err != nil {
		return nil, err
	}
	return roomFromResponse(raw)
}

// ResetMatch returns a card-mode room to its undealt state and clears
// seat bindings as the backend sees fit
func (c *Client) ResetMatch(ctx context.Context, roomID model.RoomID, pin string) (*model.Room, error) {
	raw, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%s/reset", roomsPath, roomID), pinRequest{PIN: pin})
	if err != nil {
		return nil, err
	}
	return roomFromResponse(raw)
}
