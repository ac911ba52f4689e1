package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidascore/bidascore-go/internal/api"
	"github.com/bidascore/bidascore-go/internal/apitest"
	"github.com/bidascore/bidascore-go/internal/dependencies/mocks"
	"github.com/bidascore/bidascore-go/internal/model"
	"github.com/bidascore/bidascore-go/internal/testutil"
)

func newClient(t *testing.T) (*api.Client, *apitest.Server) {
	t.Helper()
	backend := apitest.NewServer()
	t.Cleanup(backend.Close)
	return api.NewClient(backend.URL, "", testutil.NopLogger()), backend
}

func seedSoloRoom(backend *apitest.Server, pin string) model.RoomID {
	return backend.SeedRoom(model.Room{
		Mode:    model.ModeSolo,
		Name:    "Friday night",
		Version: 1,
		Players: []model.Player{
			{ID: "p1", Name: "An"},
			{ID: "p2", Name: "Binh"},
		},
	}, pin)
}

func TestGetRoomWithPIN(t *testing.T) {
	client, backend := newClient(t)
	roomID := seedSoloRoom(backend, "5555")

	room, err := client.GetRoom(context.Background(), roomID, "5555")
	require.NoError(t, err)
	assert.Equal(t, roomID, room.ID)
	assert.Len(t, room.Players, 2)
}

func TestGetRoomAsViewer(t *testing.T) {
	client, backend := newClient(t)
	roomID := seedSoloRoom(backend, "5555")

	room, err := client.GetRoom(context.Background(), roomID, "")
	require.NoError(t, err)
	assert.Equal(t, roomID, room.ID)
}

func TestGetRoomWrongPIN(t *testing.T) {
	client, backend := newClient(t)
	roomID := seedSoloRoom(backend, "5555")

	_, err := client.GetRoom(context.Background(), roomID, "1234")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrAccessDenied)
	assert.True(t, api.IsAccessError(err))
}

func TestGetRoomNotFound(t *testing.T) {
	client, _ := newClient(t)

	_, err := client.GetRoom(context.Background(), "missing", "5555")
	assert.ErrorIs(t, err, model.ErrRoomNotFound)
}

func TestCreateRoom(t *testing.T) {
	client, _ := newClient(t)

	room, err := client.CreateRoom(context.Background(), api.CreateRoomParams{
		Name:        "Club table 3",
		Mode:        model.ModePenalty,
		PIN:         "4321",
		PlayerNames: []string{"An", "Binh", "Chi"},
	})
	require.NoError(t, err)
	assert.Len(t, room.Players, 3)
	assert.Equal(t, model.ModePenalty, room.Mode)
	assert.NotEmpty(t, room.Penalty)
}

func TestListRooms(t *testing.T) {
	client, backend := newClient(t)
	seedSoloRoom(backend, "1111")
	seedSoloRoom(backend, "2222")

	rooms, err := client.ListRooms(context.Background())
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestUpdateSoloScore(t *testing.T) {
	client, backend := newClient(t)
	roomID := seedSoloRoom(backend, "5555")
	ctx := context.Background()

	room, err := client.UpdateSoloScore(ctx, roomID, "5555", "p1")
	require.NoError(t, err)

	// The score endpoint answers with the deepest nesting shape; the
	// client must still hand back a canonical room.
	assert.Equal(t, roomID, room.ID)
	assert.Equal(t, 1, room.Player("p1").Score)
	assert.Equal(t, 0, room.Player("p2").Score)
	require.Len(t, room.History, 1)
	assert.Equal(t, model.KindSoloWin, room.History[0].Kind)
}

func TestUpdateSoloScoreVersionIncreases(t *testing.T) {
	client, backend := newClient(t)
	roomID := seedSoloRoom(backend, "5555")
	ctx := context.Background()

	var last int64
	for i := 0; i < 3; i++ {
		room, err := client.UpdateSoloScore(ctx, roomID, "5555", "p1")
		require.NoError(t, err)
		assert.Greater(t, room.Version, last)
		last = room.Version
	}
}

func TestUpdatePenaltyScore(t *testing.T) {
	client, backend := newClient(t)
	roomID := backend.SeedRoom(model.Room{
		Mode:    model.ModePenalty,
		Version: 1,
		Penalty: model.PenaltyConfig{3: 3, 6: 6, 9: 9},
		Players: []model.Player{
			{ID: "p1", Name: "An"},
			{ID: "p2", Name: "Binh"},
			{ID: "p3", Name: "Chi"},
		},
	}, "5555")

	room, err := client.UpdatePenaltyScore(context.Background(), roomID, "5555", api.PenaltyScoreParams{
		ScorerID: "p1",
		LoserIDs: []model.PlayerID{"p2", "p3"},
		Events:   []model.BallEvent{{Ball: 3, Count: 1}},
	})
	require.NoError(t, err)

	// 3 points charged to each of two losers.
	assert.Equal(t, 6, room.Player("p1").Score)
	assert.Equal(t, -3, room.Player("p2").Score)
	assert.Equal(t, -3, room.Player("p3").Score)

	require.Len(t, room.History, 1)
	entry := room.History[0]
	assert.Equal(t, model.PlayerID("p1"), entry.ScorerID)
	assert.Equal(t, []model.PlayerID{"p2", "p3"}, entry.LoserIDs)
	assert.Equal(t, []model.BallEvent{{Ball: 3, Count: 1}}, entry.Events)
}

func TestUpdatePenaltyScoreValidatedBeforeRequest(t *testing.T) {
	client, backend := newClient(t)
	roomID := seedSoloRoom(backend, "5555")
	before := backend.RequestCount()

	_, err := client.UpdatePenaltyScore(context.Background(), roomID, "5555", api.PenaltyScoreParams{
		ScorerID: "p1",
		LoserIDs: nil,
		Events:   []model.BallEvent{{Ball: 3, Count: 1}},
	})
	assert.ErrorIs(t, err, model.ErrNoLosers)

	_, err = client.UpdatePenaltyScore(context.Background(), roomID, "5555", api.PenaltyScoreParams{
		ScorerID: "p1",
		LoserIDs: []model.PlayerID{"p2"},
		Events:   nil,
	})
	assert.ErrorIs(t, err, model.ErrNoBallEvents)

	assert.Equal(t, before, backend.RequestCount(), "validation failures must not reach the network")
}

func TestUndoScoreRemovesMostRecentEntry(t *testing.T) {
	client, backend := newClient(t)
	roomID := seedSoloRoom(backend, "5555")
	ctx := context.Background()

	_, err := client.UpdateSoloScore(ctx, roomID, "5555", "p1")
	require.NoError(t, err)
	room, err := client.UpdateSoloScore(ctx, roomID, "5555", "p2")
	require.NoError(t, err)
	require.Len(t, room.History, 2)
	latest := room.History[0].ID

	undone, err := client.UndoScore(ctx, roomID, latest, "5555")
	require.NoError(t, err)

	assert.Len(t, undone.History, 1)
	assert.NotEqual(t, latest, undone.History[0].ID)
	// Scores come back from the backend's recomputation.
	assert.Equal(t, 1, undone.Player("p1").Score)
	assert.Equal(t, 0, undone.Player("p2").Score)
}

func TestUndoScoreRejectsStaleEntry(t *testing.T) {
	client, backend := newClient(t)
	roomID := seedSoloRoom(backend, "5555")
	ctx := context.Background()

	first, err := client.UpdateSoloScore(ctx, roomID, "5555", "p1")
	require.NoError(t, err)
	older := first.History[0].ID

	_, err = client.UpdateSoloScore(ctx, roomID, "5555", "p2")
	require.NoError(t, err)

	_, err = client.UndoScore(ctx, roomID, older, "5555")
	require.Error(t, err)
}

func TestClaimSeatBindsExactlyOneSeat(t *testing.T) {
	client, backend := newClient(t)
	roomID := seedSoloRoom(backend, "5555")
	identity := model.Identity{GuestToken: "guest-abc"}

	room, err := client.ClaimSeat(context.Background(), roomID, "p1", identity)
	require.NoError(t, err)

	assert.True(t, identity.Owns(room.Player("p1")))
	assert.True(t, room.Player("p2").Unclaimed())
}

func TestClaimSeatAlreadyTaken(t *testing.T) {
	client, backend := newClient(t)
	roomID := seedSoloRoom(backend, "5555")
	ctx := context.Background()

	_, err := client.ClaimSeat(ctx, roomID, "p1", model.Identity{GuestToken: "guest-abc"})
	require.NoError(t, err)

	_, err = client.ClaimSeat(ctx, roomID, "p1", model.Identity{GuestToken: "guest-xyz"})
	require.Error(t, err)
}

func TestFinishRoom(t *testing.T) {
	client, backend := newClient(t)
	roomID := seedSoloRoom(backend, "5555")
	ctx := context.Background()

	room, err := client.FinishRoom(ctx, roomID, "5555")
	require.NoError(t, err)
	assert.True(t, room.Finished)

	// A finished room accepts no further mutation.
	_, err = client.UpdateSoloScore(ctx, roomID, "5555", "p1")
	assert.ErrorIs(t, err, model.ErrRoomFinished)
}

func TestCardModeFlow(t *testing.T) {
	client, backend := newClient(t)
	roomID := backend.SeedRoom(model.Room{
		Mode:          model.ModeCard,
		Version:       1,
		DeckRemaining: 52,
		Players: []model.Player{
			{ID: "p1", Name: "An", GuestToken: "guest-an"},
			{ID: "p2", Name: "Binh", GuestToken: "guest-binh"},
		},
	}, "5555")
	ctx := context.Background()
	an := model.Identity{GuestToken: "guest-an"}

	room, err := client.StartDeal(ctx, roomID, "5555")
	require.NoError(t, err)
	assert.True(t, room.Started())
	dealt := room.CardsInPlay()
	assert.Equal(t, 52, dealt+room.DeckRemaining)

	room, err = client.DrawCard(ctx, roomID, "p1", an)
	require.NoError(t, err)
	assert.Equal(t, dealt+1, room.CardsInPlay())
	assert.Equal(t, 52, room.CardsInPlay()+room.DeckRemaining)

	held := room.Player("p1").Cards[0].Value
	room, err = client.DiscardCard(ctx, roomID, "p1", held, an)
	require.NoError(t, err)
	assert.Equal(t, dealt, room.CardsInPlay())
	assert.Equal(t, model.KindDiscard, room.History[0].Kind)

	room, err = client.ResetMatch(ctx, roomID, "5555")
	require.NoError(t, err)
	assert.False(t, room.Started())
	assert.Equal(t, 52, room.DeckRemaining)
}

func TestDrawRequiresSeatOwnership(t *testing.T) {
	client, backend := newClient(t)
	roomID := backend.SeedRoom(model.Room{
		Mode:          model.ModeCard,
		Version:       1,
		DeckRemaining: 52,
		Players: []model.Player{
			{ID: "p1", Name: "An", GuestToken: "guest-an"},
		},
	}, "5555")

	_, err := client.DrawCard(context.Background(), roomID, "p1", model.Identity{GuestToken: "someone-else"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrAccessDenied)
}

func TestHistoryStampedFromBackendClock(t *testing.T) {
	clk := mocks.NewMockClock(time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC))
	backend := apitest.NewServerWithClock(clk)
	t.Cleanup(backend.Close)
	client := api.NewClient(backend.URL, "", testutil.NopLogger())
	roomID := seedSoloRoom(backend, "5555")

	clk.Advance(10 * time.Minute)
	room, err := client.UpdateSoloScore(context.Background(), roomID, "5555", "p1")
	require.NoError(t, err)

	require.NotNil(t, room.LastEntry())
	assert.True(t, room.LastEntry().CreatedAt.Equal(clk.Now()))
	assert.True(t, room.UpdatedAt.Equal(clk.Now()))
}
