package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/bidascore/bidascore-go/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case *model.Room:
		o.printRoom(v)
	case []model.Room:
		o.printRoomList(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printRoom(room *model.Room) {
	status := "open"
	if room.Finished {
		status = "finished"
	}

	name := room.Name
	if name == "" {
		name = string(room.ID)
	}
	fmt.Printf("%s  [%s, %s, v%d]\n", name, room.Mode, status, room.Version)

	for _, p := range room.Players {
		line := fmt.Sprintf("  %-12s %4d", p.Name, p.Score)
		if room.Mode == model.ModeCard {
			line += fmt.Sprintf("  hand: %s", formatHand(p.Cards))
		}
		if p.Unclaimed() {
			line += "  (open seat)"
		}
		fmt.Println(line)
	}

	if room.Mode == model.ModeCard {
		fmt.Printf("  deck: %d remaining\n", room.DeckRemaining)
		if w := room.Winner(); w != nil {
			fmt.Printf("  winner: %s\n", w.Name)
		}
	}

	if len(room.History) > 0 {
		fmt.Println("  history:")
		for _, entry := range room.History {
			fmt.Printf("    %s\n", formatHistoryEntry(room, entry))
		}
	}
}

func (o *Output) printRoomList(rooms []model.Room) {
	if len(rooms) == 0 {
		fmt.Println("No rooms")
		return
	}
	for _, room := range rooms {
		status := "open"
		if room.Finished {
			status = "finished"
		}
		names := make([]string, 0, len(room.Players))
		for _, p := range room.Players {
			names = append(names, p.Name)
		}
		name := room.Name
		if name == "" {
			name = string(room.ID)
		}
		fmt.Printf("%-12s %-16s %-10s %-8s %s\n", room.ID, name, room.Mode, status, strings.Join(names, ", "))
	}
}

func formatHand(cards []model.Card) string {
	if len(cards) == 0 {
		return "empty"
	}
	parts := make([]string, 0, len(cards))
	for _, c := range cards {
		parts = append(parts, fmt.Sprintf("%d%s", c.Value, c.Suit))
	}
	return strings.Join(parts, " ")
}

func formatHistoryEntry(room *model.Room, entry model.HistoryEntry) string {
	playerName := func(id model.PlayerID) string {
		if p := room.Player(id); p != nil {
			return p.Name
		}
		return string(id)
	}

	switch entry.Kind {
	case model.KindSoloWin:
		return fmt.Sprintf("%s  rack won by %s", entry.ID, playerName(entry.WinnerID))
	case model.KindPenalty:
		losers := make([]string, 0, len(entry.LoserIDs))
		for _, id := range entry.LoserIDs {
			losers = append(losers, playerName(id))
		}
		events := make([]string, 0, len(entry.Events))
		for _, ev := range entry.Events {
			events = append(events, fmt.Sprintf("ball %d x%d", ev.Ball, ev.Count))
		}
		return fmt.Sprintf("%s  %s penalized %s (%s)",
			entry.ID, playerName(entry.ScorerID), strings.Join(losers, ", "), strings.Join(events, ", "))
	case model.KindDeal:
		return fmt.Sprintf("%s  hands dealt", entry.ID)
	case model.KindDraw:
		return fmt.Sprintf("%s  %s drew a card", entry.ID, playerName(entry.PlayerID))
	case model.KindDiscard:
		if entry.Card != nil {
			return fmt.Sprintf("%s  %s discarded %d", entry.ID, playerName(entry.PlayerID), entry.Card.Value)
		}
		return fmt.Sprintf("%s  %s discarded a card", entry.ID, playerName(entry.PlayerID))
	case model.KindReset:
		return fmt.Sprintf("%s  match reset", entry.ID)
	default:
		return fmt.Sprintf("%s  %s", entry.ID, entry.Kind)
	}
}
