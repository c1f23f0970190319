package services

import "github.com/Dosada05/killrace-tournament/brackets"

// Notifier рассылает события подключённым по websocket клиентам.
// *brackets.Hub удовлетворяет этому интерфейсу.
type Notifier interface {
	BroadcastToRoom(roomID string, eventType string, payload interface{})
}

const (
	EventPlayersChanged     = "players_changed"
	EventTeamsChanged       = "teams_changed"
	EventQualifierResult    = "qualifier_result"
	EventQualificationCheck = "qualification_checked"
	EventSemifinalsCreated  = "semifinals_generated"
	EventSemifinalResult    = "semifinal_result"
	EventFinalsCreated      = "finals_generated"
	EventFinalsResult       = "finals_result"
	EventPhaseChanged       = "phase_changed"
	EventTournamentUpdated  = "tournament_updated"
	EventTournamentReset    = "tournament_reset"
)

type noopNotifier struct{}

func (noopNotifier) BroadcastToRoom(string, string, interface{}) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func publish(n Notifier, event string, payload interface{}) {
	n.BroadcastToRoom(brackets.LiveRoom, event, payload)
}
