package directory

import (
	"strconv"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/chubibyy/Vidar-DEV/internal/apperr"
)

// Data bag keys published through the directory. ServerPort stays a
// string-encoded integer on the wire; "0" means no server is attached yet.
const (
	DataKeyServerIP   = "ServerIP"
	DataKeyServerPort = "ServerPort"

	PlaceholderIP   = "0.0.0.0"
	PlaceholderPort = "0"
)

// RankedMaxPlayers is fixed for 1v1; the directory refuses a third
// quick-join on a full lobby.
const RankedMaxPlayers = 2

// Lobby is the shared rendezvous record two players discover each other
// through. Only the creating identity may update or delete it; everyone
// else reads.
type Lobby struct {
	Id         string            `json:"id"`
	Name       string            `json:"name"`
	MaxPlayers int               `json:"max_players"`
	IsPrivate  bool              `json:"is_private"`
	Data       map[string]string `json:"data"`
}

// ServerEndpoint reads the provisioned server address out of the data bag.
// ready is false while the host has not published a real address yet.
func (l Lobby) ServerEndpoint() (ip string, port int, ready bool, err error) {
	ip = l.Data[DataKeyServerIP]
	rawPort, prs := l.Data[DataKeyServerPort]
	if !prs || ip == "" || ip == PlaceholderIP {
		return "", 0, false, nil
	}

	port, convErr := strconv.Atoi(rawPort)
	if convErr != nil {
		return "", 0, false, apperr.ErrInvalidServerPort(rawPort)
	}
	if port <= 0 {
		return "", 0, false, nil
	}
	return ip, port, true, nil
}

// PlaceholderData is the data bag a freshly hosted lobby starts with,
// upholding the ServerPort=="0" <=> unprovisioned invariant.
func PlaceholderData() map[string]string {
	return map[string]string{
		DataKeyServerIP:   PlaceholderIP,
		DataKeyServerPort: PlaceholderPort,
	}
}

// EndpointData is the published form of a provisioned server.
func EndpointData(ip string, port int) map[string]string {
	return map[string]string{
		DataKeyServerIP:   ip,
		DataKeyServerPort: strconv.Itoa(port),
	}
}

// NewLobbyName builds a short human-pasteable lobby name.
func NewLobbyName() string {
	code, err := gonanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 8)
	if err != nil {
		// gonanoid only errors on a broken entropy source
		panic(err)
	}
	return "match-" + code
}
