package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
)

type envelope struct {
	GameID string        `json:"game_id"`
	Seq    int           `json:"seq"`
	Action action.Action `json:"action"`
}

// ActionHash computes the content hash of one journal entry.
func ActionHash(gameID string, seq int, a action.Action) (string, error) {
	if strings.TrimSpace(gameID) == "" {
		return "", fmt.Errorf("game id is required")
	}
	if seq <= 0 {
		return "", fmt.Errorf("seq must be positive, got %d", seq)
	}
	data, err := json.Marshal(envelope{GameID: gameID, Seq: seq, Action: a})
	if err != nil {
		return "", fmt.Errorf("encode action: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ChainHash links an entry hash to the chain hash of its predecessor. The
// first entry of a game has an empty prevHash.
func ChainHash(actionHash, prevHash string) (string, error) {
	if strings.TrimSpace(actionHash) == "" {
		return "", fmt.Errorf("action hash is required")
	}
	sum := sha256.Sum256([]byte(prevHash + ":" + actionHash))
	return hex.EncodeToString(sum[:]), nil
}
