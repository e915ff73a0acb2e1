// syncproof builds the deterministic keyed-hash proof attached to every
// score submission. Client and server share this exact construction: the
// server recomputes the proof under the caller's bearer token, so a
// captured payload cannot be replayed under another token or resubmitted
// with altered values.
package syncproof

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DailyScoreEntry is the tuple a proof binds to a session token.
type DailyScoreEntry struct {
	Date       string
	Score      int
	TimeTaken  int
	TimedBonus int
}

// BuildDailyScoreProof derives the proof for an entry under an auth token.
// The HMAC key is the lowercase hex digest of the token, keeping client and
// server byte-identical. Pure: same inputs always give the same string.
func BuildDailyScoreProof(entry DailyScoreEntry, authToken string) string {
	keyDigest := sha256.Sum256([]byte(authToken))
	key := hex.EncodeToString(keyDigest[:])

	message := fmt.Sprintf("%s|%d|%d|%d", entry.Date, entry.Score, entry.TimeTaken, entry.TimedBonus)
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether proof matches the entry under the token, in
// constant time.
func Verify(entry DailyScoreEntry, authToken, proof string) bool {
	if proof == "" {
		return false
	}
	expected := BuildDailyScoreProof(entry, authToken)
	return hmac.Equal([]byte(expected), []byte(proof))
}
