package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// ComputeStateToken returns the optimistic-concurrency token for record
// content: a SHA-256 digest of the exact bytes. Any single-byte change,
// trailing blank lines included, produces a different token.
func ComputeStateToken(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// CheckedWrite reads the current content of path, verifies the caller's
// expected token against it, applies mutate to produce the new content, and
// persists it atomically. An empty expectedToken skips the check (the
// explicit override path). On token mismatch it returns a ConflictError
// carrying the competing content; the caller's edit is never silently lost.
//
// The read-check-write cycle runs under an advisory file lock, so two local
// writers cannot interleave between check and write; the loser of a race
// observes the conflict on its own call.
func CheckedWrite(path, expectedToken string, mutate func(current string) (string, error)) (string, error) {
	unlock, err := lockRecord(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	current := string(data)

	if expectedToken != "" {
		currentToken := ComputeStateToken(current)
		if currentToken != expectedToken {
			return "", &ConflictError{
				Path:           path,
				ExpectedToken:  expectedToken,
				CurrentToken:   currentToken,
				CurrentContent: current,
			}
		}
	}

	next, err := mutate(current)
	if err != nil {
		return "", err
	}
	if next == current {
		return ComputeStateToken(current), nil
	}

	if err := atomic.WriteFile(path, strings.NewReader(next)); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return ComputeStateToken(next), nil
}
