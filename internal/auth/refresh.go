package auth

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const refreshTokenFile = "refresh_tokens.json"

const refreshTokenTTL = 7 * 24 * time.Hour

type refreshEntry struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

var (
	mu                sync.Mutex
	refreshTokenStore = map[string]refreshEntry{}
	loaded            bool
)

// SetRefreshToken records a refresh token for a user and persists the store.
func SetRefreshToken(token, username string) {
	mu.Lock()
	defer mu.Unlock()
	ensureLoaded()
	refreshTokenStore[token] = refreshEntry{
		Username:  username,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	saveRefreshTokens()
}

// ConsumeRefreshToken validates and rotates out a refresh token, returning
// the username it was issued to.
func ConsumeRefreshToken(token string) (string, bool) {
	mu.Lock()
	defer mu.Unlock()
	ensureLoaded()
	entry, ok := refreshTokenStore[token]
	if !ok || time.Now().After(entry.ExpiresAt) {
		delete(refreshTokenStore, token)
		return "", false
	}
	delete(refreshTokenStore, token)
	saveRefreshTokens()
	return entry.Username, true
}

// StartRefreshTokenCleaner drops expired tokens on the given interval.
// Runs forever; call in a goroutine.
func StartRefreshTokenCleaner(interval time.Duration) {
	for {
		time.Sleep(interval)
		mu.Lock()
		ensureLoaded()
		changed := false
		for token, entry := range refreshTokenStore {
			if time.Now().After(entry.ExpiresAt) {
				delete(refreshTokenStore, token)
				changed = true
			}
		}
		if changed {
			saveRefreshTokens()
		}
		mu.Unlock()
	}
}

func ensureLoaded() {
	if loaded {
		return
	}
	loaded = true
	data, err := os.ReadFile(refreshTokenFile)
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("failed to load refresh token store", zap.Error(err))
		}
		return
	}
	if err := json.Unmarshal(data, &refreshTokenStore); err != nil {
		zap.L().Warn("failed to parse refresh token store", zap.Error(err))
		refreshTokenStore = map[string]refreshEntry{}
	}
}

func saveRefreshTokens() {
	data, err := json.MarshalIndent(refreshTokenStore, "", "  ")
	if err != nil {
		zap.L().Warn("failed to marshal refresh token store", zap.Error(err))
		return
	}
	if err := os.WriteFile(refreshTokenFile, data, 0600); err != nil {
		zap.L().Warn("failed to persist refresh token store", zap.Error(err))
	}
}
