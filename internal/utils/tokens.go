package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewStateToken — случайный hex-токен (oauth state и прочие одноразовые метки).
func NewStateToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 16 // 128 бит по умолчанию
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
