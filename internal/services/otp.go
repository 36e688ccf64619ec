package services

import (
	"fmt"
	"math/rand"
	"time"
)

const defaultVerificationTTL = time.Hour

// OTPGenerator выдаёт 6-значный код и абсолютный срок его действия.
type OTPGenerator struct {
	TTL time.Duration // если 0 — возьмём defaultVerificationTTL
}

func NewOTPGenerator(ttl time.Duration) *OTPGenerator {
	return &OTPGenerator{TTL: ttl}
}

func (g *OTPGenerator) Generate() (code string, expiresAt time.Time) {
	src := rand.NewSource(time.Now().UnixNano())
	rnd := rand.New(src)

	ttl := g.TTL
	if ttl <= 0 {
		ttl = defaultVerificationTTL
	}
	return fmt.Sprintf("%06d", rnd.Intn(1000000)), time.Now().Add(ttl)
}
