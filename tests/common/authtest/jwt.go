//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"travel-booking/internal/domain/actor"
	"travel-booking/internal/pkg/config"
	"travel-booking/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type JWTHelper struct {
	cfg config.JWTConfig
}

func NewJWTHelper(cfg config.JWTConfig) *JWTHelper {
	return &JWTHelper{cfg: cfg}
}

func (h *JWTHelper) GenerateToken(t *testing.T, userID uuid.UUID, role actor.Role) string {
	t.Helper()
	duration, err := time.ParseDuration(h.cfg.Duration)
	require.NoError(t, err)
	token, err := jwt.NewService(h.cfg.Secret, duration).GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}

func (h *JWTHelper) CreateExpiredToken(t *testing.T, userID uuid.UUID, role actor.Role) string {
	t.Helper()
	token, err := jwt.NewService(h.cfg.Secret, time.Millisecond).GenerateToken(userID, role)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	return token
}
