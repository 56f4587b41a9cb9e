// internal/invite/invite.go
package invite

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// privateKey and publicKey sign and verify invite tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// inviteExpireSec is how many seconds until an invite expires (0 => never).
	inviteExpireSec int
)

// parseInviteExpireTime reads the INVITE_EXPIRE_TIME env var (a Go duration,
// or "never"/"0" for no expiry). Unset defaults to 24 hours.
func parseInviteExpireTime() error {
	duration := os.Getenv("INVITE_EXPIRE_TIME")
	if duration == "" {
		inviteExpireSec = int((24 * time.Hour).Seconds())
		return nil
	}
	if duration == "never" || duration == "0" {
		inviteExpireSec = 0
		return nil
	}
	d, err := time.ParseDuration(duration)
	if err != nil {
		return fmt.Errorf("failed to parse invite expire time: %w", err)
	}
	inviteExpireSec = int(d.Seconds())
	return nil
}

// Init generates a fresh ed25519 key pair at runtime. Tokens only need to
// survive a single process lifetime; room codes remain the durable fallback.
func Init() error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return parseInviteExpireTime()
}

// InitFromPath reads ed25519 private/public keys from file, for deployments
// where invite links must survive restarts.
func InitFromPath(privatePath, publicPath string) error {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}
	privateKey = ed25519.PrivateKey(privateKeyData)
	publicKey = ed25519.PublicKey(publicKeyData)
	return parseInviteExpireTime()
}

// Create signs an invite token carrying the room id. Anyone presenting it
// may join without the room code.
func Create(roomID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"room": roomID.String(),
	}
	if inviteExpireSec > 0 {
		claims["exp"] = time.Now().Add(time.Duration(inviteExpireSec) * time.Second).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// Verify checks a token and returns the room id it grants entry to.
func Verify(tokenString string) (uuid.UUID, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invite parse error: %w", err)
	}
	if !t.Valid {
		return uuid.Nil, fmt.Errorf("invalid invite token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid invite claims")
	}
	roomStr, ok := claims["room"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing room in invite")
	}
	roomID, err := uuid.Parse(roomStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("bad room id in invite: %w", err)
	}
	return roomID, nil
}
