package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gravitas-games/slotgui/internal/config"
)

type fakeBlacklist struct {
	revoked map[string]bool
	err     error
}

func (b *fakeBlacklist) IsBlacklisted(_ context.Context, userID string) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	return b.revoked[userID], nil
}

func keyServer(t *testing.T) (*ecdsa.PrivateKey, *httptest.Server) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	body := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return priv, srv
}

func testValidator(t *testing.T, bl Blacklist) (*ecdsa.PrivateKey, *JWTValidator) {
	t.Helper()
	priv, srv := keyServer(t)
	cfg := config.Default()
	cfg.JWT.Issuer = "login"
	cfg.JWT.PublicKeyURL = srv.URL
	v, err := NewJWTValidator(cfg, bl)
	if err != nil {
		t.Fatalf("unexpected validator error: %v", err)
	}
	return priv, v
}

func sign(t *testing.T, priv *ecdsa.PrivateKey, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func validClaims() Claims {
	return Claims{
		UserID:    42,
		Username:  "steve",
		Email:     "steve@example.com",
		Activated: 1700000000,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "login",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestValidateToken(t *testing.T) {
	bl := &fakeBlacklist{revoked: map[string]bool{"7": true}}
	priv, v := testValidator(t, bl)

	player, err := v.ValidateToken(sign(t, priv, validClaims()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if player.ID != "42" || player.Username != "steve" || player.ViewerID() != "42" {
		t.Fatalf("unexpected player: %+v", player)
	}
	if len(player.Inventory) != 36 {
		t.Fatalf("expected a 36 slot inventory, got %d", len(player.Inventory))
	}

	cases := []struct {
		name   string
		mutate func(*Claims)
		want   string
	}{
		{"wrong issuer", func(c *Claims) { c.Issuer = "elsewhere" }, "failed to parse token"},
		{"expired", func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute)) }, "failed to parse token"},
		{"no expiry", func(c *Claims) { c.ExpiresAt = nil }, "failed to parse token"},
		{"not activated", func(c *Claims) { c.Activated = 0 }, "not activated"},
		{"banned", func(c *Claims) { c.Activated = -1 }, "banned"},
		{"blacklisted", func(c *Claims) { c.UserID = 7 }, "blacklisted"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims := validClaims()
			tc.mutate(&claims)
			_, err := v.ValidateToken(sign(t, priv, claims))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateTokenRejectsOtherAlgorithms(t *testing.T) {
	_, v := testValidator(t, nil)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := v.ValidateToken(token); err == nil {
		t.Fatalf("expected HS256 token to be rejected")
	}
}

func TestValidateTokenToleratesBlacklistOutage(t *testing.T) {
	priv, v := testValidator(t, &fakeBlacklist{err: errors.New("redis down")})
	if _, err := v.ValidateToken(sign(t, priv, validClaims())); err != nil {
		t.Fatalf("expected validation to proceed without the blacklist, got %v", err)
	}
}

func TestNewJWTValidatorFailsWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	cfg := config.Default()
	cfg.JWT.PublicKeyURL = srv.URL
	if _, err := NewJWTValidator(cfg, nil); err == nil {
		t.Fatalf("expected an error when the key endpoint fails")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	cases := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{"protocol", func(r *http.Request) { r.Header.Set("Sec-WebSocket-Protocol", "access_token, abc") }, "abc"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer xyz") }, "xyz"},
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=q1" }, "q1"},
		{"none", func(r *http.Request) {}, ""},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		tc.setup(r)
		if got := extractTokenFromHeader(r); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
