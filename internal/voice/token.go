// Package voice issues access tokens for the live voice-coaching room.
// Tokens are HS256 JWTs carrying a LiveKit-style video grant.
package voice

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

// DefaultTTL is the token lifetime when none is configured.
const DefaultTTL = time.Hour

// ErrNotConfigured is returned when no API key or secret is set.
var ErrNotConfigured = eris.New("voice: api key and secret are required")

// VideoGrant is the room permission embedded in a token.
type VideoGrant struct {
	Room     string `json:"room"`
	RoomJoin bool   `json:"roomJoin"`
}

// Claims are the JWT claims of a voice token.
type Claims struct {
	jwt.RegisteredClaims
	Name  string     `json:"name,omitempty"`
	Video VideoGrant `json:"video"`
}

// Issuer signs voice tokens.
type Issuer struct {
	apiKey    string
	apiSecret []byte
	url       string
	ttl       time.Duration
	nowFunc   func() time.Time
}

// NewIssuer creates an Issuer. A non-positive ttl uses DefaultTTL.
func NewIssuer(apiKey, apiSecret, url string, ttl time.Duration) (*Issuer, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, ErrNotConfigured
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		apiKey:    apiKey,
		apiSecret: []byte(apiSecret),
		url:       url,
		ttl:       ttl,
		nowFunc:   time.Now,
	}, nil
}

// URL returns the voice server URL clients connect to.
func (i *Issuer) URL() string { return i.url }

// Token returns a signed token letting identity join room.
func (i *Issuer) Token(room, identity string) (string, error) {
	if room == "" || identity == "" {
		return "", eris.New("voice: room and identity are required")
	}
	now := i.nowFunc()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Name:  identity,
		Video: VideoGrant{Room: room, RoomJoin: true},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.apiSecret)
	if err != nil {
		return "", eris.Wrap(err, "voice: sign token")
	}
	return signed, nil
}

// Parse verifies a token signed by this issuer and returns its claims.
func (i *Issuer) Parse(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.apiSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.apiKey),
		jwt.WithTimeFunc(i.nowFunc),
	)
	if err != nil {
		return nil, eris.Wrap(err, "voice: parse token")
	}
	return &claims, nil
}
