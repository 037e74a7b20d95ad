// Package tokens signs and verifies access tokens. HS256 uses a shared
// secret; RS256 uses a key ring whose public half is served as JWKS so the
// gateway can verify without the private keys.
package tokens

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"strings"
	"sync"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
)

var (
	ErrUnknownKid       = errors.New("unknown kid")
	ErrRotationDisabled = errors.New("rotation not enabled")
	errNoKeys           = errors.New("no valid rsa keys found")
	errUnsupportedKey   = errors.New("unsupported private key")
)

type Signer interface {
	Sign(claims auth.Claims) (string, error)
	Verify(token string) (*auth.Claims, error)
	JWKS() []map[string]any
}

type hs256 struct {
	secret string
}

func NewHS256(secret string) Signer {
	return hs256{secret: secret}
}

func (s hs256) Sign(claims auth.Claims) (string, error) { return auth.SignHS256(claims, s.secret) }

func (s hs256) Verify(token string) (*auth.Claims, error) {
	return auth.ParseAndVerifyHS256(token, s.secret)
}

func (hs256) JWKS() []map[string]any { return nil }

// KeyRing holds one or more RSA keys. Tokens are signed with the active key
// and verified with whichever key their kid names.
type KeyRing struct {
	mu        sync.RWMutex
	active    string
	keys      map[string]*rsa.PrivateKey
	rotateKey string
}

// NewKeyRing parses every PEM block in pemBlobs. kids are derived from the
// public modulus; with a single key, activeKid renames it instead.
func NewKeyRing(pemBlobs, activeKid string) (*KeyRing, error) {
	keys := map[string]*rsa.PrivateKey{}
	var firstKid string
	for _, block := range splitPEMBlocks(pemBlobs) {
		key, err := parseRSAPrivateKey([]byte(block))
		if err != nil {
			return nil, err
		}
		kid := KeyID(&key.PublicKey)
		if firstKid == "" {
			firstKid = kid
		}
		keys[kid] = key
	}
	if len(keys) == 0 {
		return nil, errNoKeys
	}
	if len(keys) == 1 && activeKid != "" && keys[activeKid] == nil {
		keys = map[string]*rsa.PrivateKey{activeKid: keys[firstKid]}
	}
	if activeKid == "" {
		activeKid = firstKid
	}
	if keys[activeKid] == nil {
		return nil, ErrUnknownKid
	}
	return &KeyRing{active: activeKid, keys: keys}, nil
}

func (k *KeyRing) SetRotateKey(key string) {
	k.mu.Lock()
	k.rotateKey = key
	k.mu.Unlock()
}

// Rotate switches the signing key. presented must match the configured rotate key.
func (k *KeyRing) Rotate(presented, kid string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.rotateKey == "" || len(k.keys) < 2 {
		return ErrRotationDisabled
	}
	if presented != k.rotateKey {
		return auth.ErrInvalidToken
	}
	if k.keys[kid] == nil {
		return ErrUnknownKid
	}
	k.active = kid
	return nil
}

func (k *KeyRing) ActiveKid() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.active
}

func (k *KeyRing) Sign(claims auth.Claims) (string, error) {
	k.mu.RLock()
	kid, key := k.active, k.keys[k.active]
	k.mu.RUnlock()

	headerJSON, err := json.Marshal(auth.Header{Alg: "RS256", Typ: "JWT", Kid: kid})
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	unsigned := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + base64.RawURLEncoding.EncodeToString(payloadJSON)

	digest := sha256.Sum256([]byte(unsigned))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}
	return unsigned + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

func (k *KeyRing) Verify(token string) (*auth.Claims, error) {
	header, err := auth.ParseHeader(token)
	if err != nil {
		return nil, err
	}
	k.mu.RLock()
	key := k.keys[header.Kid]
	k.mu.RUnlock()
	if key == nil {
		return nil, auth.ErrInvalidToken
	}
	return auth.VerifyRS256(token, &key.PublicKey)
}

func (k *KeyRing) JWKS() []map[string]any {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]map[string]any, 0, len(k.keys))
	for kid, key := range k.keys {
		out = append(out, publicJWK(&key.PublicKey, kid))
	}
	return out
}

func parseRSAPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("invalid pem")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		if rsaKey, ok := key.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
	}
	return nil, errUnsupportedKey
}

func publicJWK(pub *rsa.PublicKey, kid string) map[string]any {
	return map[string]any{
		"kty": "RSA",
		"kid": kid,
		"alg": "RS256",
		"use": "sig",
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// KeyID is a short stable id derived from the modulus.
func KeyID(pub *rsa.PublicKey) string {
	sum := sha256.Sum256(pub.N.Bytes())
	return base64.RawURLEncoding.EncodeToString(sum[:8])
}

func splitPEMBlocks(raw string) []string {
	var blocks []string
	var current strings.Builder
	inBlock := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "-----BEGIN ") {
			inBlock = true
			current.Reset()
		}
		if inBlock {
			current.WriteString(line)
			current.WriteString("\n")
		}
		if inBlock && strings.HasPrefix(line, "-----END ") {
			inBlock = false
			blocks = append(blocks, current.String())
		}
	}
	return blocks
}
