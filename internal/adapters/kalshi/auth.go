package kalshi

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Headers de autenticación de Kalshi.
const (
	HeaderAccessKey       = "KALSHI-ACCESS-KEY"
	HeaderAccessTimestamp = "KALSHI-ACCESS-TIMESTAMP"
	HeaderAccessSignature = "KALSHI-ACCESS-SIGNATURE"
)

// Signer firma requests con RSA-PSS: firma(timestamp_ms + método + path).
type Signer struct {
	keyID string
	key   *rsa.PrivateKey
	now   func() time.Time
}

// NewSigner crea un Signer con una clave ya parseada.
func NewSigner(keyID string, key *rsa.PrivateKey) (*Signer, error) {
	if keyID == "" {
		return nil, errors.New("kalshi.NewSigner: API key ID is required")
	}
	if key == nil {
		return nil, errors.New("kalshi.NewSigner: private key is required")
	}
	return &Signer{keyID: keyID, key: key, now: time.Now}, nil
}

// LoadSigner construye un Signer desde una ruta PEM o desde el PEM inline.
// El PEM inline puede traer los saltos de línea escapados como "\n" (típico
// de variables de entorno). Si ambos están presentes gana el inline.
func LoadSigner(keyID, keyPath, inlinePEM string) (*Signer, error) {
	var data []byte
	switch {
	case inlinePEM != "":
		data = []byte(strings.ReplaceAll(inlinePEM, `\n`, "\n"))
	case keyPath != "":
		b, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("kalshi.LoadSigner: read key file: %w", err)
		}
		data = b
	default:
		return nil, errors.New("kalshi.LoadSigner: private key path or inline key is required")
	}

	key, err := ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("kalshi.LoadSigner: %w", err)
	}
	return NewSigner(keyID, key)
}

// ParsePrivateKey parsea una clave RSA PEM, PKCS#8 primero y PKCS#1 después.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("key is not an RSA private key")
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return rsaKey, nil
}

// Headers devuelve los headers firmados para method + path. path es el path
// completo de la URL, sin query string.
func (s *Signer) Headers(method, path string) (map[string]string, error) {
	ts := strconv.FormatInt(s.now().UnixMilli(), 10)

	hashed := sha256.Sum256([]byte(ts + method + path))
	sig, err := rsa.SignPSS(rand.Reader, s.key, crypto.SHA256, hashed[:],
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	if err != nil {
		return nil, fmt.Errorf("kalshi.Signer: sign: %w", err)
	}

	return map[string]string{
		HeaderAccessKey:       s.keyID,
		HeaderAccessTimestamp: ts,
		HeaderAccessSignature: base64.StdEncoding.EncodeToString(sig),
	}, nil
}
