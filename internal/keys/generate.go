package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/ucpkit/ucpcheck/internal/profile"
)

// GeneratedKey pairs the public JWK a merchant publishes under signing_keys
// with the PEM-encoded private key it keeps for signing webhooks.
type GeneratedKey struct {
	Public     profile.JWK
	PrivatePEM string
}

// Generate mints a fresh signing key pair. kty is "EC" (P-256) or "RSA"
// (2048 bits). The public half always passes ValidateJWK.
func Generate(kty string) (*GeneratedKey, error) {
	switch kty {
	case "EC":
		return generateEC()
	case "RSA":
		return generateRSA()
	default:
		return nil, fmt.Errorf("unsupported key type %q (want EC or RSA)", kty)
	}
}

func generateEC() (*GeneratedKey, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating EC key: %w", err)
	}
	der, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("encoding EC key: %w", err)
	}

	// Fixed-width coordinate encoding per RFC 7518 §6.2.1.
	byteLen := (priv.Curve.Params().BitSize + 7) / 8
	return &GeneratedKey{
		Public: profile.JWK{
			Kty: "EC",
			Kid: uuid.NewString(),
			Use: "sig",
			Alg: "ES256",
			Crv: "P-256",
			X:   b64Coord(priv.X, byteLen),
			Y:   b64Coord(priv.Y, byteLen),
		},
		PrivatePEM: string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})),
	}, nil
}

func generateRSA() (*GeneratedKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generating RSA key: %w", err)
	}
	der := x509.MarshalPKCS1PrivateKey(priv)

	return &GeneratedKey{
		Public: profile.JWK{
			Kty: "RSA",
			Kid: uuid.NewString(),
			Use: "sig",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(priv.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(priv.E)).Bytes()),
		},
		PrivatePEM: string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der})),
	}, nil
}

func b64Coord(v *big.Int, byteLen int) string {
	buf := make([]byte, byteLen)
	v.FillBytes(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}
