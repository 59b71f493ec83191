package keys

import (
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucpkit/ucpcheck/internal/profile"
)

func TestValidateJWK(t *testing.T) {
	tests := []struct {
		name    string
		key     profile.JWK
		wantErr string
	}{
		{
			name: "valid EC",
			key:  profile.JWK{Kty: "EC", Crv: "P-256", X: "x", Y: "y"},
		},
		{
			name: "valid EC P-521",
			key:  profile.JWK{Kty: "EC", Crv: "P-521", X: "x", Y: "y"},
		},
		{
			name: "valid RSA",
			key:  profile.JWK{Kty: "RSA", N: "n", E: "e"},
		},
		{
			name:    "missing kty",
			key:     profile.JWK{Crv: "P-256", X: "x", Y: "y"},
			wantErr: "kty: required",
		},
		{
			name:    "unsupported kty",
			key:     profile.JWK{Kty: "OKP", Crv: "Ed25519", X: "x"},
			wantErr: `unsupported key type "OKP"`,
		},
		{
			name:    "EC missing y",
			key:     profile.JWK{Kty: "EC", Crv: "P-256", X: "x"},
			wantErr: "y: required",
		},
		{
			name:    "EC unsupported curve",
			key:     profile.JWK{Kty: "EC", Crv: "secp256k1", X: "x", Y: "y"},
			wantErr: "unsupported curve",
		},
		{
			name:    "RSA missing e",
			key:     profile.JWK{Kty: "RSA", N: "n"},
			wantErr: "e: required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJWK(tt.key)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJWKReportsAllProblems(t *testing.T) {
	err := ValidateJWK(profile.JWK{Kty: "EC"})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 3) // crv, x, y
}

func TestGenerateEC(t *testing.T) {
	key, err := Generate("EC")
	require.NoError(t, err)

	assert.Equal(t, "EC", key.Public.Kty)
	assert.Equal(t, "P-256", key.Public.Crv)
	assert.Equal(t, "ES256", key.Public.Alg)
	assert.Equal(t, "sig", key.Public.Use)
	assert.NotEmpty(t, key.Public.Kid)
	assert.NoError(t, ValidateJWK(key.Public))

	block, _ := pem.Decode([]byte(key.PrivatePEM))
	require.NotNil(t, block)
	assert.Equal(t, "EC PRIVATE KEY", block.Type)
	_, err = x509.ParseECPrivateKey(block.Bytes)
	require.NoError(t, err)
}

func TestGenerateRSA(t *testing.T) {
	key, err := Generate("RSA")
	require.NoError(t, err)

	assert.Equal(t, "RSA", key.Public.Kty)
	assert.Equal(t, "RS256", key.Public.Alg)
	assert.NoError(t, ValidateJWK(key.Public))

	block, _ := pem.Decode([]byte(key.PrivatePEM))
	require.NotNil(t, block)
	assert.Equal(t, "RSA PRIVATE KEY", block.Type)
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	require.NoError(t, err)
	assert.Equal(t, 2048, priv.N.BitLen())
}

func TestGenerateUnsupportedType(t *testing.T) {
	_, err := Generate("OKP")
	require.Error(t, err)
}

func TestGeneratedKidsAreUnique(t *testing.T) {
	a, err := Generate("EC")
	require.NoError(t, err)
	b, err := Generate("EC")
	require.NoError(t, err)
	assert.NotEqual(t, a.Public.Kid, b.Public.Kid)
}
