package secretbox

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(seed byte) []byte {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = seed + byte(i)
	}
	return raw
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	b, err := New(base64.StdEncoding.EncodeToString(testKey(1)))
	require.NoError(t, err)

	msg := "pfx password ✓"
	ct, err := b.Encrypt(msg)
	require.NoError(t, err)
	assert.NotContains(t, ct, msg)

	pt, err := b.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, msg, pt)
}

func TestNew_KeyEncodings(t *testing.T) {
	raw := testKey(7)
	b64, err := New(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	hx, err := New(hex.EncodeToString(raw))
	require.NoError(t, err)

	ct, err := b64.Encrypt("x")
	require.NoError(t, err)
	pt, err := hx.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "x", pt)

	_, err = New("")
	assert.ErrorIs(t, err, ErrNoKey)
	_, err = New("too-short")
	assert.Error(t, err)
}

func TestDecrypt_DetectsTamper(t *testing.T) {
	b, err := New(base64.StdEncoding.EncodeToString(testKey(200)))
	require.NoError(t, err)

	ct, err := b.Encrypt("top secret")
	require.NoError(t, err)
	nonce, body, ok := strings.Cut(ct, "|")
	require.True(t, ok)

	bs, err := base64.StdEncoding.DecodeString(body)
	require.NoError(t, err)
	bs[0] ^= 0x01
	_, err = b.Decrypt(nonce + "|" + base64.StdEncoding.EncodeToString(bs))
	assert.Error(t, err)

	_, err = b.Decrypt("no-separator")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvVar, "")
	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrNoKey)

	t.Setenv(EnvVar, base64.StdEncoding.EncodeToString(testKey(3)))
	_, err = FromEnv()
	assert.NoError(t, err)
}

func TestReveal(t *testing.T) {
	b, err := New(base64.StdEncoding.EncodeToString(testKey(9)))
	require.NoError(t, err)

	v, err := Reveal(nil, "plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", v)

	ct, err := b.Encrypt("changeit")
	require.NoError(t, err)
	v, err = Reveal(b, Prefix+ct)
	require.NoError(t, err)
	assert.Equal(t, "changeit", v)

	_, err = Reveal(nil, Prefix+ct)
	assert.ErrorIs(t, err, ErrNoKey)
}
