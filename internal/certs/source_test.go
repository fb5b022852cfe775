package certs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/certkeys/internal/certs"
	"github.com/dropDatabas3/certkeys/internal/certs/certtest"
)

func thumbprints(cs []*certs.Certificate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Thumbprint
	}
	return out
}

func TestCertificate_LiveWindowAndInvalidate(t *testing.T) {
	now := time.Now()
	c := certtest.RSA(t, "id.example.com", certtest.Window(now.Add(-time.Hour), now.Add(time.Hour)))

	assert.True(t, c.Live(now))
	assert.False(t, c.Live(now.Add(-2*time.Hour)), "before NotBefore")
	assert.False(t, c.Live(now.Add(time.Hour)), "NotAfter is exclusive")

	c.Invalidate()
	assert.False(t, c.Live(now))
}

func TestCertificate_ThumbprintIsStable(t *testing.T) {
	c := certtest.RSA(t, "id.example.com")
	again := certs.New(c.Leaf)

	assert.Len(t, c.Thumbprint, 40)
	assert.Equal(t, c.Thumbprint, again.Thumbprint)
	assert.True(t, c.SameAs(again))
	assert.True(t, c.HasPrivateKey())
	assert.False(t, again.HasPrivateKey())
}

func TestMemorySource_RankingAndEmptyResult(t *testing.T) {
	now := time.Now()
	older := certtest.RSA(t, "id.example.com", certtest.Window(now.Add(-time.Hour), now.Add(24*time.Hour)))
	newer := certtest.RSA(t, "id.example.com", certtest.Window(now.Add(-time.Hour), now.Add(48*time.Hour)))
	wildcard := certtest.RSA(t, "edge", certtest.DNS("*.example.com"), certtest.Window(now.Add(-time.Hour), now.Add(96*time.Hour)))
	other := certtest.RSA(t, "api.other.org")

	src := certs.NewMemorySource(older, wildcard, newer, other)

	got, err := src.FindBySubjectName(context.Background(), "ID.example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{newer.Thumbprint, older.Thumbprint, wildcard.Thumbprint}, thumbprints(got))

	none, err := src.FindBySubjectName(context.Background(), "nothing.example.net")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemorySource_Unavailable(t *testing.T) {
	src := certs.NewMemorySource(certtest.RSA(t, "id.example.com"))
	src.SetUnavailable(errors.New("disk gone"))

	_, err := src.FindBySubjectName(context.Background(), "id.example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, certs.ErrRepositoryUnavailable)

	src.SetUnavailable(nil)
	got, err := src.FindBySubjectName(context.Background(), "id.example.com")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemorySource_DelayHonoursContext(t *testing.T) {
	src := certs.NewMemorySource(certtest.RSA(t, "id.example.com"))
	src.SetDelay(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := src.FindBySubjectName(ctx, "id.example.com")
	assert.ErrorIs(t, err, certs.ErrRepositoryUnavailable)
}

func TestMemorySource_RemoveIsVisibleImmediately(t *testing.T) {
	c := certtest.RSA(t, "id.example.com")
	src := certs.NewMemorySource(c)
	src.Remove(c.Thumbprint)

	got, err := src.FindBySubjectName(context.Background(), "id.example.com")
	require.NoError(t, err)
	assert.Empty(t, got)
}
