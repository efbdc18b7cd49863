package proof

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider() *LocalProvider {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewLocalProvider("test-application-salt", logger)
}

func baseParams() Params {
	return Params{
		RequestID:   "REQ-7d4a1c9e",
		OwnerID:     "owner-01",
		RequesterID: "requester-01",
		Categories:  []string{"lab-results", "prescriptions"},
		Timestamp:   1756600000000,
	}
}

func TestSubmit_ReplayWithIdenticalInputsIsIdempotent(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	first, err := p.Submit(ctx, baseParams())
	require.NoError(t, err)
	second, err := p.Submit(ctx, baseParams())
	require.NoError(t, err)

	assert.Equal(t, first.Digest, second.Digest)
	assert.Equal(t, first.ProofRef, second.ProofRef)
	assert.Equal(t, SchemeVersion, first.SchemeVersion)
	assert.Len(t, first.Digest, 64)
}

func TestSubmit_CategoryOrderDoesNotMatter(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	params := baseParams()
	reordered := baseParams()
	reordered.Categories = []string{"prescriptions", "lab-results"}

	a, err := p.Submit(ctx, params)
	require.NoError(t, err)
	b, err := p.Submit(ctx, reordered)
	require.NoError(t, err)

	assert.Equal(t, a.Digest, b.Digest)
}

func TestSubmit_TrimsFieldWhitespace(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	padded := baseParams()
	padded.OwnerID = "  owner-01  "
	padded.Categories = []string{" lab-results ", "prescriptions"}

	a, err := p.Submit(ctx, baseParams())
	require.NoError(t, err)
	b, err := p.Submit(ctx, padded)
	require.NoError(t, err)

	assert.Equal(t, a.Digest, b.Digest)
}

func TestVerifyDigest_AcceptsSubmittedDigest(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	result, err := p.Submit(ctx, baseParams())
	require.NoError(t, err)

	ok, err := p.VerifyDigest(ctx, baseParams(), result.Digest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyDigest_RejectsAnyMutatedField(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	result, err := p.Submit(ctx, baseParams())
	require.NoError(t, err)

	mutations := map[string]Params{}

	m := baseParams()
	m.OwnerID = "owner-02"
	mutations["ownerId"] = m

	m = baseParams()
	m.RequesterID = "requester-02"
	mutations["requesterId"] = m

	m = baseParams()
	m.Categories = []string{"lab-results"}
	mutations["categories"] = m

	m = baseParams()
	m.RequestID = "REQ-other"
	mutations["requestId"] = m

	m = baseParams()
	m.Timestamp++
	mutations["timestamp"] = m

	for field, mutated := range mutations {
		ok, err := p.VerifyDigest(ctx, mutated, result.Digest)
		require.NoError(t, err)
		assert.False(t, ok, "mutated %s must not verify against the original digest", field)
	}
}

func TestVerifyDigest_SaltBindsTheDigest(t *testing.T) {
	ctx := context.Background()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	a := NewLocalProvider("salt-a", logger)
	b := NewLocalProvider("salt-b", logger)

	result, err := a.Submit(ctx, baseParams())
	require.NoError(t, err)

	ok, err := b.VerifyDigest(ctx, baseParams(), result.Digest)
	require.NoError(t, err)
	assert.False(t, ok)
}
