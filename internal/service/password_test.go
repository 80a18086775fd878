package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fastHasher keeps argon2 cheap enough for unit tests.
func fastHasher() *Argon2Hasher {
	return &Argon2Hasher{Memory: 64, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16}
}

func TestArgon2Hasher_RoundTrip(t *testing.T) {
	h := fastHasher()

	for _, pw := range []string{"secret1", "", "pässwörd with spaces", "a"} {
		digest, err := h.Hash(pw)
		require.NoError(t, err)

		assert.True(t, h.Verify(pw, digest), "password %q", pw)
		assert.False(t, h.Verify(pw+"x", digest), "password %q", pw)
	}
}

func TestArgon2Hasher_SaltsDiffer(t *testing.T) {
	h := fastHasher()

	a, err := h.Hash("secret1")
	require.NoError(t, err)
	b, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestArgon2Hasher_DefaultFormat(t *testing.T) {
	digest, err := NewArgon2Hasher().Hash("secret1")
	require.NoError(t, err)
	assert.Regexp(t, `^\$argon2id\$v=19\$m=65536,t=1,p=4\$[A-Za-z0-9+/]+\$[A-Za-z0-9+/]+$`, digest)
}

func TestArgon2Hasher_MalformedDigestsFailClosed(t *testing.T) {
	h := fastHasher()

	digests := []string{
		"",
		"plaintext",
		"salt:hash",
		"$argon2i$v=19$m=64,t=1,p=1$c2FsdHNhbHQ$aGFzaA",
		"$argon2id$v=18$m=64,t=1,p=1$c2FsdHNhbHQ$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=0$c2FsdHNhbHQ$aGFzaA",
		"$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdHNhbHQ$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$c2FsdHNhbHQ$",
		"$argon2id$v=19$m=64,t=1,p=1$c2FsdHNhbHQ",
		"$2a$10$short",
	}
	for _, d := range digests {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("secret1", d), "digest %q", d)
		})
	}
}

func TestArgon2Hasher_LegacyBcrypt(t *testing.T) {
	h := fastHasher()

	legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, h.Verify("secret1", string(legacy)))
	assert.False(t, h.Verify("wrong", string(legacy)))
	assert.True(t, h.NeedsRehash(string(legacy)))
}

func TestArgon2Hasher_NeedsRehash(t *testing.T) {
	h := fastHasher()

	digest, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.False(t, h.NeedsRehash(digest))

	stronger := fastHasher()
	stronger.Time = 2
	assert.True(t, stronger.NeedsRehash(digest))
}
