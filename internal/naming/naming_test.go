package naming_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vaulterr "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/naming"
)

func TestNormalizeLowercasesValidName(t *testing.T) {
	got, err := naming.Normalize("ApSci123")
	require.NoError(t, err)
	assert.Equal(t, "apsci123", got)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	first, err := naming.Normalize("ApSci123")
	require.NoError(t, err)
	second, err := naming.Normalize(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalizeRejectsPathTraversal(t *testing.T) {
	_, err := naming.Normalize("../evil")
	require.Error(t, err)
	assert.True(t, vaulterr.Is(err, vaulterr.ValidationError))
}

func TestNormalizeRejectsEmptyAndOverlong(t *testing.T) {
	_, err := naming.Normalize("")
	require.Error(t, err)

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err = naming.Normalize(string(long))
	require.Error(t, err)
}

func TestEmpiricallyChooseArgonConfigMeetsTarget(t *testing.T) {
	cfg := naming.EmpiricallyChooseArgonConfig(8*1024, 5*time.Millisecond)
	assert.GreaterOrEqual(t, cfg.Time, uint32(1))
	assert.Equal(t, uint32(8*1024), cfg.MemoryKiB)

	start := time.Now()
	naming.DeriveKey("probe-password", []byte("0123456789abcdef"), cfg)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestDeriveKeyIsDeterministic(t *testing.T) {
	cfg := naming.ArgonConfig{MemoryKiB: 8 * 1024, Time: 1, Threads: 4}
	salt := []byte("0123456789abcdef")
	a := naming.DeriveKey("correct horse", salt, cfg)
	b := naming.DeriveKey("correct horse", salt, cfg)
	assert.Equal(t, a, b)

	c := naming.DeriveKey("wrong horse", salt, cfg)
	assert.NotEqual(t, a, c)
}
