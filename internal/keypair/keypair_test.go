package keypair_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vaulterr "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/keypair"
	"github.com/allisson/vault/internal/naming"
)

func testHashParams() naming.ArgonConfig {
	return naming.ArgonConfig{MemoryKiB: 8 * 1024, Time: 1, Threads: 4}
}

func TestProtectRejectsFewerThanTwoUsers(t *testing.T) {
	_, _, err := keypair.Protect(map[string]string{"chell": "pw1"}, testHashParams())
	require.Error(t, err)
	assert.True(t, vaulterr.Is(err, vaulterr.NotEnoughUsers))
}

func TestAnyTwoCorrectPairsReconstruct(t *testing.T) {
	hashParams := testHashParams()
	records, _, err := keypair.Protect(map[string]string{
		"chell": "pw1-correct-horse",
		"cave":  "pw2-battery-staple",
	}, hashParams)
	require.NoError(t, err)

	secretKey, err := keypair.Reconstruct(
		"pw1-correct-horse", records["chell"],
		"pw2-battery-staple", records["cave"],
		hashParams,
	)
	require.NoError(t, err)
	assert.Len(t, secretKey, 32)
}

func TestWrongPasswordFailsWithCryptographyError(t *testing.T) {
	hashParams := testHashParams()
	records, _, err := keypair.Protect(map[string]string{
		"chell": "pw1-correct-horse",
		"cave":  "pw2-battery-staple",
	}, hashParams)
	require.NoError(t, err)

	_, err = keypair.Reconstruct(
		"wrong-password", records["chell"],
		"pw2-battery-staple", records["cave"],
		hashParams,
	)
	require.Error(t, err)
	assert.True(t, vaulterr.Is(err, vaulterr.CryptographyError))
}

func TestSaltsAreFreshPerUser(t *testing.T) {
	records, _, err := keypair.Protect(map[string]string{
		"chell": "pw1-correct-horse",
		"cave":  "pw2-battery-staple",
	}, testHashParams())
	require.NoError(t, err)
	assert.NotEqual(t, records["chell"].Salt, records["cave"].Salt)
}
