package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "locregistry/pkg/domain-errors"
)

func TestParseLocID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseLocID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseLocID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseLocID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		want := uuid.New()
		id, err := ParseLocID(want.String())
		require.NoError(t, err)
		assert.Equal(t, LocID(want), id)
		assert.False(t, id.IsNil())
	})
}

func TestIDTextEncoding(t *testing.T) {
	t.Run("json renders ids as canonical uuid strings", func(t *testing.T) {
		locID := NewLocID()
		payload := struct {
			Loc     LocID     `json:"loc"`
			Account AccountID `json:"account"`
		}{Loc: locID, Account: NewAccountID()}

		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"loc":"`+locID.String()+`"`)
	})

	t.Run("round trips through json", func(t *testing.T) {
		want := NewSponsorshipID()
		raw, err := json.Marshal(want)
		require.NoError(t, err)

		var got SponsorshipID
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, want, got)
	})

	t.Run("decoding restores the nil uuid verbatim", func(t *testing.T) {
		var got AccountID
		require.NoError(t, got.UnmarshalText([]byte(uuid.Nil.String())))
		assert.True(t, got.IsNil())
	})

	t.Run("decoding rejects malformed text", func(t *testing.T) {
		var got CollectionItemID
		require.Error(t, got.UnmarshalText([]byte("not-a-uuid")))
	})
}

func TestParseHash(t *testing.T) {
	valid := "0x" + strings.Repeat("ab", 32)

	t.Run("accepts and lowercases a valid digest", func(t *testing.T) {
		h, err := ParseHash("0x" + strings.Repeat("AB", 32))
		require.NoError(t, err)
		assert.Equal(t, Hash(valid), h)
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := ParseHash(strings.Repeat("ab", 32))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseHash("0xabcd")
		require.Error(t, err)
	})

	t.Run("rejects non-hex characters", func(t *testing.T) {
		_, err := ParseHash("0x" + strings.Repeat("zz", 32))
		require.Error(t, err)
	})
}

func TestParseOtherAccountID(t *testing.T) {
	t.Run("accepts ethereum address", func(t *testing.T) {
		a, err := ParseOtherAccountID("0x" + strings.Repeat("Cd", 20))
		require.NoError(t, err)
		assert.Equal(t, OtherAccountID("0x"+strings.Repeat("cd", 20)), a)
	})

	t.Run("rejects hash-length input", func(t *testing.T) {
		_, err := ParseOtherAccountID("0x" + strings.Repeat("cd", 32))
		require.Error(t, err)
	})
}

func TestOrigin(t *testing.T) {
	t.Run("root origin has no signer", func(t *testing.T) {
		_, err := RootOrigin().Signer()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("signed origin is not root", func(t *testing.T) {
		o := SignedOrigin(NewAccountID())
		require.Error(t, o.RequireRoot())
		signer, err := o.Signer()
		require.NoError(t, err)
		assert.Equal(t, o.Account, signer)
	})

	t.Run("root origin passes root check", func(t *testing.T) {
		require.NoError(t, RootOrigin().RequireRoot())
	})
}
