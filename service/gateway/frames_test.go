package gateway

import (
	"encoding/json"
	"testing"

	"WProject/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	t.Run("auth frame", func(t *testing.T) {
		f, err := ParseFrame([]byte(`["0", "some-token"]`))
		require.NoError(t, err)
		assert.Equal(t, CategoryAuth, f.Category)
		assert.JSONEq(t, `"some-token"`, string(f.Payload))
	})

	t.Run("data frame", func(t *testing.T) {
		f, err := ParseFrame([]byte(`["1", {"request":"Join Room","data":"lobby"}]`))
		require.NoError(t, err)
		assert.Equal(t, CategoryData, f.Category)
	})

	t.Run("too short is a protocol violation", func(t *testing.T) {
		_, err := ParseFrame([]byte(`["0"]`))
		require.Error(t, err)
		assert.True(t, errs.ErrInvalidData.Is(err))
	})

	t.Run("not an array is a protocol violation", func(t *testing.T) {
		_, err := ParseFrame([]byte(`{"category":"0"}`))
		require.Error(t, err)
		assert.True(t, errs.ErrInvalidData.Is(err))
	})

	t.Run("garbage is a protocol violation", func(t *testing.T) {
		_, err := ParseFrame([]byte(`not json`))
		require.Error(t, err)
		assert.True(t, errs.ErrInvalidData.Is(err))
	})

	t.Run("non-string category passes through as unknown", func(t *testing.T) {
		f, err := ParseFrame([]byte(`[7, "payload"]`))
		require.NoError(t, err)
		assert.Equal(t, "", f.Category)
	})

	t.Run("unknown string category is kept", func(t *testing.T) {
		f, err := ParseFrame([]byte(`["9", "payload"]`))
		require.NoError(t, err)
		assert.Equal(t, "9", f.Category)
	})
}

func TestParseRequest(t *testing.T) {
	t.Run("with data", func(t *testing.T) {
		req, err := ParseRequest([]byte(`{"request":"Join Room","data":"lobby"}`))
		require.NoError(t, err)
		assert.Equal(t, "Join Room", req.Request)
		assert.True(t, req.HasData)
		assert.Equal(t, "lobby", req.Data)
	})

	t.Run("data is optional", func(t *testing.T) {
		req, err := ParseRequest([]byte(`{"request":"Who Am I"}`))
		require.NoError(t, err)
		assert.False(t, req.HasData)
	})

	t.Run("missing request", func(t *testing.T) {
		_, err := ParseRequest([]byte(`{"data":"lobby"}`))
		require.Error(t, err)
		assert.True(t, errs.ErrInvalidData.Is(err))
	})

	t.Run("request must be a string", func(t *testing.T) {
		_, err := ParseRequest([]byte(`{"request":42}`))
		require.Error(t, err)
		assert.True(t, errs.ErrInvalidData.Is(err))
	})
}

func TestEncodeAuth(t *testing.T) {
	assert.Equal(t, `["0","WHOAREYOU"]`, string(EncodeAuth(StatusWhoAreYou)))
	assert.Equal(t, `["0","SUCCESS"]`, string(EncodeAuth(StatusSuccess)))
	assert.Equal(t, `["0","TOKENEXPIRED"]`, string(EncodeAuth(StatusTokenExpired)))
}

func TestEncodeData(t *testing.T) {
	raw, err := EncodeData(NewSuccess("COUNT PERSON", map[string]any{"count": 2}))
	require.NoError(t, err)

	var parts []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &parts))
	require.Len(t, parts, 2)
	assert.JSONEq(t, `"1"`, string(parts[0]))
	assert.JSONEq(t, `{"response":"COUNT PERSON","data":{"count":2},"result":"success"}`, string(parts[1]))
}
