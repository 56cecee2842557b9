package replay

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/status-im/transport-common/transport"
)

func newRequest(t *testing.T) *transport.Request {
	t.Helper()
	req, err := transport.NewRequest(http.MethodGet, "https://service.example/", nil)
	require.NoError(t, err)
	return req
}

func TestReplayServesScriptInOrder(t *testing.T) {
	c := New(
		IOFailure(errors.New("reset"), "c1"),
		OK(http.StatusOK, []byte("done"), "c2"),
	)

	_, err := c.Dispatch(context.Background(), newRequest(t))
	var connErr *transport.ConnectorError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, transport.ErrorKindIO, connErr.Kind)
	assert.Equal(t, transport.ConnectionID("c1"), connErr.ConnectionID)

	resp, err := c.Dispatch(context.Background(), newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "done", string(resp.Body))
	assert.Equal(t, transport.ConnectionID("c2"), resp.ConnectionID)

	assert.Equal(t, 0, c.Remaining())
	assert.Len(t, c.Requests(), 2)
}

func TestReplayExhausted(t *testing.T) {
	c := New()

	_, err := c.Dispatch(context.Background(), newRequest(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScriptExhausted)
}

func TestReplayRecordsPoisoning(t *testing.T) {
	c := New()

	c.Poison("c1")
	c.Poison("c1")
	c.Poison("c2")

	assert.Equal(t, []transport.ConnectionID{"c1", "c1", "c2"}, c.Poisoned())
}

func TestReplayExchangeHelpers(t *testing.T) {
	timeoutErr := Timeout(errors.New("deadline"), "c1").Err
	var connErr *transport.ConnectorError
	require.ErrorAs(t, timeoutErr, &connErr)
	assert.Equal(t, transport.ErrorKindTimeout, connErr.Kind)
	assert.True(t, connErr.ShouldPoison())

	cancelErr := Cancelled(context.Canceled, "c2").Err
	require.ErrorAs(t, cancelErr, &connErr)
	assert.Equal(t, transport.ErrorKindUser, connErr.Kind)
	assert.False(t, connErr.ShouldPoison())
}
