package source

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshport/meshport/pkg/recording"
)

func dialRecorder(t *testing.T, rec *Recorder) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(rec.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForLen(t *testing.T, rec *Recorder, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for rec.Len() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d commands, have %d", n, rec.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRecorderAccumulatesCommands(t *testing.T) {
	rec := NewRecorder(nil)
	conn := dialRecorder(t, rec)

	payload, err := recording.EncodePayload([]recording.Command{
		{Kind: recording.KindDelete, Path: "/a"},
		{Kind: recording.KindDelete, Path: "/b"},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, payload))

	waitForLen(t, rec, 2)

	cmds := rec.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, recording.Path("/a"), cmds[0].Path)
	assert.Equal(t, recording.Path("/b"), cmds[1].Path)
}

func TestRecorderDropsUndecodableMessages(t *testing.T) {
	rec := NewRecorder(nil)
	conn := dialRecorder(t, rec)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0xc1, 0xff}))

	good, err := recording.EncodePayload([]recording.Command{
		{Kind: recording.KindDelete, Path: "/ok"},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, good))

	waitForLen(t, rec, 1)
	assert.Equal(t, 1, rec.Len())
}

func TestRecorderIgnoresTextMessages(t *testing.T) {
	rec := NewRecorder(nil)
	conn := dialRecorder(t, rec)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))

	good, err := recording.EncodePayload([]recording.Command{
		{Kind: recording.KindDelete, Path: "/ok"},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, good))

	waitForLen(t, rec, 1)
	assert.Equal(t, 1, rec.Len())
}

func TestRecorderPayloadRoundTrip(t *testing.T) {
	rec := NewRecorder(nil)
	conn := dialRecorder(t, rec)

	in, err := recording.EncodePayload([]recording.Command{
		{Kind: recording.KindDelete, Path: "/x"},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, in))
	waitForLen(t, rec, 1)

	payload, err := rec.Payload()
	require.NoError(t, err)

	cmds, err := recording.DecodePayload(payload)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, recording.Path("/x"), cmds[0].Path)
}
