package wsconn

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtask/relay/internal/chat"
	"github.com/wtask/relay/internal/chat/message"
)

func startRelay(test *testing.T) (*chat.Server, string) {
	server, err := chat.NewServer()
	require.NoError(test, err)
	ts := httptest.NewServer(NewHandler(func(conn *Conn) { server.Handle(conn) }, nil))
	test.Cleanup(func() {
		server.Close()
		ts.Close()
	})
	return server, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(test *testing.T, url string) *websocket.Conn {
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(test, err)
	test.Cleanup(func() { ws.Close() })
	return ws
}

func expectFrame(test *testing.T, ws *websocket.Conn, expected string) {
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	require.NoError(test, err, "waiting for %q", expected)
	assert.Equal(test, expected, string(data))
}

func sendFrame(test *testing.T, ws *websocket.Conn, text string) {
	require.NoError(test, ws.WriteMessage(websocket.TextMessage, []byte(text)))
}

func TestConn_Relay(test *testing.T) {
	server, url := startRelay(test)

	alice := dial(test, url)
	expectFrame(test, alice, message.DirectiveSubmitName)
	sendFrame(test, alice, "alice")
	expectFrame(test, alice, message.DirectiveNameAccepted)
	require.Eventually(test, func() bool { return server.Broker().Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	sendFrame(test, alice, "hi")
	expectFrame(test, alice, "MESSAGE alice: hi")

	require.NoError(test, alice.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	))
	require.Eventually(test, func() bool { return server.Names().Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(test, 0, server.Broker().Len())
}

func TestConn_DuplicateName(test *testing.T) {
	server, url := startRelay(test)

	first := dial(test, url)
	expectFrame(test, first, message.DirectiveSubmitName)
	sendFrame(test, first, "dup")
	expectFrame(test, first, message.DirectiveNameAccepted)

	second := dial(test, url)
	expectFrame(test, second, message.DirectiveSubmitName)
	sendFrame(test, second, "dup")
	expectFrame(test, second, message.DirectiveSubmitName)
	sendFrame(test, second, "other")
	expectFrame(test, second, message.DirectiveNameAccepted)
	require.Eventually(test, func() bool { return server.Broker().Len() == 2 }, 2*time.Second, 5*time.Millisecond)

	sendFrame(test, second, "hello")
	expectFrame(test, first, "MESSAGE other: hello")
	expectFrame(test, second, "MESSAGE other: hello")
}

func TestHandler_NotWebsocket(test *testing.T) {
	served := false
	ts := httptest.NewServer(NewHandler(func(*Conn) { served = true }, nil))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(test, err)
	resp.Body.Close()
	assert.Equal(test, http.StatusBadRequest, resp.StatusCode)
	assert.False(test, served)
}
