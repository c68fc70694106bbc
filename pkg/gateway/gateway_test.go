package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/meower-media/replybot/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func TestRunDeliversEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bot-token", r.Header.Get("Token"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, packet := range []string{
			`{"cmd":"hello","val":{"session_id":"5","ping_interval":45000},"nonce":"0"}`,
			`{"cmd":"typing","val":{"chat_id":"home"},"nonce":"1"}`,
			`{"cmd":"post","val":{"_id":"10","post_origin":"home","author":{"uuid":"1","_id":"alice","flags":0},"u":"alice","reply_to":[],"p":"@replybot fix tweet","reactions":[]},"nonce":"2"}`,
			`{"cmd":"post_reaction_add","val":{"chat_id":"home","post_id":"10","emoji":"fixtweet","user":{"uuid":"2","_id":"bob","flags":0},"username":"bob"},"nonce":"3"}`,
		} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(packet)); err != nil {
				return
			}
		}
		// hold the connection open until the client leaves
		conn.ReadMessage()
	}))
	defer srv.Close()

	c := NewClient("ws"+strings.TrimPrefix(srv.URL, "http"), "bot-token")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := make(chan platform.Event)
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx, out) }()

	posted := <-out
	require.NotNil(t, posted.Posted)
	assert.Equal(t, "10", posted.Posted.MessageId)
	assert.Equal(t, "home", posted.Posted.GuildId)
	assert.Equal(t, "alice", posted.Posted.Author.Username)
	assert.Equal(t, "@replybot fix tweet", posted.Posted.Content)

	reaction := <-out
	require.NotNil(t, reaction.Reaction)
	assert.Equal(t, "fixtweet", reaction.Reaction.Emote)
	assert.Equal(t, "bob", reaction.Reaction.User.Username)
	assert.Equal(t, int64(0), reaction.Reaction.Count)

	cancel()
	assert.NoError(t, <-errCh)
	assert.Equal(t, "5", c.sessionId)
	assert.Equal(t, "3", c.lastNonce)
}

func TestRunResumesSession(t *testing.T) {
	var conns atomic.Int32
	resumed := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := conns.Add(1)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if n == 1 {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"cmd":"hello","val":{"session_id":"9"},"nonce":"4"}`))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
		resumed <- r.URL.RawQuery
		conn.ReadMessage()
	}))
	defer srv.Close()

	c := NewClient("ws"+strings.TrimPrefix(srv.URL, "http"), "")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx, make(chan platform.Event)) }()

	select {
	case query := <-resumed:
		assert.Equal(t, "nonce=4&sid=9", query)
	case <-ctx.Done():
		t.Fatal("client never reconnected")
	}

	cancel()
	assert.NoError(t, <-errCh)
}

func TestHelloSetsPingInterval(t *testing.T) {
	c := NewClient("ws://localhost", "")
	assert.Equal(t, defaultPingInterval, c.interval())

	_, ok := c.handlePacket([]byte(`{"cmd":"hello","val":{"session_id":"1"},"nonce":"0"}`))
	assert.False(t, ok)
	assert.Equal(t, defaultPingInterval, c.interval())

	c.handlePacket([]byte(`{"cmd":"hello","val":{"session_id":"2","ping_interval":120000},"nonce":"1"}`))
	assert.Equal(t, 2*time.Minute, c.interval())
	assert.Equal(t, "2", c.sessionId)
}
