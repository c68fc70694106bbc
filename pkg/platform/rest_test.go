package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "secret", r.Header.Get("Token"))

		switch r.URL.Path {
		case "/chats/home/posts/42":
			w.Write([]byte(`{
				"_id": "42",
				"post_origin": "home",
				"author": {"uuid": "7", "_id": "alice", "flags": 0},
				"u": "alice",
				"reply_to": [{"_id": "41"}],
				"p": "https://x.com/a/status/1",
				"reactions": [{"emoji": "fixtweet", "count": 2}]
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	c := NewRESTClient(srv.URL, srv.URL, "secret", time.Second)

	m, err := c.GetMessage(context.Background(), "home", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", m.Id)
	assert.Equal(t, "home", m.GuildId)
	assert.Equal(t, "alice", m.Author.Username)
	assert.False(t, m.Author.Bot())
	assert.Equal(t, "41", m.ReferencedMessageId)
	assert.Equal(t, int64(2), m.ReactionCount("fixtweet"))
	assert.Equal(t, int64(0), m.ReactionCount("other"))

	_, err = c.GetMessage(context.Background(), "home", "404")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestPostReply(t *testing.T) {
	var created CreatePostReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/attachments":
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			f, hdr, err := r.FormFile("file")
			if !assert.NoError(t, err) {
				return
			}
			data, _ := io.ReadAll(f)
			assert.Equal(t, "bsky_2024-03-09.png", hdr.Filename)
			assert.Equal(t, []byte("png"), data)
			assert.Equal(t, "a cat", r.FormValue("alt"))
			w.Write([]byte(`{"id": "att1"}`))
		case "/chats/home/posts":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	c := NewRESTClient(srv.URL, srv.URL, "secret", time.Second)

	err := c.PostReply(context.Background(), Reply{
		ChannelId:         "home",
		TargetMessageId:   "42",
		Text:              "hello",
		Attachments:       []Attachment{{Filename: "bsky_2024-03-09.png", Data: []byte("png"), AltText: "a cat"}},
		AllowDeleteButton: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "hello", created.Content)
	assert.Equal(t, []string{"att1"}, created.AttachmentIds)
	assert.Equal(t, []string{"42"}, created.ReplyToPostIds)
	assert.True(t, created.Deletable)
	assert.False(t, created.MentionAuthor)
	assert.NotEmpty(t, created.Nonce)
}

func TestPostReplyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	c := NewRESTClient(srv.URL, srv.URL, "wrong", time.Second)

	err := c.PostReply(context.Background(), Reply{ChannelId: "home", TargetMessageId: "1", Text: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
