package bluesky

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePostURL(t *testing.T) {
	tests := []struct {
		url     string
		want    Address
		wantErr bool
	}{
		{url: "https://bsky.app/profile/alice.bsky.social/post/3kabc", want: Address{Repo: "alice.bsky.social", RKey: "3kabc"}},
		{url: "http://www.bsky.app/profile/did:plc:xyz/post/3kdef", want: Address{Repo: "did:plc:xyz", RKey: "3kdef"}},
		{url: "https://bsky.app/profile/alice.bsky.social", wantErr: true},
		{url: "https://bsky.app/profile/alice/post", wantErr: true},
		{url: "https://example.com/profile/a/post/b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := ParsePostURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRecordURI(t *testing.T) {
	got, err := ParseRecordURI("at://did:plc:abc123/app.bsky.feed.post/3kq")
	require.NoError(t, err)
	assert.Equal(t, Address{Repo: "did:plc:abc123", RKey: "3kq"}, got)

	for _, bad := range []string{
		"",
		"https://bsky.app/profile/a/post/b",
		"at://alice.bsky.social/app.bsky.feed.post/3kq",
		"at://did:plc:abc123",
		"at://did:plc:abc123/app.bsky.feed.post/",
	} {
		_, err := ParseRecordURI(bad)
		assert.ErrorIs(t, err, ErrMalformedAddress, bad)
	}
}

func TestEmbed(t *testing.T) {
	var withMedia Embed
	require.NoError(t, json.Unmarshal([]byte(`{
		"$type": "app.bsky.embed.recordWithMedia",
		"record": {"$type": "app.bsky.embed.record", "record": {"uri": "at://did:plc:q/app.bsky.feed.post/1", "cid": "c"}},
		"media": {"$type": "app.bsky.embed.images", "images": [{"alt": "a cat", "image": {"ref": {"$link": "bafy1"}}}]}
	}`), &withMedia))

	uri, ok := withMedia.Quote()
	assert.True(t, ok)
	assert.Equal(t, "at://did:plc:q/app.bsky.feed.post/1", uri)
	require.Len(t, withMedia.AllImages(), 1)
	assert.Equal(t, "bafy1", withMedia.AllImages()[0].Image.Ref.Link)
	assert.Equal(t, "a cat", withMedia.AllImages()[0].Alt)

	images := Embed{Type: EmbedImages, Images: []Image{{Alt: "x"}}}
	_, ok = images.Quote()
	assert.False(t, ok)
	assert.Len(t, images.AllImages(), 1)

	var none *Embed
	assert.Nil(t, none.AllImages())
}

func newTestClient(url string) *Client {
	return NewClient(url, 1000, time.Second, WithBreakerDelay(time.Minute))
}

func TestGetRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/com.atproto.repo.getRecord", r.URL.Path)
		assert.Equal(t, "alice.bsky.social", r.URL.Query().Get("repo"))
		assert.Equal(t, "app.bsky.feed.post", r.URL.Query().Get("collection"))
		assert.Equal(t, "3kabc", r.URL.Query().Get("rkey"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"uri": "at://did:plc:alice/app.bsky.feed.post/3kabc",
			"cid": "bafyrec",
			"value": {"$type": "app.bsky.feed.post", "text": "hello", "createdAt": "2024-01-01T00:00:00Z"}
		}`))
	}))
	defer srv.Close()

	record, err := newTestClient(srv.URL).GetRecord(context.Background(), "alice.bsky.social", "3kabc")
	require.NoError(t, err)
	assert.Equal(t, "hello", record.Value.Text)
	assert.Equal(t, "at://did:plc:alice/app.bsky.feed.post/3kabc", record.URI)
	assert.Nil(t, record.Value.Embed)
}

func TestGetRecordErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("rkey") {
		case "missing":
			http.Error(w, `{"error":"RecordNotFound"}`, http.StatusBadRequest)
		case "garbage":
			w.Write([]byte("not json"))
		}
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	_, err := c.GetRecord(context.Background(), "a", "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	_, err = c.GetRecord(context.Background(), "a", "garbage")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.GetRecord(ctx, "a", "missing")
	assert.Error(t, err)
}

func TestGetImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/com.atproto.sync.getBlob", r.URL.Path)
		assert.Equal(t, "did:plc:alice", r.URL.Query().Get("did"))
		switch r.URL.Query().Get("cid") {
		case "empty":
			return
		case "huge":
			w.Write(make([]byte, maxBlobSize+1))
			return
		case "limit":
			w.Write(make([]byte, maxBlobSize))
			return
		}
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	data, err := c.GetImage(context.Background(), "did:plc:alice", "bafy1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	_, err = c.GetImage(context.Background(), "did:plc:alice", "empty")
	assert.ErrorIs(t, err, ErrEmptyBlob)

	data, err = c.GetImage(context.Background(), "did:plc:alice", "limit")
	require.NoError(t, err)
	assert.Len(t, data, maxBlobSize)

	data, err = c.GetImage(context.Background(), "did:plc:alice", "huge")
	assert.ErrorIs(t, err, ErrBlobTooLarge)
	assert.Nil(t, data)
}

func TestCircuitBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	for i := 0; i < 10; i++ {
		_, err := c.GetRecord(context.Background(), "a", "b")
		require.Error(t, err)
	}
	require.Equal(t, int32(10), hits.Load())

	_, err := c.GetRecord(context.Background(), "a", "b")
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, int32(10), hits.Load(), "open breaker must not reach the server")
}
