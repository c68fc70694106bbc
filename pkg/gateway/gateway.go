package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/gorilla/websocket"
	"github.com/meower-media/replybot/pkg/metrics"
	"github.com/meower-media/replybot/pkg/platform"
	"github.com/rs/zerolog/log"
)

const defaultPingInterval = 45 * time.Second

var ErrConnectionClosed = errors.New("gateway connection closed")

type V1Packet struct {
	Cmd   string          `json:"cmd"`
	Val   json.RawMessage `json:"val"`
	Nonce string          `json:"nonce,omitempty"`
}

type V1Hello struct {
	SessionId    string `json:"session_id"`
	PingInterval int    `json:"ping_interval"` // ms
}

type V1PostReactionAdd struct {
	ChatId   string          `json:"chat_id"`
	PostId   string          `json:"post_id"`
	Emoji    string          `json:"emoji"`
	User     platform.V0User `json:"user"`
	Username string          `json:"username"`
	Count    int64           `json:"count,omitempty"`
}

// Client follows the platform's websocket gateway. Dropped connections are
// resumed with the last session id and nonce so missed packets are
// replayed.
type Client struct {
	url    string
	token  string
	dialer *websocket.Dialer
	retry  retrypolicy.RetryPolicy[any]

	sessionId string
	lastNonce string

	// nanoseconds; the hello packet may change it while the pinger runs
	pingInterval atomic.Int64
}

func NewClient(gatewayURL string, token string) *Client {
	c := &Client{
		url:    gatewayURL,
		token:  token,
		dialer: websocket.DefaultDialer,
		retry: retrypolicy.NewBuilder[any]().
			WithBackoff(time.Second, 30*time.Second).
			WithMaxRetries(-1).
			WithJitterFactor(0.1).
			Build(),
	}
	c.pingInterval.Store(int64(defaultPingInterval))
	return c
}

func (c *Client) interval() time.Duration {
	return time.Duration(c.pingInterval.Load())
}

func (c *Client) Run(ctx context.Context, out chan<- platform.Event) error {
	err := failsafe.With[any](c.retry).WithContext(ctx).Run(func() error {
		err := c.session(ctx, out)
		if err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("gateway connection lost, reconnecting")
		}
		return err
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (c *Client) dialURL() (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", err
	}
	if c.sessionId != "" {
		q := u.Query()
		q.Set("sid", c.sessionId)
		q.Set("nonce", c.lastNonce)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// session runs one connection until it drops.
func (c *Client) session(ctx context.Context, out chan<- platform.Event) error {
	dialURL, err := c.dialURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Token", c.token)
	}
	conn, _, err := c.dialer.DialContext(ctx, dialURL, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	conn.SetReadDeadline(time.Now().Add(2 * c.interval()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * c.interval()))
	})
	go c.ping(conn, done)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ErrConnectionClosed
			}
			return err
		}
		conn.SetReadDeadline(time.Now().Add(2 * c.interval()))

		ev, ok := c.handlePacket(msg)
		if !ok {
			continue
		}
		metrics.EventsReceived.WithLabelValues("gateway", ev.Kind()).Inc()

		select {
		case out <- ev:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Client) ping(conn *websocket.Conn, done <-chan struct{}) {
	current := c.interval()
	ticker := time.NewTicker(current)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if next := c.interval(); next != current {
				current = next
				ticker.Reset(current)
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}

func (c *Client) handlePacket(msg []byte) (platform.Event, bool) {
	var packet V1Packet
	if err := json.Unmarshal(msg, &packet); err != nil {
		log.Debug().Err(err).Msg("unreadable gateway packet")
		return platform.Event{}, false
	}
	if packet.Nonce != "" {
		c.lastNonce = packet.Nonce
	}

	switch packet.Cmd {
	case "hello":
		var hello V1Hello
		if err := json.Unmarshal(packet.Val, &hello); err != nil {
			return platform.Event{}, false
		}
		c.sessionId = hello.SessionId
		if hello.PingInterval > 0 {
			c.pingInterval.Store(int64(time.Duration(hello.PingInterval) * time.Millisecond))
		}
		log.Info().
			Str("session_id", hello.SessionId).
			Dur("ping_interval", c.interval()).
			Msg("connected to gateway")

	case "post":
		var post platform.V0Post
		if err := json.Unmarshal(packet.Val, &post); err != nil {
			log.Debug().Err(err).Msg("unreadable post packet")
			return platform.Event{}, false
		}
		m := post.Message()
		return platform.Event{Posted: &platform.MessagePosted{
			GuildId:             m.GuildId,
			ChannelId:           m.ChannelId,
			MessageId:           m.Id,
			Author:              m.Author,
			Content:             m.Content,
			ReferencedMessageId: m.ReferencedMessageId,
		}}, true

	case "post_reaction_add":
		var r V1PostReactionAdd
		if err := json.Unmarshal(packet.Val, &r); err != nil {
			log.Debug().Err(err).Msg("unreadable reaction packet")
			return platform.Event{}, false
		}
		user := platform.User{Id: r.User.Id, Username: r.User.Username, Flags: r.User.Flags}
		if user.Username == "" {
			user.Username = r.Username
		}
		return platform.Event{Reaction: &platform.ReactionAdded{
			GuildId:   r.ChatId,
			ChannelId: r.ChatId,
			MessageId: r.PostId,
			Emote:     r.Emoji,
			User:      user,
			Count:     r.Count,
		}}, true
	}

	return platform.Event{}, false
}
