package platform

import (
	"context"
	"errors"
)

// FlagBot is set on automated accounts.
const FlagBot int64 = 1 << 3

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrUnauthorized    = errors.New("platform rejected bot token")
)

type User struct {
	Id       string
	Username string
	Flags    int64
}

func (u User) Bot() bool {
	return u.Flags&FlagBot != 0
}

type ReactionIndex struct {
	Emoji string
	Count int64
}

type Message struct {
	Id                  string
	GuildId             string
	ChannelId           string
	Author              User
	Content             string
	ReferencedMessageId string
	Reactions           []ReactionIndex
}

// ReactionCount returns how many times emoji was added to the message.
func (m *Message) ReactionCount(emoji string) int64 {
	for _, r := range m.Reactions {
		if r.Emoji == emoji {
			return r.Count
		}
	}
	return 0
}

type MessagePosted struct {
	GuildId             string
	ChannelId           string
	MessageId           string
	Author              User
	Content             string
	ReferencedMessageId string
}

// ReactionAdded is one emote added to a message. Count is the tally after
// the addition, or 0 when the source doesn't carry one.
type ReactionAdded struct {
	GuildId   string
	ChannelId string
	MessageId string
	Emote     string
	User      User
	Count     int64
}

type Attachment struct {
	Filename string
	Data     []byte
	AltText  string
}

type Reply struct {
	ChannelId         string
	TargetMessageId   string
	Text              string
	Attachments       []Attachment
	AllowDeleteButton bool
	NotifyAuthor      bool
}

type Client interface {
	GetMessage(ctx context.Context, channelId string, messageId string) (*Message, error)
	PostReply(ctx context.Context, reply Reply) error
}

// Event is one inbound event. Exactly one field is set.
type Event struct {
	Posted   *MessagePosted
	Reaction *ReactionAdded
}

func (e Event) Kind() string {
	switch {
	case e.Posted != nil:
		return "message_posted"
	case e.Reaction != nil:
		return "reaction_added"
	default:
		return "unknown"
	}
}

// EventSource feeds events to out until ctx is done or the source fails.
type EventSource interface {
	Run(ctx context.Context, out chan<- Event) error
}
