package events

import (
	"strconv"

	"github.com/meower-media/replybot/pkg/meowid"
	"github.com/meower-media/replybot/pkg/platform"
)

type PostReactionAdd struct {
	ChatId meowid.MeowID `msgpack:"chat_id"`
	PostId meowid.MeowID `msgpack:"post_id"`
	Emoji  string        `msgpack:"emoji"`
	User   User          `msgpack:"user"`

	// tally after this reaction, absent from older publishers
	Count int64 `msgpack:"count,omitempty"`
}

func (ev *PostReactionAdd) ReactionAdded() *platform.ReactionAdded {
	chatId := chatIdString(ev.ChatId)
	return &platform.ReactionAdded{
		GuildId:   chatId,
		ChannelId: chatId,
		MessageId: strconv.FormatInt(ev.PostId, 10),
		Emote:     ev.Emoji,
		User:      ev.User.platformUser(),
		Count:     ev.Count,
	}
}
