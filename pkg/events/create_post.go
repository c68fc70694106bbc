package events

import (
	"strconv"

	"github.com/meower-media/replybot/pkg/meowid"
	"github.com/meower-media/replybot/pkg/platform"
)

type Post struct {
	Id              meowid.MeowID    `msgpack:"id"`
	ChatId          meowid.MeowID    `msgpack:"chat_id"` // 0: home, 1: livechat
	AuthorId        *meowid.MeowID   `msgpack:"author_id"`
	ReplyToIds      *[]meowid.MeowID `msgpack:"reply_to_ids"`
	Content         *string          `msgpack:"content"`
	ReactionIndexes *[]ReactionIndex `msgpack:"reactions"`
}

type ReactionIndex struct {
	Emoji string `msgpack:"emoji"`
	Count int64  `msgpack:"count"`
}

type User struct {
	Id       meowid.MeowID `msgpack:"id"`
	Username string        `msgpack:"username"`
	Flags    *int64        `msgpack:"flags"`
}

type CreatePost struct {
	Post  Post                    `msgpack:"post"`
	Users map[meowid.MeowID]*User `msgpack:"users"`

	Nonce string `msgpack:"nonce,omitempty"`
}

func (ev *CreatePost) MessagePosted() *platform.MessagePosted {
	chatId := chatIdString(ev.Post.ChatId)
	m := &platform.MessagePosted{
		GuildId:   chatId,
		ChannelId: chatId,
		MessageId: strconv.FormatInt(ev.Post.Id, 10),
	}
	if ev.Post.Content != nil {
		m.Content = *ev.Post.Content
	}
	if ev.Post.AuthorId != nil {
		m.Author = ev.Users[*ev.Post.AuthorId].platformUser()
		m.Author.Id = strconv.FormatInt(*ev.Post.AuthorId, 10)
	}
	if ev.Post.ReplyToIds != nil && len(*ev.Post.ReplyToIds) > 0 {
		m.ReferencedMessageId = strconv.FormatInt((*ev.Post.ReplyToIds)[0], 10)
	}
	return m
}

func (u *User) platformUser() platform.User {
	if u == nil {
		return platform.User{}
	}
	pu := platform.User{
		Id:       strconv.FormatInt(u.Id, 10),
		Username: u.Username,
	}
	if u.Flags != nil {
		pu.Flags = *u.Flags
	}
	return pu
}

func chatIdString(chatId meowid.MeowID) string {
	switch chatId {
	case 0:
		return "home"
	case 1:
		return "livechat"
	default:
		return strconv.FormatInt(chatId, 10)
	}
}
