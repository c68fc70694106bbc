package events

import (
	"testing"

	"github.com/meower-media/replybot/pkg/meowid"
	"github.com/meower-media/replybot/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCreatePost(t *testing.T) {
	content := "@replybot fix tweet"
	authorId := meowid.MeowID(7)
	flags := platform.FlagBot
	replyTo := []meowid.MeowID{99}

	packet, err := Encode(OpCreatePost, &CreatePost{
		Post: Post{
			Id:         100,
			ChatId:     0,
			AuthorId:   &authorId,
			ReplyToIds: &replyTo,
			Content:    &content,
		},
		Users: map[meowid.MeowID]*User{7: {Id: 7, Username: "alice", Flags: &flags}},
	})
	require.NoError(t, err)

	ev, err := Decode(packet)
	require.NoError(t, err)
	require.NotNil(t, ev.Posted)
	assert.Nil(t, ev.Reaction)
	assert.Equal(t, "message_posted", ev.Kind())

	assert.Equal(t, platform.MessagePosted{
		GuildId:             "home",
		ChannelId:           "home",
		MessageId:           "100",
		Author:              platform.User{Id: "7", Username: "alice", Flags: platform.FlagBot},
		Content:             content,
		ReferencedMessageId: "99",
	}, *ev.Posted)
	assert.True(t, ev.Posted.Author.Bot())
}

func TestDecodeReactionAdd(t *testing.T) {
	packet, err := Encode(OpPostReactionAdd, &PostReactionAdd{
		ChatId: 12345,
		PostId: 100,
		Emoji:  "fixtweet",
		User:   User{Id: 8, Username: "bob"},
		Count:  1,
	})
	require.NoError(t, err)

	ev, err := Decode(packet)
	require.NoError(t, err)
	require.NotNil(t, ev.Reaction)
	assert.Equal(t, platform.ReactionAdded{
		GuildId:   "12345",
		ChannelId: "12345",
		MessageId: "100",
		Emote:     "fixtweet",
		User:      platform.User{Id: "8", Username: "bob"},
		Count:     1,
	}, *ev.Reaction)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyPacket)

	_, err = Decode([]byte{OpTyping, 0x80})
	assert.ErrorIs(t, err, ErrIgnoredOp)

	_, err = Decode([]byte{200})
	assert.ErrorIs(t, err, ErrUnknownOp)

	_, err = Decode([]byte{OpCreatePost, 0xc1})
	assert.Error(t, err)
}
