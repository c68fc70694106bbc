package platform

type V0Post struct {
	Id              string            `json:"_id"`
	ChatId          string            `json:"post_origin"`
	Author          V0User            `json:"author"`
	AuthorUsername  string            `json:"u"`
	ReplyTo         []*V0Post         `json:"reply_to"`
	Content         string            `json:"p"`
	ReactionIndexes []V0ReactionIndex `json:"reactions"`
}

type V0User struct {
	Id       string `json:"uuid"`
	Username string `json:"_id"`
	Flags    int64  `json:"flags"`
}

type V0ReactionIndex struct {
	Emoji string `json:"emoji"`
	Count int64  `json:"count"`
}

type CreatePostReq struct {
	Content       string   `json:"content"`
	AttachmentIds []string `json:"attachments"`

	ReplyToPostIds []string `json:"reply_to"`

	Deletable     bool `json:"deletable"`
	MentionAuthor bool `json:"mention_author"`

	Nonce string `json:"nonce"`
}

type uploadResp struct {
	Id string `json:"id"`
}

// Message converts a post. Chats act as guilds on this platform, so the
// guild is the chat the post was made in.
func (p *V0Post) Message() *Message {
	m := &Message{
		Id:        p.Id,
		GuildId:   p.ChatId,
		ChannelId: p.ChatId,
		Author: User{
			Id:       p.Author.Id,
			Username: p.Author.Username,
			Flags:    p.Author.Flags,
		},
		Content: p.Content,
	}
	if m.Author.Username == "" {
		m.Author.Username = p.AuthorUsername
	}
	if len(p.ReplyTo) > 0 && p.ReplyTo[0] != nil {
		m.ReferencedMessageId = p.ReplyTo[0].Id
	}
	for _, r := range p.ReactionIndexes {
		m.Reactions = append(m.Reactions, ReactionIndex{Emoji: r.Emoji, Count: r.Count})
	}
	return m
}
