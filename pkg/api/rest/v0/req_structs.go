package v0_rest

import "github.com/meower-media/replybot/pkg/guilds"

type UpdateSettingsReq struct {
	FixTweetReactions     *bool   `json:"fix_tweet_reactions"`
	FixInstagramReactions *bool   `json:"fix_instagram_reactions"`
	FixBlueskyReactions   *bool   `json:"fix_bluesky_reactions"`
	DefaultReplies        *bool   `json:"default_replies"`
	AvatarAnnouncements   *bool   `json:"avatar_announcements"`
	AvatarMentions        *bool   `json:"avatar_mentions"`
	LogChannel            *string `json:"log_channel" validate:"omitempty,max=64,alphanum"`
}

func (r UpdateSettingsReq) Update() guilds.Update {
	return guilds.Update{
		EnableFixTweetReactions:     r.FixTweetReactions,
		EnableFixInstagramReactions: r.FixInstagramReactions,
		EnableFixBlueskyReactions:   r.FixBlueskyReactions,
		EnableDefaultReplies:        r.DefaultReplies,
		EnableAvatarAnnouncements:   r.AvatarAnnouncements,
		EnableAvatarMentions:        r.AvatarMentions,
		LogChannelId:                r.LogChannel,
	}
}

func (r UpdateSettingsReq) empty() bool {
	return r.FixTweetReactions == nil &&
		r.FixInstagramReactions == nil &&
		r.FixBlueskyReactions == nil &&
		r.DefaultReplies == nil &&
		r.AvatarAnnouncements == nil &&
		r.AvatarMentions == nil &&
		r.LogChannel == nil
}
