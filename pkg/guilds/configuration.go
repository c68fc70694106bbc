package guilds

import (
	"fmt"
	"strings"

	"github.com/meower-media/replybot/pkg/links"
)

type Configuration struct {
	GuildId string `bson:"_id" json:"guild_id"`

	EnableFixTweetReactions     bool `bson:"enable_fix_tweet_reactions" json:"fix_tweet_reactions"`
	EnableFixInstagramReactions bool `bson:"enable_fix_instagram_reactions" json:"fix_instagram_reactions"`
	EnableFixBlueskyReactions   bool `bson:"enable_fix_bluesky_reactions" json:"fix_bluesky_reactions"`

	// not read by the link fixer
	EnableDefaultReplies      bool     `bson:"enable_default_replies" json:"default_replies"`
	EnableAvatarAnnouncements bool     `bson:"enable_avatar_announcements" json:"avatar_announcements"`
	EnableAvatarMentions      bool     `bson:"enable_avatar_mentions" json:"avatar_mentions"`
	LogChannelId              *string  `bson:"log_channel_id,omitempty" json:"log_channel"`
	AdminUserIds              []string `bson:"admin_user_ids,omitempty" json:"admin_user_ids"`
}

// DefaultConfiguration is what a guild gets before anyone changes a setting.
func DefaultConfiguration(guildId string) Configuration {
	return Configuration{
		GuildId:                     guildId,
		EnableFixTweetReactions:     true,
		EnableFixInstagramReactions: true,
		EnableFixBlueskyReactions:   true,
		AdminUserIds:                []string{},
	}
}

func (c *Configuration) ReactionsEnabled(p links.Platform) bool {
	switch p {
	case links.Twitter:
		return c.EnableFixTweetReactions
	case links.Instagram:
		return c.EnableFixInstagramReactions
	case links.Bluesky:
		return c.EnableFixBlueskyReactions
	default:
		return false
	}
}

// Summary renders the settings the way the view-settings command shows them.
func (c *Configuration) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Default Replies: %s\n", enabledText(c.EnableDefaultReplies))
	fmt.Fprintf(&sb, "Avatar Announcements: %s\n", enabledText(c.EnableAvatarAnnouncements))
	fmt.Fprintf(&sb, "Mention User on Avatar Announcements: %s\n", enabledText(c.EnableAvatarMentions))
	if c.LogChannelId != nil {
		fmt.Fprintf(&sb, "Log Channel: <#%s>\n", *c.LogChannelId)
	} else {
		sb.WriteString("Log Channel: Not Set\n")
	}
	fmt.Fprintf(&sb, "Fix Tweet Reactions: %s\n", enabledText(c.EnableFixTweetReactions))
	fmt.Fprintf(&sb, "Fix Instagram Reactions: %s\n", enabledText(c.EnableFixInstagramReactions))
	fmt.Fprintf(&sb, "Fix Bluesky Reactions: %s\n", enabledText(c.EnableFixBlueskyReactions))

	managers := make([]string, 0, len(c.AdminUserIds))
	for _, id := range c.AdminUserIds {
		managers = append(managers, "<@"+id+">")
	}
	fmt.Fprintf(&sb, "Bot Managers: %s (Note: Administrators are not shown here)\n", strings.Join(managers, ", "))

	return sb.String()
}

func enabledText(enabled bool) string {
	if enabled {
		return "ON"
	}
	return "OFF"
}
