package guilds

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrConfigNotFound = errors.New("guild configuration not found")
	ErrInvalidGuildId = errors.New("invalid guild id")
)

// Reader is all the link fixer needs: it never writes configuration.
type Reader interface {
	Get(ctx context.Context, guildId string) (Configuration, error)
}

type Store interface {
	Reader
	Update(ctx context.Context, guildId string, u Update) (Configuration, error)
	Delete(ctx context.Context, guildId string) error
}

// Update holds optional changes; nil fields are left untouched.
type Update struct {
	EnableFixTweetReactions     *bool
	EnableFixInstagramReactions *bool
	EnableFixBlueskyReactions   *bool
	EnableDefaultReplies        *bool
	EnableAvatarAnnouncements   *bool
	EnableAvatarMentions        *bool
	LogChannelId                *string // "" clears the channel
}

func (u Update) apply(c *Configuration) {
	if u.EnableFixTweetReactions != nil {
		c.EnableFixTweetReactions = *u.EnableFixTweetReactions
	}
	if u.EnableFixInstagramReactions != nil {
		c.EnableFixInstagramReactions = *u.EnableFixInstagramReactions
	}
	if u.EnableFixBlueskyReactions != nil {
		c.EnableFixBlueskyReactions = *u.EnableFixBlueskyReactions
	}
	if u.EnableDefaultReplies != nil {
		c.EnableDefaultReplies = *u.EnableDefaultReplies
	}
	if u.EnableAvatarAnnouncements != nil {
		c.EnableAvatarAnnouncements = *u.EnableAvatarAnnouncements
	}
	if u.EnableAvatarMentions != nil {
		c.EnableAvatarMentions = *u.EnableAvatarMentions
	}
	if u.LogChannelId != nil {
		if *u.LogChannelId == "" {
			c.LogChannelId = nil
		} else {
			id := *u.LogChannelId
			c.LogChannelId = &id
		}
	}
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Get(ctx context.Context, guildId string) (Configuration, error) {
	if guildId == "" {
		return Configuration{}, ErrInvalidGuildId
	}

	var c Configuration
	err := s.coll.FindOne(ctx, bson.M{"_id": guildId}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return DefaultConfiguration(guildId), nil
	}
	return c, err
}

func (s *MongoStore) Update(ctx context.Context, guildId string, u Update) (Configuration, error) {
	if guildId == "" {
		return Configuration{}, ErrInvalidGuildId
	}

	var c Configuration
	err := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": guildId},
		u.document(guildId),
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	return c, err
}

// document turns u into a single atomic update. Toggles u doesn't touch get
// their defaults when the document is first created.
func (u Update) document(guildId string) bson.M {
	defaults := DefaultConfiguration(guildId)
	toggles := []struct {
		key   string
		value *bool
		def   bool
	}{
		{"enable_fix_tweet_reactions", u.EnableFixTweetReactions, defaults.EnableFixTweetReactions},
		{"enable_fix_instagram_reactions", u.EnableFixInstagramReactions, defaults.EnableFixInstagramReactions},
		{"enable_fix_bluesky_reactions", u.EnableFixBlueskyReactions, defaults.EnableFixBlueskyReactions},
		{"enable_default_replies", u.EnableDefaultReplies, defaults.EnableDefaultReplies},
		{"enable_avatar_announcements", u.EnableAvatarAnnouncements, defaults.EnableAvatarAnnouncements},
		{"enable_avatar_mentions", u.EnableAvatarMentions, defaults.EnableAvatarMentions},
	}

	set := bson.M{}
	onInsert := bson.M{}
	for _, t := range toggles {
		if t.value != nil {
			set[t.key] = *t.value
		} else {
			onInsert[t.key] = t.def
		}
	}

	doc := bson.M{}
	if u.LogChannelId != nil {
		if *u.LogChannelId == "" {
			doc["$unset"] = bson.M{"log_channel_id": ""}
		} else {
			set["log_channel_id"] = *u.LogChannelId
		}
	}
	if len(set) > 0 {
		doc["$set"] = set
	}
	if len(onInsert) > 0 {
		doc["$setOnInsert"] = onInsert
	}
	return doc
}

func (s *MongoStore) Delete(ctx context.Context, guildId string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": guildId})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrConfigNotFound
	}
	return nil
}

// MemoryStore keeps configuration in process. Used for local runs without
// MongoDB and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	configs map[string]Configuration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{configs: make(map[string]Configuration)}
}

func (s *MemoryStore) Get(_ context.Context, guildId string) (Configuration, error) {
	if guildId == "" {
		return Configuration{}, ErrInvalidGuildId
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.configs[guildId]
	if !ok {
		return DefaultConfiguration(guildId), nil
	}
	return c, nil
}

func (s *MemoryStore) Update(ctx context.Context, guildId string, u Update) (Configuration, error) {
	if guildId == "" {
		return Configuration{}, ErrInvalidGuildId
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.configs[guildId]
	if !ok {
		c = DefaultConfiguration(guildId)
	}
	u.apply(&c)
	s.configs[guildId] = c
	return c, nil
}

func (s *MemoryStore) Delete(_ context.Context, guildId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[guildId]; !ok {
		return ErrConfigNotFound
	}
	delete(s.configs, guildId)
	return nil
}
