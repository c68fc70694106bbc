package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/meower-media/replybot/pkg/fixers"
	"github.com/meower-media/replybot/pkg/guilds"
	"github.com/meower-media/replybot/pkg/links"
	"github.com/meower-media/replybot/pkg/metrics"
	"github.com/meower-media/replybot/pkg/platform"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	OutcomeBotActor     Outcome = "bot_actor"
	OutcomeUnknownEmote Outcome = "unknown_emote"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeDisabled     Outcome = "disabled"
	OutcomeNoLink       Outcome = "no_link"
	OutcomeCancelled    Outcome = "cancelled"
	OutcomeReplied      Outcome = "replied"

	OutcomeUnavailable Outcome = "unavailable"
	OutcomeFailed      Outcome = "failed"

	// text commands only
	OutcomeIgnored    Outcome = "ignored"
	OutcomeUnreadable Outcome = "unreadable"
)

// a message gets at most this many fix replies per emote
const maxReactionTally = 2

const (
	unreadableMessageText  = "I couldn't read that message for some reason, sorry!"
	unavailablePostTextFmt = "I wasn't able to get that %s post, sorry!"
)

type Emotes struct {
	FixTweet     string
	FixInstagram string
	FixBluesky   string
}

type Options struct {
	Emotes       Emotes
	BotUsername  string
	RegexTimeout time.Duration
	PostTimeout  time.Duration

	// optional; the reaction tally is the only duplicate guard without it
	Marker Marker
}

// Dispatcher decides what, if anything, to post for an event.
type Dispatcher struct {
	guilds    guilds.Reader
	client    platform.Client
	pipelines map[links.Platform]fixers.Pipeline
	emotes    map[string]links.Platform
	commands  *commandParser
	marker    Marker

	botUsername string
	postTimeout time.Duration
}

func New(guildStore guilds.Reader, client platform.Client, pipelines []fixers.Pipeline, opts Options) *Dispatcher {
	d := &Dispatcher{
		guilds:    guildStore,
		client:    client,
		pipelines: make(map[links.Platform]fixers.Pipeline, len(pipelines)),
		emotes: map[string]links.Platform{
			opts.Emotes.FixTweet:     links.Twitter,
			opts.Emotes.FixInstagram: links.Instagram,
			opts.Emotes.FixBluesky:   links.Bluesky,
		},
		commands:    newCommandParser(opts.BotUsername, opts.RegexTimeout),
		marker:      opts.Marker,
		botUsername: opts.BotUsername,
		postTimeout: opts.PostTimeout,
	}
	if d.postTimeout <= 0 {
		d.postTimeout = 30 * time.Second
	}
	for _, p := range pipelines {
		d.pipelines[p.Platform()] = p
	}
	return d
}

// Run hands every event to the scheduler until ctx is done or events is
// closed.
func (d *Dispatcher) Run(ctx context.Context, events <-chan platform.Event, s *Scheduler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.Dispatch(s, ev)
		}
	}
}

func (d *Dispatcher) Dispatch(s *Scheduler, ev platform.Event) {
	switch {
	case ev.Reaction != nil:
		r := *ev.Reaction
		s.Go("reaction", func(ctx context.Context) {
			d.HandleReaction(ctx, r)
		})
	case ev.Posted != nil:
		m := *ev.Posted
		s.Go("message", func(ctx context.Context) {
			d.HandleMessage(ctx, m)
		})
	}
}

// HandleReaction runs the fix pipeline for a reaction. It never posts an
// apology: every gate that fails ends silently.
func (d *Dispatcher) HandleReaction(ctx context.Context, ev platform.ReactionAdded) (outcome Outcome) {
	var p links.Platform
	defer func() {
		metrics.Triggers.WithLabelValues("reaction", string(p), string(outcome)).Inc()
		log.Debug().
			Str("message_id", ev.MessageId).
			Str("emote", ev.Emote).
			Str("outcome", string(outcome)).
			Msg("handled reaction")
	}()

	if d.isBot(ev.User) {
		return OutcomeBotActor
	}

	p, ok := d.emotes[ev.Emote]
	if !ok || ev.Emote == "" {
		return OutcomeUnknownEmote
	}

	if ev.Count > maxReactionTally {
		return OutcomeDuplicate
	}

	cfg, err := d.guilds.Get(ctx, ev.GuildId)
	if err != nil {
		if ctx.Err() == nil {
			sentry.CaptureException(err)
			log.Error().Err(err).Str("guild_id", ev.GuildId).Msg("failed getting guild configuration")
		}
		return OutcomeDisabled
	}
	if !cfg.ReactionsEnabled(p) {
		return OutcomeDisabled
	}

	pipeline, ok := d.pipelines[p]
	if !ok {
		return OutcomeDisabled
	}

	msg, err := d.client.GetMessage(ctx, ev.ChannelId, ev.MessageId)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeCancelled
		}
		log.Warn().Err(err).Str("message_id", ev.MessageId).Msg("failed fetching reacted message")
		return OutcomeFailed
	}
	if ev.Count == 0 && msg.ReactionCount(ev.Emote) > maxReactionTally {
		return OutcomeDuplicate
	}

	kw, ok := pipeline.Select(msg.Content)
	if !ok {
		return OutcomeNoLink
	}

	payloads := d.run(ctx, pipeline, fixers.Request{
		Keyword:   kw,
		Text:      msg.Content,
		Requester: ev.User.Username,
	})
	if ctx.Err() != nil {
		return OutcomeCancelled
	}
	if len(payloads) == 0 {
		return OutcomeUnavailable
	}
	if isNoLink(payloads) {
		return OutcomeNoLink
	}

	// only a reply about to be posted claims the message
	if d.marker != nil {
		first, err := d.marker.Mark(ctx, ev.MessageId, ev.Emote)
		if err != nil {
			log.Warn().Err(err).Msg("failed marking reaction, relying on tally")
		} else if !first {
			return OutcomeDuplicate
		}
	}
	if err := d.post(ctx, p, msg.ChannelId, msg.Id, payloads); err != nil {
		return OutcomeFailed
	}
	return OutcomeReplied
}

// HandleMessage answers text commands. Unlike reactions, it tells the user
// when it couldn't find or fetch anything.
func (d *Dispatcher) HandleMessage(ctx context.Context, ev platform.MessagePosted) (outcome Outcome) {
	var kw fixers.Keyword
	defer func() {
		metrics.Triggers.WithLabelValues("command", string(kw.Platform()), string(outcome)).Inc()
		if outcome != OutcomeIgnored {
			log.Debug().
				Str("message_id", ev.MessageId).
				Str("keyword", kw.String()).
				Str("outcome", string(outcome)).
				Msg("handled command")
		}
	}()

	if d.isBot(ev.Author) {
		return OutcomeBotActor
	}

	kw, ok := d.commands.parse(ev.Content)
	if !ok {
		return OutcomeIgnored
	}
	pipeline, ok := d.pipelines[kw.Platform()]
	if !ok {
		return OutcomeIgnored
	}

	targetId, text := ev.MessageId, ev.Content
	if !pipeline.HasLinks(kw, ev.Content) && ev.ReferencedMessageId != "" {
		referenced, err := d.client.GetMessage(ctx, ev.ChannelId, ev.ReferencedMessageId)
		if err != nil {
			if ctx.Err() != nil {
				return OutcomeCancelled
			}
			log.Warn().Err(err).Str("message_id", ev.ReferencedMessageId).Msg("failed fetching referenced message")
			d.apologize(ctx, kw.Platform(), ev, unreadableMessageText)
			return OutcomeUnreadable
		}
		targetId, text = referenced.Id, referenced.Content
	}

	payloads := d.run(ctx, pipeline, fixers.Request{
		Keyword:   kw,
		Text:      text,
		Requester: ev.Author.Username,
	})
	if ctx.Err() != nil {
		return OutcomeCancelled
	}

	switch {
	case len(payloads) == 0:
		d.apologize(ctx, kw.Platform(), ev, fmt.Sprintf(unavailablePostTextFmt, kw.Platform().DisplayName()))
		return OutcomeUnavailable
	case isNoLink(payloads):
		if err := d.post(ctx, kw.Platform(), ev.ChannelId, ev.MessageId, payloads); err != nil {
			return OutcomeFailed
		}
		return OutcomeNoLink
	}

	if err := d.post(ctx, kw.Platform(), ev.ChannelId, targetId, payloads); err != nil {
		return OutcomeFailed
	}
	return OutcomeReplied
}

func (d *Dispatcher) run(ctx context.Context, pipeline fixers.Pipeline, req fixers.Request) []fixers.ReplyPayload {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.WithLabelValues(string(pipeline.Platform())).Observe(time.Since(start).Seconds())
	}()
	return pipeline.Run(ctx, req)
}

func (d *Dispatcher) apologize(ctx context.Context, p links.Platform, ev platform.MessagePosted, text string) {
	d.post(ctx, p, ev.ChannelId, ev.MessageId, []fixers.ReplyPayload{{Text: text}})
}

// post sends payloads in order. It runs detached from ctx's cancellation so
// a batch that started is finished, bounded by the post timeout.
func (d *Dispatcher) post(ctx context.Context, p links.Platform, channelId string, targetId string, payloads []fixers.ReplyPayload) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.postTimeout)
	defer cancel()

	var errs []error
	for _, payload := range payloads {
		reply := platform.Reply{
			ChannelId:         channelId,
			TargetMessageId:   targetId,
			Text:              payload.Text,
			AllowDeleteButton: payload.AllowDeleteButton,
			NotifyAuthor:      payload.NotifyAuthor,
		}
		for _, a := range payload.Attachments {
			reply.Attachments = append(reply.Attachments, platform.Attachment{
				Filename: a.Filename,
				Data:     a.Data,
				AltText:  a.AltText,
			})
		}

		if err := d.client.PostReply(ctx, reply); err != nil {
			sentry.CaptureException(err)
			log.Error().Err(err).Str("message_id", targetId).Msg("failed posting reply")
			errs = append(errs, err)
			continue
		}
		metrics.RepliesPosted.WithLabelValues(string(p)).Inc()
	}
	return errors.Join(errs...)
}

// isBot also catches the bot's own account, which may lack the bot flag.
func (d *Dispatcher) isBot(u platform.User) bool {
	return u.Bot() || (d.botUsername != "" && strings.EqualFold(u.Username, d.botUsername))
}

func isNoLink(payloads []fixers.ReplyPayload) bool {
	return len(payloads) == 0 || (len(payloads) == 1 && payloads[0].NoLink())
}
