// Package bot runs the Discord side of the verification workflow: code
// redemption, duration previews, and the admin command set.
package bot

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/hexforge/hwidgate/internal/config"
	"github.com/hexforge/hwidgate/internal/verify"
)

// collectorWindow bounds how long an easter-egg collector waits for a code.
const collectorWindow = 60 * time.Second

// Bot owns the Discord session and dispatches commands to the verification
// service.
type Bot struct {
	cfg     config.DiscordConfig
	svc     *verify.Service
	session *discordgo.Session

	collectorMu sync.Mutex
	collectors  map[string]time.Time // author|channel -> deadline
}

// New builds the Discord session without opening it.
func New(cfg config.DiscordConfig, svc *verify.Service) (*Bot, error) {
	session, errNew := discordgo.New("Bot " + cfg.Token)
	if errNew != nil {
		return nil, errNew
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Bot{
		cfg:        cfg,
		svc:        svc,
		session:    session,
		collectors: make(map[string]time.Time),
	}, nil
}

// Start opens the gateway connection and registers slash commands.
func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)

	if errOpen := b.session.Open(); errOpen != nil {
		return errOpen
	}
	if errRegister := b.registerCommands(); errRegister != nil {
		return errRegister
	}
	return nil
}

// Close shuts the gateway connection down.
func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	_ = event
	log.Infof("discord ready as %s", session.State.User.Username)
}

// memberRoles fetches the user's guild roles over REST so the duration is
// computed from live role state, never the gateway cache. ok is false when the
// fetch failed, which degrades redemption to the default duration.
func (b *Bot) memberRoles(guildID, userID string) ([]string, bool) {
	if guildID == "" || userID == "" {
		return nil, false
	}
	member, errFetch := b.session.GuildMember(guildID, userID)
	if errFetch != nil || member == nil {
		log.WithError(errFetch).Warnf("member fetch failed for %s", userID)
		return nil, false
	}
	return member.Roles, true
}
