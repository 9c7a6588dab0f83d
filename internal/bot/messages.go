package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/hexforge/hwidgate/internal/settings"
	"github.com/hexforge/hwidgate/internal/verify"
)

// easterEggTrigger starts the one-shot code collector.
const easterEggTrigger = "\U0001F60E" // 😎

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return
	}
	ctx := context.Background()

	if content == easterEggTrigger {
		b.armCollector(msg.Author.ID, msg.ChannelID)
		b.reply(session, msg.ChannelID, "Send your verification code within 60 seconds.")
		return
	}
	if b.consumeCollector(msg.Author.ID, msg.ChannelID) {
		code := strings.Fields(content)[0]
		b.redeemAndReply(ctx, session, msg, code)
		return
	}

	code, ok := parseVerifyCommand(b.cfg.CommandPrefix, content)
	if !ok {
		return
	}
	b.redeemAndReply(ctx, session, msg, code)
}

// parseVerifyCommand extracts the code from a "verify <code>" message. With a
// configured prefix the command must carry it, e.g. "!verify 123456".
func parseVerifyCommand(prefix, content string) (string, bool) {
	fields := strings.Fields(content)
	if len(fields) < 2 {
		return "", false
	}
	command := strings.ToLower(fields[0])
	if prefix != "" {
		if !strings.HasPrefix(command, strings.ToLower(prefix)) {
			return "", false
		}
		command = strings.TrimPrefix(command, strings.ToLower(prefix))
	}
	if command != "verify" {
		return "", false
	}
	return fields[1], true
}

// armCollector opens a 60-second window that consumes the author's next
// message in the channel as a verification code.
func (b *Bot) armCollector(authorID, channelID string) {
	key := authorID + "|" + channelID
	b.collectorMu.Lock()
	b.collectors[key] = time.Now().Add(collectorWindow)
	b.collectorMu.Unlock()

	time.AfterFunc(collectorWindow, func() {
		b.collectorMu.Lock()
		if deadline, ok := b.collectors[key]; ok && !deadline.After(time.Now()) {
			delete(b.collectors, key)
		}
		b.collectorMu.Unlock()
	})
}

// consumeCollector reports whether an active collector claimed this message.
// A collector accepts at most one message.
func (b *Bot) consumeCollector(authorID, channelID string) bool {
	key := authorID + "|" + channelID
	b.collectorMu.Lock()
	defer b.collectorMu.Unlock()
	deadline, ok := b.collectors[key]
	if !ok {
		return false
	}
	delete(b.collectors, key)
	return deadline.After(time.Now())
}

func (b *Bot) redeemAndReply(ctx context.Context, session *discordgo.Session, msg *discordgo.MessageCreate, code string) {
	roleIDs, rolesOK := b.memberRoles(msg.GuildID, msg.Author.ID)
	outcome, errRedeem := b.svc.Redeem(ctx, code, msg.Author.ID, roleIDs, rolesOK)
	if errRedeem != nil {
		b.reply(session, msg.ChannelID, redeemErrorMessage(errRedeem))
		return
	}
	b.replyEmbed(session, msg.ChannelID, buildRedeemEmbed(outcome))
	b.maybeSendIdentityPrompt(session, msg.ChannelID, msg.Author.ID, outcome)
}

// maybeSendIdentityPrompt points a first-time verifier to the identity channel
// once, unless the outcome was a punishment or the prompt is disabled.
func (b *Bot) maybeSendIdentityPrompt(session *discordgo.Session, channelID, userID string, outcome verify.RedeemOutcome) {
	if !outcome.FirstVerification || outcome.Punished {
		return
	}
	if !settings.BoolValue(settings.VerifyPromptEnabledKey, settings.DefaultVerifyPromptEnabled) {
		return
	}
	identityChannel := settings.StringValue(settings.IdentityChannelKey, b.cfg.IdentityChannelID)
	if identityChannel == "" {
		return
	}
	b.reply(session, channelID, "<@"+userID+"> Welcome! Please post your identity details in <#"+identityChannel+">.")
}

func redeemErrorMessage(err error) string {
	switch {
	case errors.Is(err, verify.ErrNotFound):
		return "Invalid code."
	case errors.Is(err, verify.ErrBanned):
		return "This hardware ID is banned."
	default:
		return "Verification failed, try again later."
	}
}

func (b *Bot) reply(session *discordgo.Session, channelID, content string) {
	if _, errSend := session.ChannelMessageSend(channelID, content); errSend != nil {
		log.WithError(errSend).Warn("channel message send failed")
	}
}

func (b *Bot) replyEmbed(session *discordgo.Session, channelID string, embed *discordgo.MessageEmbed) {
	if _, errSend := session.ChannelMessageSendEmbed(channelID, embed); errSend != nil {
		log.WithError(errSend).Warn("channel embed send failed")
	}
}
