package bot

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/hexforge/hwidgate/internal/duration"
	"github.com/hexforge/hwidgate/internal/verify"
)

// activeUsersPerPage is the page size for /activeusers.
const activeUsersPerPage = 10

func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "verify",
			Description: "Redeem the verification code shown in your game client",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "code", Description: "6-digit verification code", Required: true},
			},
		},
		{Name: "help", Description: "Show available commands"},
		{Name: "boost", Description: "Preview the access duration your roles grant"},
		{
			Name:        "activeusers",
			Description: "List currently active users (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "page", Description: "Page number", Required: false},
			},
		},
		{
			Name:        "lookup",
			Description: "Look up a verification record by code or HWID (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "target", Description: "Code or HWID", Required: true},
			},
		},
		{
			Name:        "ban",
			Description: "Ban a verification record by code or HWID (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "target", Description: "Code or HWID", Required: true},
			},
		},
		{
			Name:        "unban",
			Description: "Unban a verification record by code or HWID (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "target", Description: "Code or HWID", Required: true},
			},
		},
		{
			Name:        "resetuser",
			Description: "Delete a verification record so the machine re-verifies (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "target", Description: "Code or HWID", Required: true},
			},
		},
		{
			Name:        "setexpiry",
			Description: "Overwrite a record's expiry (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "target", Description: "Code or HWID", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "Duration token, e.g. 2d or lifetime", Required: true},
			},
		},
		{
			Name:        "setrule",
			Description: "Attach an access duration to a role (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Target role", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "Duration token; prefix + for a bonus", Required: true},
			},
		},
		{
			Name:        "removerule",
			Description: "Remove the duration rule from a role (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Target role", Required: true},
			},
		},
		{Name: "listrules", Description: "List configured role rules (admin)"},
	}

	appID := b.session.State.User.ID
	_, errOverwrite := b.session.ApplicationCommandBulkOverwrite(appID, b.cfg.GuildID, commands)
	return errOverwrite
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}
	ctx := context.Background()
	data := interaction.ApplicationCommandData()
	user := interactionUser(interaction)
	if user == nil {
		return
	}

	switch data.Name {
	case "verify":
		b.handleVerifyCommand(ctx, session, interaction, user, optionString(data, "code"))
	case "help":
		b.respond(session, interaction, helpText, true)
	case "boost":
		b.handleBoost(ctx, session, interaction, user)
	case "activeusers":
		b.adminCommand(ctx, session, interaction, user, b.handleActiveUsers)
	case "lookup":
		b.adminCommand(ctx, session, interaction, user, b.handleLookup)
	case "ban":
		b.adminCommand(ctx, session, interaction, user, b.handleBan)
	case "unban":
		b.adminCommand(ctx, session, interaction, user, b.handleUnban)
	case "resetuser":
		b.adminCommand(ctx, session, interaction, user, b.handleReset)
	case "setexpiry":
		b.adminCommand(ctx, session, interaction, user, b.handleSetExpiry)
	case "setrule":
		b.adminCommand(ctx, session, interaction, user, b.handleSetRule)
	case "removerule":
		b.adminCommand(ctx, session, interaction, user, b.handleRemoveRule)
	case "listrules":
		b.adminCommand(ctx, session, interaction, user, b.handleListRules)
	}
}

type adminHandler func(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, user *discordgo.User)

// adminCommand gates a handler behind the owner/allow-list predicate.
func (b *Bot) adminCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, user *discordgo.User, handler adminHandler) {
	if !b.svc.IsAdmin(ctx, user.ID) {
		b.respond(session, interaction, "You are not authorized to use this command.", true)
		return
	}
	handler(ctx, session, interaction, user)
}

func (b *Bot) handleVerifyCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, user *discordgo.User, code string) {
	roleIDs, rolesOK := b.memberRoles(interaction.GuildID, user.ID)
	outcome, errRedeem := b.svc.Redeem(ctx, code, user.ID, roleIDs, rolesOK)
	if errRedeem != nil {
		b.respond(session, interaction, redeemErrorMessage(errRedeem), true)
		return
	}
	b.respondEmbed(session, interaction, buildRedeemEmbed(outcome), false)
	b.maybeSendIdentityPrompt(session, interaction.ChannelID, user.ID, outcome)
}

func (b *Bot) handleBoost(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, user *discordgo.User) {
	roleIDs, rolesOK := b.memberRoles(interaction.GuildID, user.ID)
	if !rolesOK {
		b.respond(session, interaction, "Could not read your roles, try again later.", true)
		return
	}
	result, errPreview := b.svc.Preview(ctx, roleIDs)
	if errPreview != nil {
		b.respond(session, interaction, "Preview failed, try again later.", true)
		return
	}
	b.respond(session, interaction, "Your roles grant: "+result.Description+" - "+duration.Format(result.Duration), true)
}

func (b *Bot) handleActiveUsers(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, user *discordgo.User) {
	_ = user
	page := int(optionInt(interaction.ApplicationCommandData(), "page"))
	if page < 1 {
		page = 1
	}
	rows, total, errList := b.svc.ActiveUsers(ctx, page, activeUsersPerPage)
	if errList != nil {
		b.respond(session, interaction, "Listing failed, try again later.", true)
		return
	}
	b.respond(session, interaction, formatActiveUsersPage(rows, total, page, activeUsersPerPage), true)
}

func (b *Bot) handleLookup(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, user *discordgo.User) {
	_ = user
	target := optionString(interaction.ApplicationCommandData(), "target")
	record, errResolve := b.svc.ResolveTarget(ctx, target)
	if errResolve != nil {
		b.respond(session, interaction, adminErrorMessage(errResolve), true)
		return
	}
	b.respondEmbed(session, interaction, buildLookupEmbed(record), true)
}

func (b *Bot) handleBan(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, user *discordgo.User) {
	target := optionString(interaction.ApplicationCommandData(), "target")
	record, errBan := b.svc.Ban(ctx, target, user.ID)
	if errBan != nil {
		b.respond(session, interaction, adminErrorMessage(errBan), true)
		return
	}
	b.respond(session, interaction, "Banned `"+record.HWID+"`.", true)
}

func (b *Bot) handleUnban(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, user *discordgo.User) {
	target := optionString(interaction.ApplicationCommandData(), "target")
	record, errUnban := b.svc.Unban(ctx, target, user.ID)
	if errUnban != nil {
		b.respond(session, interaction, adminErrorMessage(errUnban), true)
		return
	}
	b.respond(session, interaction, "Unbanned `"+record.HWID+"`.", true)
}

func (b *Bot) handleReset(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, user *discordgo.User) {
	target := optionString(interaction.ApplicationCommandData(), "target")
	record, errReset := b.svc.Reset(ctx, target, user.ID)
	if errReset != nil {
		b.respond(session, interaction, adminErrorMessage(errReset), true)
		return
	}
	b.respond(session, interaction, "Reset `"+record.HWID+"`; the next client poll issues a fresh code.", true)
}

func (b *Bot) handleSetExpiry(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, user *discordgo.User) {
	data := interaction.ApplicationCommandData()
	target := optionString(data, "target")
	token := optionString(data, "duration")
	record, errSet := b.svc.SetExpiry(ctx, target, token, user.ID)
	if errSet != nil {
		b.respond(session, interaction, adminErrorMessage(errSet), true)
		return
	}
	b.respond(session, interaction, "Expiry for `"+record.HWID+"` set to "+duration.FormatUntil(*record.ExpiresAt, time.Now().UTC())+".", true)
}

func (b *Bot) handleSetRule(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, user *discordgo.User) {
	data := interaction.ApplicationCommandData()
	role := optionRole(session, data, "role", interaction.GuildID)
	if role == nil {
		b.respond(session, interaction, "Role not found.", true)
		return
	}
	token := optionString(data, "duration")
	rule, errSet := b.svc.SetRule(ctx, role.ID, role.Name, token, user.ID)
	if errSet != nil {
		b.respond(session, interaction, adminErrorMessage(errSet), true)
		return
	}
	b.respond(session, interaction, "Rule saved: "+rule.RoleName+" -> "+rule.Duration+" ("+rule.Kind+").", true)
}

func (b *Bot) handleRemoveRule(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, user *discordgo.User) {
	data := interaction.ApplicationCommandData()
	role := optionRole(session, data, "role", interaction.GuildID)
	if role == nil {
		b.respond(session, interaction, "Role not found.", true)
		return
	}
	if errRemove := b.svc.RemoveRule(ctx, role.ID, user.ID); errRemove != nil {
		b.respond(session, interaction, adminErrorMessage(errRemove), true)
		return
	}
	b.respond(session, interaction, "Rule for "+role.Name+" removed.", true)
}

func (b *Bot) handleListRules(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, user *discordgo.User) {
	_ = user
	rules, errList := b.svc.Rules(ctx)
	if errList != nil {
		b.respond(session, interaction, "Listing failed, try again later.", true)
		return
	}
	b.respond(session, interaction, formatRuleList(rules), true)
}

func adminErrorMessage(err error) string {
	switch {
	case errors.Is(err, verify.ErrNotFound):
		return "No record or rule matches that target."
	case errors.Is(err, duration.ErrInvalidDuration):
		return "Invalid duration token. Use forms like 30m, 2h, 7d, 1w, +1h or lifetime."
	case errors.Is(err, verify.ErrBanned):
		return "That record is banned."
	default:
		return "Operation failed, try again later."
	}
}

// interactionUser resolves the invoking user for guild and DM interactions.
func interactionUser(interaction *discordgo.InteractionCreate) *discordgo.User {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User
	}
	return interaction.User
}

func optionString(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

func optionInt(data discordgo.ApplicationCommandInteractionData, name string) int64 {
	for _, opt := range data.Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionInteger {
			return opt.IntValue()
		}
	}
	return 0
}

func optionRole(session *discordgo.Session, data discordgo.ApplicationCommandInteractionData, name, guildID string) *discordgo.Role {
	for _, opt := range data.Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionRole {
			return opt.RoleValue(session, guildID)
		}
	}
	return nil
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	}
	if ephemeral {
		resp.Data.Flags = discordgo.MessageFlagsEphemeral
	}
	if errRespond := session.InteractionRespond(interaction.Interaction, resp); errRespond != nil {
		log.WithError(errRespond).Warn("interaction respond failed")
	}
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	}
	if ephemeral {
		resp.Data.Flags = discordgo.MessageFlagsEphemeral
	}
	if errRespond := session.InteractionRespond(interaction.Interaction, resp); errRespond != nil {
		log.WithError(errRespond).Warn("interaction respond failed")
	}
}
