package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hexforge/hwidgate/internal/duration"
	"github.com/hexforge/hwidgate/internal/models"
	"github.com/hexforge/hwidgate/internal/verify"
)

// Embed colors.
const (
	colorSuccess    = 0x2ECC71
	colorPunishment = 0xE67E22
	colorInfo       = 0x3498DB
)

func buildRedeemEmbed(outcome verify.RedeemOutcome) *discordgo.MessageEmbed {
	color := colorSuccess
	title := "Verification successful"
	if outcome.Punished {
		color = colorPunishment
		title = "Verification applied with restrictions"
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Access", Value: outcome.Description, Inline: false},
		{Name: "Valid for", Value: duration.Format(outcome.Duration), Inline: true},
	}
	if !outcome.Duration.Lifetime {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Expires",
			Value:  outcome.ExpiresAt.UTC().Format("2006-01-02 15:04 UTC"),
			Inline: true,
		})
	}
	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     color,
		Fields:    fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func buildLookupEmbed(record *models.Verification) *discordgo.MessageEmbed {
	status := "pending"
	switch {
	case record.IsBanned:
		status = "banned"
	case record.ActiveAt(time.Now().UTC()):
		status = "active"
	case record.Verified:
		status = "expired"
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "HWID", Value: record.HWID, Inline: false},
		{Name: "Code", Value: record.Code, Inline: true},
		{Name: "Status", Value: status, Inline: true},
	}
	if record.DiscordID != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "User", Value: "<@" + record.DiscordID + ">", Inline: true})
	}
	if record.ExpiresAt != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Remaining",
			Value:  duration.FormatUntil(*record.ExpiresAt, time.Now().UTC()),
			Inline: true,
		})
	}
	return &discordgo.MessageEmbed{Title: "Verification record", Color: colorInfo, Fields: fields}
}

// formatActiveUsersPage renders one page of the active-user listing.
func formatActiveUsersPage(rows []models.Verification, total int64, page, perPage int) string {
	if len(rows) == 0 {
		return "No active users on this page."
	}
	now := time.Now().UTC()
	var sb strings.Builder
	totalPages := (total + int64(perPage) - 1) / int64(perPage)
	fmt.Fprintf(&sb, "Active users - page %d/%d (%d total)\n", page, totalPages, total)
	for i, row := range rows {
		user := row.HWID
		if row.DiscordID != "" {
			user = "<@" + row.DiscordID + ">"
		}
		remaining := "unknown"
		if row.ExpiresAt != nil {
			remaining = duration.FormatUntil(*row.ExpiresAt, now)
		}
		fmt.Fprintf(&sb, "%d. %s - %s left\n", (page-1)*perPage+i+1, user, remaining)
	}
	return sb.String()
}

// formatRuleList renders the stored role rules for /listrules.
func formatRuleList(rules []models.RoleRule) string {
	if len(rules) == 0 {
		return "No role rules configured."
	}
	var sb strings.Builder
	sb.WriteString("Role rules:\n")
	for _, rule := range rules {
		name := rule.RoleName
		if name == "" {
			name = rule.RoleID
		}
		fmt.Fprintf(&sb, "- %s: %s (%s)\n", name, rule.Duration, rule.Kind)
	}
	return sb.String()
}

const helpText = "**Commands**\n" +
	"`verify <code>` or `/verify` - redeem the code shown in your game client\n" +
	"`/boost` - preview the access duration your roles grant\n" +
	"`/help` - this message\n\n" +
	"**Admin**\n" +
	"`/activeusers [page]`, `/lookup`, `/ban`, `/unban`, `/resetuser`, `/setexpiry`,\n" +
	"`/setrule`, `/removerule`, `/listrules`"
