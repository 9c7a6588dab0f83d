package bot

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/hexforge/hwidgate/internal/duration"
	"github.com/hexforge/hwidgate/internal/models"
	"github.com/hexforge/hwidgate/internal/verify"
)

// memberRoundTripper serves every REST call with a canned guild-member reply.
type memberRoundTripper struct {
	body string
	err  error
}

func (rt *memberRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	if rt.err != nil {
		return nil, rt.err
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(rt.body)),
	}, nil
}

func newStubbedSession(t *testing.T, rt *memberRoundTripper) *discordgo.Session {
	t.Helper()
	session, errNew := discordgo.New("Bot test-token")
	if errNew != nil {
		t.Fatalf("new session: %v", errNew)
	}
	session.Client = &http.Client{Transport: rt}
	return session
}

func TestMemberRolesFetchesLiveRoles(t *testing.T) {
	t.Parallel()

	rt := &memberRoundTripper{body: `{"user":{"id":"u1"},"roles":["role-live"]}`}
	session := newStubbedSession(t, rt)
	// Seed outdated cached state; the fetch must not consult it.
	if errAdd := session.State.GuildAdd(&discordgo.Guild{ID: "g1"}); errAdd != nil {
		t.Fatalf("guild add: %v", errAdd)
	}
	if errAdd := session.State.MemberAdd(&discordgo.Member{
		GuildID: "g1",
		User:    &discordgo.User{ID: "u1"},
		Roles:   []string{"role-stale"},
	}); errAdd != nil {
		t.Fatalf("member add: %v", errAdd)
	}

	b := &Bot{session: session}
	roles, ok := b.memberRoles("g1", "u1")
	if !ok {
		t.Fatalf("expected live fetch to succeed")
	}
	if len(roles) != 1 || roles[0] != "role-live" {
		t.Fatalf("roles = %v, want the freshly fetched role set", roles)
	}
}

func TestMemberRolesFetchFailureDegrades(t *testing.T) {
	t.Parallel()

	session := newStubbedSession(t, &memberRoundTripper{err: errors.New("gateway down")})
	b := &Bot{session: session}
	if _, ok := b.memberRoles("g1", "u1"); ok {
		t.Fatalf("expected failed fetch to report ok=false")
	}
	if _, ok := b.memberRoles("", "u1"); ok {
		t.Fatalf("expected missing guild id to report ok=false")
	}
}

func TestParseVerifyCommand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		prefix   string
		content  string
		wantCode string
		wantOK   bool
	}{
		{"", "verify 123456", "123456", true},
		{"", "VERIFY 123456", "123456", true},
		{"", "verify", "", false},
		{"", "hello 123456", "", false},
		{"!", "!verify 123456", "123456", true},
		{"!", "verify 123456", "", false},
		{"", "verify 123456 extra", "123456", true},
	}
	for _, tc := range cases {
		code, ok := parseVerifyCommand(tc.prefix, tc.content)
		if ok != tc.wantOK || code != tc.wantCode {
			t.Fatalf("parseVerifyCommand(%q, %q) = (%q, %v), want (%q, %v)",
				tc.prefix, tc.content, code, ok, tc.wantCode, tc.wantOK)
		}
	}
}

func TestCollectorAcceptsOneMessage(t *testing.T) {
	t.Parallel()

	b := &Bot{collectors: make(map[string]time.Time)}
	b.armCollector("user", "chan")

	if !b.consumeCollector("user", "chan") {
		t.Fatal("first consume should claim the collector")
	}
	if b.consumeCollector("user", "chan") {
		t.Fatal("second consume must not claim anything")
	}
	if b.consumeCollector("other", "chan") {
		t.Fatal("different user must not match")
	}
}

func TestCollectorExpires(t *testing.T) {
	t.Parallel()

	b := &Bot{collectors: make(map[string]time.Time)}
	b.collectorMu.Lock()
	b.collectors["user|chan"] = time.Now().Add(-time.Second)
	b.collectorMu.Unlock()

	if b.consumeCollector("user", "chan") {
		t.Fatal("expired collector must not claim messages")
	}
}

func TestBuildRedeemEmbed(t *testing.T) {
	t.Parallel()

	expires := time.Date(2026, 9, 3, 12, 0, 0, 0, time.UTC)
	outcome := verify.RedeemOutcome{
		HWID:        "hw-1",
		Duration:    duration.FromMillis(2 * 24 * 60 * 60 * 1000),
		Description: "VIP (2d)",
		ExpiresAt:   expires,
	}
	embed := buildRedeemEmbed(outcome)
	if embed.Title != "Verification successful" {
		t.Fatalf("title = %q", embed.Title)
	}
	if len(embed.Fields) != 3 {
		t.Fatalf("fields = %d, want 3", len(embed.Fields))
	}
	if embed.Fields[0].Value != "VIP (2d)" {
		t.Fatalf("access field = %q", embed.Fields[0].Value)
	}
	if embed.Fields[1].Value != "2d" {
		t.Fatalf("valid-for field = %q", embed.Fields[1].Value)
	}

	punished := verify.RedeemOutcome{
		Duration:    duration.FromMillis(30 * 60 * 1000),
		Description: "Punishment: Punish-Speed (30m)",
		Punished:    true,
		ExpiresAt:   expires,
	}
	embed = buildRedeemEmbed(punished)
	if embed.Color != colorPunishment {
		t.Fatalf("punishment color = %#x", embed.Color)
	}

	lifetime := verify.RedeemOutcome{
		Duration:    duration.Lifetime(),
		Description: "Founder (Lifetime)",
		ExpiresAt:   expires,
	}
	embed = buildRedeemEmbed(lifetime)
	if len(embed.Fields) != 2 {
		t.Fatalf("lifetime embed must omit the expiry field, got %d fields", len(embed.Fields))
	}
}

func TestFormatActiveUsersPage(t *testing.T) {
	t.Parallel()

	if got := formatActiveUsersPage(nil, 0, 1, 10); got != "No active users on this page." {
		t.Fatalf("empty page = %q", got)
	}

	future := time.Now().UTC().Add(48 * time.Hour)
	rows := []models.Verification{
		{HWID: "hw-1", DiscordID: "42", ExpiresAt: &future},
		{HWID: "hw-2", ExpiresAt: &future},
	}
	got := formatActiveUsersPage(rows, 12, 2, 10)
	if !strings.Contains(got, "page 2/2 (12 total)") {
		t.Fatalf("missing paging header: %q", got)
	}
	if !strings.Contains(got, "11. <@42>") {
		t.Fatalf("missing numbered mention: %q", got)
	}
	if !strings.Contains(got, "12. hw-2") {
		t.Fatalf("rows without a discord id fall back to the HWID: %q", got)
	}
}

func TestFormatRuleList(t *testing.T) {
	t.Parallel()

	if got := formatRuleList(nil); got != "No role rules configured." {
		t.Fatalf("empty list = %q", got)
	}
	rules := []models.RoleRule{
		{RoleID: "1", RoleName: "VIP", Duration: "7d", Kind: models.RuleKindBase},
		{RoleID: "2", Duration: "+1h", Kind: models.RuleKindBonus},
	}
	got := formatRuleList(rules)
	if !strings.Contains(got, "VIP: 7d (base)") {
		t.Fatalf("missing base line: %q", got)
	}
	if !strings.Contains(got, "2: +1h (bonus)") {
		t.Fatalf("nameless rules fall back to the role id: %q", got)
	}
}

func TestRedeemErrorMessages(t *testing.T) {
	t.Parallel()

	if got := redeemErrorMessage(verify.ErrNotFound); got != "Invalid code." {
		t.Fatalf("not-found message = %q", got)
	}
	if got := redeemErrorMessage(verify.ErrBanned); got != "This hardware ID is banned." {
		t.Fatalf("banned message = %q", got)
	}
	if got := adminErrorMessage(duration.ErrInvalidDuration); !strings.Contains(got, "Invalid duration") {
		t.Fatalf("invalid duration message = %q", got)
	}
}
