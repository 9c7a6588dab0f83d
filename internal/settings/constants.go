package settings

// DB config keys and defaults for runtime settings.
const (
	// DefaultDurationKey holds the duration token applied when no role rule matches.
	DefaultDurationKey = "DEFAULT_DURATION"
	// DefaultDefaultDuration is the fallback duration token.
	DefaultDefaultDuration = "1d"
	// IdentityChannelKey holds the channel ID users are pointed to after their
	// first successful verification.
	IdentityChannelKey = "IDENTITY_CHANNEL_ID"
	// VerifyPromptEnabledKey toggles the first-verification identity prompt.
	VerifyPromptEnabledKey = "VERIFY_PROMPT_ENABLED"
	// DefaultVerifyPromptEnabled is the fallback prompt toggle.
	DefaultVerifyPromptEnabled = true
	// RetentionDaysKey controls how long unverified rows are kept.
	RetentionDaysKey = "UNVERIFIED_RETENTION_DAYS"
	// DefaultRetentionDays is the fallback retention window in days.
	DefaultRetentionDays = 30
)
