package store

type Setting struct {
	Key   string
	Value string
}

// Well-known settings keys. Seeded empty on first run; the settings
// screen and the sync client read and write them through Get/SetSetting.
const (
	SettingServiceURL = "service_url"
	SettingFriendCode = "friend_code"
	SettingNickname   = "nickname"
	SettingShareMode  = "share_mode"
)
