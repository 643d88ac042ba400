package client

type Settings struct {
	NotificationsEnabled bool     `json:"notifications-enabled"`
	Recipients           []string `json:"recipients"`
}

type UpdateSettingsInput struct {
	NotificationsEnabled bool     `json:"notifications-enabled"`
	Recipients           []string `json:"recipients" validate:"dive,email"`
}

type Response struct {
	Messages []string `json:"messages"`
}
