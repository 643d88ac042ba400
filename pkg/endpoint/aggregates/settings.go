package aggregates

type Settings struct {
	NotificationsEnabled bool
	Recipients           []string `validate:"dive,email"`
}
