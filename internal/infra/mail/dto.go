package mail

type WelcomeEmailData struct {
	Name     string
	Role     string
	LoginURL string
}

type EmailSender struct {
	From     string
	LoginURL string
	dialer   dialer
}
