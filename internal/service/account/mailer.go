package account

import "log"

// Mailer delivers one-time codes.
type Mailer interface {
	SendCode(to, purpose, code string) error
}

// LogMailer writes codes to the log instead of sending mail, which is all a
// development server needs.
type LogMailer struct{}

func (LogMailer) SendCode(to, purpose, code string) error {
	log.Printf("[MAIL] %s code for %s: %s", purpose, to, code)
	return nil
}
