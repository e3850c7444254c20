// Package notify delivers irrigation alerts to farmers. The SMTP mailer is
// used when mail settings are configured; otherwise alerts go to the log.
// The variant is chosen once at startup and callers treat both the same.
package notify

import (
	"fmt"
	"log"
	"time"

	"gopkg.in/gomail.v2"
)

// Notifier sends a single irrigation alert. Delivery is fire-and-forget
// from the caller's perspective: a failure never undoes the recommendation
// that triggered it.
type Notifier interface {
	SendIrrigationAlert(email, name, cropLabel string, gallons float64, when time.Time) error
}

// Mailer sends alerts over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *Mailer) SendIrrigationAlert(email, name, cropLabel string, gallons float64, when time.Time) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", fmt.Sprintf("Irrigation needed: %s", cropLabel))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nYour field %s has a critical water deficit. We recommend irrigating with %.0f gallons on %s.\n\nThis recommendation was generated from current weather and your irrigation history.\n",
		name, cropLabel, gallons, when.Format("Mon Jan 2 at 3:04 PM"),
	))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send alert to %s: %w", email, err)
	}
	return nil
}

// LogNotifier writes alerts to the log instead of delivering them. Used in
// development and whenever SMTP is not configured.
type LogNotifier struct{}

func (LogNotifier) SendIrrigationAlert(email, name, cropLabel string, gallons float64, when time.Time) error {
	log.Printf("notify: (log only) irrigation alert for %s <%s>: %s needs %.0f gallons on %s",
		name, email, cropLabel, gallons, when.Format(time.RFC3339))
	return nil
}
