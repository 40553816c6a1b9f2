// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendPaymentFailed(toEmail, pluginName string, failureCount int) error
	SendSubscriptionSuspended(toEmail, pluginName string) error
	SendSubscriptionReactivated(toEmail, pluginName string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

func (s *emailService) send(toEmail, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *emailService) SendPaymentFailed(toEmail, pluginName string, failureCount int) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Payment failed</h2>
			<p>We could not collect payment for your <strong>%s</strong> subscription (attempt %d).</p>
			<p>Please update your payment method. After 3 failed attempts the subscription is suspended.</p>
		</div>
	`, pluginName, failureCount)
	return s.send(toEmail, "Payment failed for your plugin subscription", body)
}

func (s *emailService) SendSubscriptionSuspended(toEmail, pluginName string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Subscription suspended</h2>
			<p>Your <strong>%s</strong> subscription was suspended after repeated payment failures.</p>
			<p>Settle the outstanding invoice to reactivate it automatically.</p>
		</div>
	`, pluginName)
	return s.send(toEmail, "Your plugin subscription was suspended", body)
}

func (s *emailService) SendSubscriptionReactivated(toEmail, pluginName string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Subscription reactivated</h2>
			<p>Payment received. Your <strong>%s</strong> subscription is active again.</p>
		</div>
	`, pluginName)
	return s.send(toEmail, "Your plugin subscription is active again", body)
}
