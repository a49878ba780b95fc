// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"

	"github.com/resendlabs/resend-go"

	"github.com/papapop/papapop-go/internal/infrastructure/email/templates"
	"github.com/papapop/papapop-go/pkg/config"
)

// Service defines the interface for sending emails, allowing for mock
// implementations in tests.
type Service interface {
	SendDiscountEmail(toEmail, shop, discountCode string) error
}

// ResendClient is the concrete implementation of the email Service using
// the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service client, returning the Service
// interface.
func NewService() (Service, error) {
	if config.ResendAPIKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	return &ResendClient{
		client:    resend.NewClient(config.ResendAPIKey),
		fromEmail: config.EmailFrom,
		fromName:  config.EmailFromName,
	}, nil
}

// SendDiscountEmail composes and sends the discount code email to a newly
// captured lead.
func (c *ResendClient) SendDiscountEmail(toEmail, shop, discountCode string) error {
	subject := fmt.Sprintf("Your discount code for %s", shop)

	content := templates.GetDiscountEmailContent(templates.DiscountEmailProps{
		Shop:         shop,
		DiscountCode: discountCode,
		ValidDays:    config.DiscountValidDays,
	})

	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Preheader: subject,
		Content:   content,
	})

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	_, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send discount email via Resend: %w", err)
	}

	return nil
}
