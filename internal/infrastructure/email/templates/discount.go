package templates

import (
	"bytes"
	"html/template"
	"log"
)

// DiscountEmailProps configures the discount code email body.
type DiscountEmailProps struct {
	Shop         string
	DiscountCode string
	ValidDays    int
}

var discountEmailTemplate = template.Must(template.New("discountEmail").Parse(`
<h1 style="font-size: 24px; font-weight: 600; margin: 0 0 16px;">Thanks for subscribing!</h1>
<p style="font-family: Helvetica, sans-serif; font-size: 16px; margin: 0 0 16px;">
  Here is your discount code for {{.Shop}}:
</p>
<p style="text-align: center; margin: 0 0 16px;">
  <span style="display: inline-block; padding: 12px 24px; border: 2px dashed #1a1a1a; border-radius: 8px; font-size: 20px; font-weight: 700; letter-spacing: 2px;">{{.DiscountCode}}</span>
</p>
{{if gt .ValidDays 0}}<p style="font-family: Helvetica, sans-serif; font-size: 14px; color: #9a9ea6; margin: 0;">
  This code is valid for the next {{.ValidDays}} days.
</p>{{end}}`))

// GetDiscountEmailContent renders the discount email body fragment.
func GetDiscountEmailContent(props DiscountEmailProps) string {
	var buf bytes.Buffer
	if err := discountEmailTemplate.Execute(&buf, props); err != nil {
		log.Printf("ERROR: Failed to execute discount email template: %v", err)
		return ""
	}
	return buf.String()
}
