package render

import "html/template"

// Pre-parsed popup fragment templates. Using html/template escapes all
// merchant-authored content (headings, options, discount codes) so a
// definition can never inject markup into the storefront.

var shellTmpl = template.Must(template.New("shell").Parse(`<div class="papapop-overlay" data-popup-id="{{.PopupID}}">
  <div class="papapop-modal papapop-pos-{{.Position}}"{{if .Style}} style="{{.Style}}"{{end}}>
    <button class="papapop-close" data-action="close" aria-label="Close">&times;</button>
    {{.Body}}
  </div>
</div>`))

var quizTmpl = template.Must(template.New("quiz").Parse(`<div class="papapop-step papapop-quiz">
  {{if gt .StepCount 1}}<div class="papapop-progress"><div class="papapop-progress-bar" style="width: {{.Percent}}%"></div></div>{{end}}
  <h2 class="papapop-heading">{{.Question}}</h2>
  <div class="papapop-options">
    {{range .Options}}<button class="papapop-option" data-action="answer" data-value="{{.}}">{{.}}</button>
    {{end}}</div>
</div>`))

var emailTmpl = template.Must(template.New("email").Parse(`<div class="papapop-step papapop-email">
  <h2 class="papapop-heading">{{.Heading}}</h2>
  {{if .Description}}<p class="papapop-description">{{.Description}}</p>{{end}}
  <form class="papapop-form" data-action="submit">
    <input class="papapop-input" type="email" name="email" placeholder="Enter your email" required>
    <button class="papapop-button" type="submit"{{if .ButtonStyle}} style="{{.ButtonStyle}}"{{end}}>{{.ButtonText}}</button>
  </form>
</div>`))

var successTmpl = template.Must(template.New("success").Parse(`<div class="papapop-step papapop-success">
  <div class="papapop-success-icon">&#10003;</div>
  <h2 class="papapop-heading">Thank you!</h2>
  {{if .DiscountCode}}<p class="papapop-description">Use this code at checkout:</p>
  <div class="papapop-discount-code">{{.DiscountCode}}</div>{{end}}
</div>`))

var errorTmpl = template.Must(template.New("error").Parse(`<div class="papapop-error" role="alert">{{.}}</div>`))
