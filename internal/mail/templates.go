package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"storefront/internal/model"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates renders the storefront's emails into Messages.
type Templates struct {
	tmpl        *template.Template
	appName     string
	frontendURL string
	now         func() time.Time
}

// NewTemplates parses the embedded templates.
func NewTemplates(appName, frontendURL string) (*Templates, error) {
	printer := message.NewPrinter(language.English)

	funcs := template.FuncMap{
		"naira": func(amount float64) string {
			return printer.Sprintf("₦%.2f", amount)
		},
		"lineTotal": func(item model.OrderItem) float64 {
			return item.Price * float64(item.Quantity)
		},
	}

	tmpl, err := template.New("mail").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail templates: %w", err)
	}

	return &Templates{
		tmpl:        tmpl,
		appName:     appName,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}, nil
}

// OrderNumber is the short form of an order id shown to buyers.
func OrderNumber(order *model.Order) string {
	id := order.ID.String()
	return strings.ToUpper(id[len(id)-8:])
}

// OrderConfirmation renders the email sent once an order is paid.
func (t *Templates) OrderConfirmation(order *model.Order) (Message, error) {
	html, err := t.render("order_confirmation", map[string]any{
		"AppName":     t.appName,
		"OrderNumber": OrderNumber(order),
		"Order":       order,
	})
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      []string{order.Buyer.Email},
		Subject: fmt.Sprintf("Your %s Order #%s is Confirmed!", t.appName, OrderNumber(order)),
		HTML:    html,
		Text:    fmt.Sprintf("Thank you for your order #%s. We're preparing your items for shipment.", OrderNumber(order)),
	}, nil
}

// Verification renders the account verification email.
func (t *Templates) Verification(user *model.User, token string, ttl time.Duration) (Message, error) {
	link := t.frontendURL + "/verify-email/" + token
	html, err := t.render("verification", t.accountData(user, link, ttl))
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      []string{user.Email},
		Subject: "Verify Your Email",
		HTML:    html,
		Text:    "Verify your email: " + link,
	}, nil
}

// PasswordReset renders the password reset email.
func (t *Templates) PasswordReset(user *model.User, token string, ttl time.Duration) (Message, error) {
	link := t.frontendURL + "/reset-password/" + token
	html, err := t.render("reset", t.accountData(user, link, ttl))
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      []string{user.Email},
		Subject: fmt.Sprintf("Reset Your Password - %s", t.appName),
		HTML:    html,
		Text:    "Reset your password: " + link,
	}, nil
}

// Campaign renders a product update sent blind to every recipient.
func (t *Templates) Campaign(subject, body, imageURL string, recipients []string) (Message, error) {
	html, err := t.render("campaign", map[string]any{
		"AppName":  t.appName,
		"ImageURL": imageURL,
		"Lines":    strings.Split(body, "\n"),
	})
	if err != nil {
		return Message{}, err
	}

	return Message{
		Bcc:     recipients,
		Subject: subject,
		HTML:    html,
		Text:    body,
	}, nil
}

func (t *Templates) accountData(user *model.User, link string, ttl time.Duration) map[string]any {
	return map[string]any{
		"AppName": t.appName,
		"Name":    user.Name,
		"Link":    link,
		"Expiry":  humanDuration(ttl),
		"Year":    t.now().Year(),
	}
}

func (t *Templates) render(name string, data map[string]any) (string, error) {
	if _, ok := data["Year"]; !ok {
		data["Year"] = t.now().Year()
	}

	var buf bytes.Buffer
	if err := t.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", name, err)
	}
	return buf.String(), nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
