package pitchside

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const contactSendTimeout = 30 * time.Second

// contactForm is the body of POST /api/contact/form/, as JSON or form data.
type contactForm struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Subject string `json:"subject" form:"subject"`
	Message string `json:"message" form:"message"`
}

// handleContact relays a contact message to the secretary. Delivery happens
// in the background; the caller gets 200 as soon as the message is accepted.
// Any method other than POST is 404.
func (a *App) handleContact(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.NoContent(http.StatusNotFound)
	}
	if !a.contactLimiter.Allow(c.RealIP()) {
		a.Metrics.IncrementContact("limited")
		return c.NoContent(http.StatusTooManyRequests)
	}

	var form contactForm
	if err := c.Bind(&form); err != nil {
		return err
	}
	msg := Email{
		Template: "contactForm",
		To:       a.Config.ContactEmail,
		CC:       []string{a.Config.ContactCC},
		ReplyTo:  strings.TrimSpace(form.Email),
		Data: map[string]string{
			"name":    strings.TrimSpace(form.Name),
			"email":   strings.TrimSpace(form.Email),
			"subject": strings.TrimSpace(form.Subject),
			"message": form.Message,
		},
	}

	ctx := context.WithoutCancel(c.Request().Context())
	a.goBackground(func() {
		ctx, cancel := context.WithTimeout(ctx, contactSendTimeout)
		defer cancel()
		if err := a.Mailer.Send(ctx, msg); err != nil {
			a.Metrics.IncrementContact("failed")
			a.Logger.Error("send contact form", zap.Error(err), zap.String("to", msg.To))
			return
		}
		a.Metrics.IncrementContact("sent")
	})
	return c.NoContent(http.StatusOK)
}
