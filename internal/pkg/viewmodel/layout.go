package viewmodel

import "github.com/gofiber/fiber/v2"

// Layout carries the values every page template renders around its content.
type Layout struct {
	Page       string
	Title      string
	IsLoggedIn bool
	IsAdmin    bool
	AdminEmail string
	// CSRF is the token every POST form submits as _csrf.
	CSRF string
	// Msg is the flash message of the previous request, if any.
	Msg fiber.Map
}

// Notice returns the flash message type and text.
func (l Layout) Notice() (kind, message string) {
	if l.Msg == nil {
		return "", ""
	}
	kind, _ = l.Msg["type"].(string)
	message, _ = l.Msg["message"].(string)
	return kind, message
}

// DocumentTitle is the text of the <title> element.
func (l Layout) DocumentTitle() string {
	if l.Title == "" {
		return "Provider Admin"
	}
	return "Provider Admin | " + l.Title
}

// LoginPage is the data of the login form.
type LoginPage struct {
	Layout
	Email string
	Error string
}

// ErrorPage is rendered for failed requests.
type ErrorPage struct {
	Layout
	Code    int
	Message string
}
