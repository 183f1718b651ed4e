package server

import (
	"avocado/internal/observability"
	"avocado/internal/service"
	"avocado/internal/views"

	"github.com/gofiber/fiber/v2"
)

// LoginPage shows the login form; signed-in users go to the listing.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	if sessionOf(c).Viewer().LoggedIn() {
		return c.Redirect("/main", fiber.StatusSeeOther)
	}
	return s.render(c, "login", fiber.Map{"Title": "Log in"})
}

// Login exchanges the posted credentials for a token kept in the session.
func (s *Server) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	v, err := s.accountService.Login(c.UserContext(), email, c.FormValue("password"))
	if err != nil {
		c.Status(statusForPage(err))
		return s.render(c, "login", fiber.Map{
			"Title":      "Log in",
			"EmailInput": email,
			"Toast":      failureToast(err, service.MsgLoginFailed),
		})
	}

	if err := sessionOf(c).Login(v); err != nil {
		return err
	}
	observability.Logger.InfoContext(c.UserContext(), "user logged in", "user_email", v.Email)
	return redirectWithToast(c, "/main", views.Success(service.MsgLoginOK))
}

// Logout forgets the token and page state.
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := sessionOf(c).Logout(); err != nil {
		return err
	}
	return redirectWithToast(c, "/main", views.Success(service.MsgLogoutOK))
}

// ProfilePage shows the viewer's account with the nickname form.
func (s *Server) ProfilePage(c *fiber.Ctx) error {
	v, ok, rerr := requireLogin(c)
	if !ok {
		return rerr
	}

	acc, err := s.accountService.Profile(c.UserContext(), v)
	if err != nil {
		c.Status(statusForPage(err))
		return s.render(c, "profile", fiber.Map{
			"Title": "Profile",
			"Error": service.MsgProfileFailed,
		})
	}
	return s.render(c, "profile", fiber.Map{
		"Title":         "Profile",
		"Account":       acc,
		"NicknameInput": acc.Nickname,
	})
}

// UpdateNickname changes the viewer's nickname. A taken nickname re-renders
// the form with the typed value and the unchanged account.
func (s *Server) UpdateNickname(c *fiber.Ctx) error {
	v, ok, rerr := requireLogin(c)
	if !ok {
		return rerr
	}

	acc, err := s.accountService.Profile(c.UserContext(), v)
	if err != nil {
		return redirectWithToast(c, "/profile", failureToast(err, service.MsgProfileFailed))
	}

	nickname := c.FormValue("nickname")
	if err := s.accountService.UpdateNickname(c.UserContext(), v, acc, nickname); err != nil {
		c.Status(statusForPage(err))
		return s.render(c, "profile", fiber.Map{
			"Title":         "Profile",
			"Account":       acc,
			"NicknameInput": nickname,
			"Toast":         failureToast(err, service.MsgNicknameFailed),
		})
	}
	return redirectWithToast(c, "/profile", views.Success(service.MsgNicknameUpdated))
}
