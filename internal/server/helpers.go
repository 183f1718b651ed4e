package server

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"avocado/internal/models"
	"avocado/internal/service"
	"avocado/internal/views"

	"github.com/gofiber/fiber/v2"
)

// parseID extracts a route parameter by name as a positive uint.
// A bad value is a 400 rendered by the error handler.
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "commentId" -> "Invalid comment ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+humanizeParam(param))
	}
	return uint(id), nil
}

// parseFormID parses a positive id posted in a form field.
func parseFormID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid ID")
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		return strings.ToLower(strings.Join(splitCamel(param[:len(param)-2]), " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// render fills the values every page needs and renders name in the layout.
// A "Toast" already present in data wins over the pending session toast.
func (s *Server) render(c *fiber.Ctx, name string, data fiber.Map) error {
	ws := sessionOf(c)
	v := ws.Viewer()

	data["LoggedIn"] = v.LoggedIn()
	data["Email"] = v.Email
	if token, ok := c.Locals(csrfContextKey).(string); ok {
		data["CSRF"] = token
	}
	if _, ok := data["Toast"]; !ok {
		if t := ws.PopToast(); t != nil {
			data["Toast"] = t
		}
	}
	return c.Render(name, data)
}

// redirectWithToast queues t and sends the browser to location (303).
func redirectWithToast(c *fiber.Ctx, location string, t *views.Toast) error {
	sessionOf(c).PushToast(t)
	return c.Redirect(location, fiber.StatusSeeOther)
}

// requireLogin redirects anonymous visitors to the login page. It reports
// whether the caller may continue.
func requireLogin(c *fiber.Ctx) (service.Viewer, bool, error) {
	v := sessionOf(c).Viewer()
	if v.LoggedIn() {
		return v, true, nil
	}
	return v, false, redirectWithToast(c, "/login", views.Error(service.MsgMembersOnly))
}

// failureToast converts a service error to a toast, using fallback for
// errors that carry no user message.
func failureToast(err error, fallback string) *views.Toast {
	return views.Error(models.UserMessage(err, fallback))
}

// statusForPage maps a service error to the status of a re-rendered form.
func statusForPage(err error) int {
	switch models.ErrorCode(err) {
	case models.CodeValidation:
		return fiber.StatusUnprocessableEntity
	case models.CodeUnauthorized:
		return fiber.StatusForbidden
	case models.CodeConflict:
		return fiber.StatusConflict
	case models.CodeNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusBadGateway
	}
}

// isNotFound reports a missing upstream resource.
func isNotFound(err error) bool {
	return models.ErrorCode(err) == models.CodeNotFound
}

// readUpload returns the optional "file" part of a multipart form. An empty
// part (no file chosen) yields nil.
func readUpload(c *fiber.Ctx) (*service.UploadFile, error) {
	fh, err := c.FormFile("file")
	if err != nil || fh.Size == 0 || fh.Filename == "" {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	return &service.UploadFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
