package http

import (
	"io"

	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/portal/domain/repository"
	"afi-portal/internal/portal/usecase"
	sharedErrors "afi-portal/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type loginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type registerForm struct {
	FullName string `json:"full_name" form:"full_name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

func (f loginForm) values() fiber.Map {
	return fiber.Map{"email": f.Email}
}

func (f registerForm) values() fiber.Map {
	return fiber.Map{"full_name": f.FullName, "email": f.Email, "role": f.Role}
}

type bookingForm struct {
	DoctorID int    `json:"doctor_id" form:"doctor_id"`
	Date     string `json:"date" form:"date"`
	Time     string `json:"time" form:"time"`
	Reason   string `json:"reason" form:"reason"`
	Name     string `json:"name" form:"name"`
	Phone    string `json:"phone" form:"phone"`
	Email    string `json:"email" form:"email"`
}

// respondError answers with the status and message of err.
func respondError(c *fiber.Ctx, err error) error {
	body := fiber.Map{"error": err.Error()}
	if appErr, ok := sharedErrors.AsAppError(err); ok {
		body["type"] = appErr.Type
		if len(appErr.Details) > 0 {
			body["details"] = appErr.Details
		}
	}
	return c.Status(sharedErrors.HTTPStatus(err)).JSON(body)
}

// Login signs the client in and sends it to the dashboard.
func (h *PortalHandler) Login(c *fiber.Ctx) error {
	var form loginForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"view": authPage("login", false, "Invalid request body", nil),
		})
	}

	if _, err := h.gateway.Login(c.UserContext(), clientIDOf(c), form.Email, form.Password); err != nil {
		return c.Status(sharedErrors.HTTPStatus(err)).JSON(fiber.Map{
			"view": authPage("login", false, err.Error(), form.values()),
		})
	}
	return c.Redirect("/dashboard", fiber.StatusSeeOther)
}

// Register creates the account, signs the client in and sends it to the dashboard.
func (h *PortalHandler) Register(c *fiber.Ctx) error {
	var form registerForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"view": authPage("register", false, "Invalid request body", nil),
		})
	}

	req := repository.RegisterRequest{
		FullName: form.FullName,
		Email:    form.Email,
		Password: form.Password,
		Role:     model.Role(form.Role),
	}
	if _, err := h.gateway.RegisterAndLogin(c.UserContext(), clientIDOf(c), req); err != nil {
		return c.Status(sharedErrors.HTTPStatus(err)).JSON(fiber.Map{
			"view": authPage("register", false, err.Error(), form.values()),
		})
	}
	return c.Redirect("/dashboard", fiber.StatusSeeOther)
}

// Logout forgets the client's session and returns to the landing page.
func (h *PortalHandler) Logout(c *fiber.Ctx) error {
	if err := h.gateway.Logout(c.UserContext(), clientIDOf(c)); err != nil {
		h.logger.WithContext(c.UserContext()).Error("Logout failed", zap.Error(err))
		return respondError(c, err)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *PortalHandler) predictionFailed(c *fiber.Ctx, caller model.Caller, err error) error {
	_, stashed := h.clinical.PendingUpload(c.UserContext(), caller)
	return c.Status(sharedErrors.HTTPStatus(err)).JSON(fiber.Map{
		"error":           err.Error(),
		"retry_available": stashed,
	})
}

// Predict classifies the uploaded "file" form field.
func (h *PortalHandler) Predict(c *fiber.Ctx) error {
	caller := callerOf(c)

	fh, err := c.FormFile("file")
	if err != nil {
		return h.predictionFailed(c, caller, sharedErrors.NewPredictionError("Please select an image"))
	}
	f, err := fh.Open()
	if err != nil {
		return h.predictionFailed(c, caller, sharedErrors.NewPredictionError("Could not read the uploaded file").WithCause(err))
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return h.predictionFailed(c, caller, sharedErrors.NewPredictionError("Could not read the uploaded file").WithCause(err))
	}

	res, err := h.clinical.Predict(c.UserContext(), caller, fh.Filename, fh.Header.Get("Content-Type"), content)
	if err != nil {
		return h.predictionFailed(c, caller, err)
	}
	return c.JSON(fiber.Map{"result": res})
}

// RetryPrediction re-submits the stashed image.
func (h *PortalHandler) RetryPrediction(c *fiber.Ctx) error {
	caller := callerOf(c)
	res, err := h.clinical.RetryPrediction(c.UserContext(), caller)
	if err != nil {
		return h.predictionFailed(c, caller, err)
	}
	return c.JSON(fiber.Map{"result": res})
}

// DiscardUpload drops the stashed image.
func (h *PortalHandler) DiscardUpload(c *fiber.Ctx) error {
	if err := h.clinical.DiscardUpload(c.UserContext(), callerOf(c)); err != nil {
		return respondError(c, sharedErrors.NewInfrastructureError("Could not discard the upload").WithCause(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PredictionDetails renders one history entry.
func (h *PortalHandler) PredictionDetails(c *fiber.Ctx) error {
	caller := callerOf(c)
	rec, err := h.clinical.PredictionDetails(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return h.render(c, fiber.StatusOK, caller, "/analysis-history", fiber.Map{"prediction": rec})
}

// wizardResult renders the wizard after an action, with the error of a
// rejected step.
func (h *PortalHandler) wizardResult(c *fiber.Ctx, caller model.Caller, err error) error {
	view := h.wizard(c, caller)
	status := fiber.StatusOK
	if err != nil {
		status = sharedErrors.HTTPStatus(err)
		view.Error = err.Error()
	}
	return h.render(c, status, caller, "/appointments", view)
}

func (h *PortalHandler) BookingNext(c *fiber.Ctx) error {
	caller := callerOf(c)
	var form bookingForm
	if err := c.BodyParser(&form); err != nil {
		return h.wizardResult(c, caller, sharedErrors.NewValidationError("Invalid request body"))
	}
	_, err := h.booking.Next(c.UserContext(), caller, usecase.BookingForm{
		DoctorID: form.DoctorID,
		Date:     form.Date,
		Time:     form.Time,
		Reason:   form.Reason,
		Name:     form.Name,
		Phone:    form.Phone,
		Email:    form.Email,
	})
	return h.wizardResult(c, caller, err)
}

func (h *PortalHandler) BookingBack(c *fiber.Ctx) error {
	caller := callerOf(c)
	_, err := h.booking.Back(c.UserContext(), caller)
	return h.wizardResult(c, caller, err)
}

func (h *PortalHandler) BookingConfirm(c *fiber.Ctx) error {
	caller := callerOf(c)
	appt, err := h.booking.Confirm(c.UserContext(), caller)
	if err != nil {
		return h.wizardResult(c, caller, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"shell":       h.shell.Build(caller, "/appointments"),
		"view":        h.wizard(c, caller),
		"appointment": appt,
	})
}

func (h *PortalHandler) BookingReset(c *fiber.Ctx) error {
	caller := callerOf(c)
	err := h.booking.Reset(c.UserContext(), caller)
	return h.wizardResult(c, caller, err)
}

// SessionStatus reports the sign-in state of the client without touching
// the identity API.
func (h *PortalHandler) SessionStatus(c *fiber.Ctx) error {
	clientID := clientIDOf(c)
	body := fiber.Map{
		"client_id":     clientID,
		"authenticated": false,
		"resolution":    h.resolver.State(clientID),
	}
	if s, ok := h.gateway.CurrentUser(c.UserContext(), clientID); ok {
		body["authenticated"] = true
		body["user"] = fiber.Map{
			"email":     s.Email,
			"full_name": s.FullName,
			"role":      s.Role,
			"initial":   s.Initial(),
		}
	}
	return c.JSON(body)
}
