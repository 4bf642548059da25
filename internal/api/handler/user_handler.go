package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tabify/order-sync/internal/core/ports"
)

// UserHandler handles user registration and session restore.
type UserHandler struct {
	identity ports.IdentityService
}

func NewUserHandler(identity ports.IdentityService) *UserHandler {
	return &UserHandler{identity: identity}
}

// Register handles POST /users/register.
//
// Registration is idempotent by phone number: posting an existing phone
// restores the stored user (with its session credential) instead of
// creating a duplicate. The response always carries the session key the
// client should present on subsequent requests.
//
// @Summary      Register or restore a user by phone number
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /users/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.identity.Register(c.Request().Context(), req.Name, req.Phone, req.Role)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, registerResponse{Success: true, User: user})
}
