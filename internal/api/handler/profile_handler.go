package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wekeza/investment-platform/internal/core/ports"
)

type ProfileHandler struct {
	authService ports.AuthService
}

func NewProfileHandler(authService ports.AuthService) *ProfileHandler {
	return &ProfileHandler{authService: authService}
}

// updateProfileRequest is a partial update; absent fields stay unchanged.
// Which fields apply depends on the caller's role: interests is investor-only,
// business_name and category are business-only.
type updateProfileRequest struct {
	ContactInfo  *string `json:"contact_info"`
	AddressInfo  *string `json:"address_info"`
	IsLocal      *bool   `json:"is_local"`
	Avatar       *string `json:"avatar"`
	Interests    []int64 `json:"interests"`
	BusinessName *string `json:"business_name"`
	Category     *int64  `json:"category"`
}

// Get returns the authenticated user's full record.
//
// @Summary      Get own profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/auth/profile/ [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// Update applies a partial profile update and returns the updated record.
//
// @Summary      Update own profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Partial profile fields"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/auth/profile/ [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.authService.UpdateProfile(c.Request().Context(), userID, ports.ProfileUpdateInput{
		ContactInfo:  req.ContactInfo,
		AddressInfo:  req.AddressInfo,
		IsLocal:      req.IsLocal,
		Avatar:       req.Avatar,
		Interests:    req.Interests,
		BusinessName: req.BusinessName,
		Category:     req.Category,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}
