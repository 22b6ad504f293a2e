package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wekeza/investment-platform/internal/core/ports"
)

type SectorHandler struct {
	sectors ports.SectorRepository
}

func NewSectorHandler(sectors ports.SectorRepository) *SectorHandler {
	return &SectorHandler{sectors: sectors}
}

// List returns the sector catalogue. Public reference data, no auth.
//
// @Summary      List sectors
// @Tags         sectors
// @Produce      json
// @Success      200  {array}   domain.Sector
// @Failure      500  {object}  errorResponse
// @Router       /api/auth/sectors/ [get]
func (h *SectorHandler) List(c echo.Context) error {
	sectors, err := h.sectors.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sectors)
}
