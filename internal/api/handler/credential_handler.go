package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/passop/passop-api/internal/api/metrics"
	"github.com/passop/passop-api/internal/core/domain"
	"github.com/passop/passop-api/internal/core/ports"
)

// CredentialHandler serves the owner-scoped credential routes. Every route
// must be mounted behind middleware.Auth.
type CredentialHandler struct {
	service ports.CredentialService
}

func NewCredentialHandler(service ports.CredentialService) *CredentialHandler {
	return &CredentialHandler{service: service}
}

// Add handles POST /add.
//
// @Summary      Store a credential
// @Tags         credentials
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addCredentialRequest  true  "Credential"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /add [post]
func (h *CredentialHandler) Add(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req addCredentialRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := h.service.Add(c.Request().Context(), ports.AddCredentialInput{
		OwnerID:  userID,
		Site:     req.Site,
		Username: req.Username,
		Password: req.Password,
	}); err != nil {
		return err
	}

	metrics.CredentialsCreatedTotal.Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Password Saved"})
}

// List handles GET /passwords.
//
// @Summary      List the caller's credentials
// @Tags         credentials
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   credentialResponse
// @Failure      401  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /passwords [get]
func (h *CredentialHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	items, err := h.service.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toCredentialResponses(items))
}

// Delete handles DELETE /delete/:id. Ids that are unknown or owned by someone
// else are ignored and still answered with 200.
//
// @Summary      Delete a credential
// @Tags         credentials
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Credential id"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /delete/{id} [delete]
func (h *CredentialHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	deleted, err := h.service.Delete(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}

	if deleted {
		metrics.CredentialsDeletedTotal.WithLabelValues(metrics.ResultDeleted).Inc()
	} else {
		metrics.CredentialsDeletedTotal.WithLabelValues(metrics.ResultNoop).Inc()
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Deleted Successfully"})
}

func toCredentialResponses(items []*domain.Credential) []credentialResponse {
	out := make([]credentialResponse, 0, len(items))
	for _, it := range items {
		out = append(out, credentialResponse{
			ID:        it.ID,
			UserID:    it.OwnerID,
			Site:      it.Site,
			Username:  it.Username,
			Password:  it.Password,
			CreatedAt: it.CreatedAt,
		})
	}
	return out
}
