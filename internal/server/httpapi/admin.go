package httpapi

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/feedbackhub/internal/common"
	"github.com/dmitrijs2005/feedbackhub/internal/logging"
	"github.com/dmitrijs2005/feedbackhub/internal/server/classify"
	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
	"github.com/dmitrijs2005/feedbackhub/internal/server/services"
)

const headerHXTrigger = "HX-Trigger"

type adminHandler struct {
	institutions *services.InstitutionService
	admins       *services.AdminService
	retrieval    *services.RetrievalService
	logger       logging.Logger
}

func registerAdminRoutes(g *echo.Group, opts *Options, logger logging.Logger) {
	h := &adminHandler{
		institutions: opts.Institutions,
		admins:       opts.Admins,
		retrieval:    opts.Retrieval,
		logger:       logger,
	}

	g.GET("", h.panel)
	g.GET("/feedbacks", h.feedbacks)
	g.GET("/add_institution", h.addInstitutionForm)
	g.POST("/add_institution", h.addInstitution)
	g.GET("/institutions_options", h.institutionsOptions)
	g.GET("/institutions_list", h.institutionsList)
	g.GET("/change_password", h.changePasswordForm)
	g.POST("/change_password", h.changePassword)
	g.POST("/get_secret_text", h.secretText)
	g.GET("/attachments/:feedback_id", h.attachments)
	g.GET("/attachments/:feedback_id/:attachment_id", h.downloadAttachment)
}

type panelPage struct {
	User         string
	Institutions []*models.InstitutionStats
	Sentiments   []string
}

func (h *adminHandler) panel(c echo.Context) error {
	stats, err := h.institutions.ListWithStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "admin.html", panelPage{
		User:         currentAdmin(c),
		Institutions: stats,
		Sentiments:   classify.Labels,
	})
}

type feedbacksPage struct {
	Code      string
	Feedbacks []*models.Feedback
}

func (h *adminHandler) feedbacks(c echo.Context) error {
	code := c.QueryParam("code")
	rows, err := h.retrieval.List(c.Request().Context(), code, services.ParseFilter(c.QueryParams()))
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "feedbacks_table.html", feedbacksPage{
		Code:      strings.TrimSpace(code),
		Feedbacks: rows,
	})
}

type addInstitutionPage struct {
	Message string
	Error   string
	Name    string
}

func (h *adminHandler) addInstitutionForm(c echo.Context) error {
	return c.Render(http.StatusOK, "add_institution_form.html", addInstitutionPage{})
}

func (h *adminHandler) addInstitution(c echo.Context) error {
	name := c.FormValue("official_name")

	inst, err := h.institutions.Register(c.Request().Context(), name)
	var rejected *services.RejectedError
	if errors.As(err, &rejected) {
		msg := rejected.Reason
		if m, ok := rejected.Fields["official_name"]; ok {
			msg = m
		}
		return c.Render(http.StatusBadRequest, "add_institution_form.html", addInstitutionPage{Error: msg, Name: name})
	}
	if err != nil {
		return err
	}

	h.logger.Info(c.Request().Context(), "institution added", "code", inst.Code, "admin", currentAdmin(c))

	c.Response().Header().Set(headerHXTrigger, "institutionAdded")
	return c.Render(http.StatusOK, "add_institution_form.html", addInstitutionPage{
		Message: fmt.Sprintf("Institution %q added with code: %s", inst.OfficialName, inst.Code),
	})
}

func (h *adminHandler) institutionsOptions(c echo.Context) error {
	all, err := h.institutions.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "institutions_options.html", all)
}

func (h *adminHandler) institutionsList(c echo.Context) error {
	stats, err := h.institutions.ListWithStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "institutions_list.html", stats)
}

type changePasswordPage struct {
	User    string
	Error   string
	Errors  map[string]string
	Success string
}

func (h *adminHandler) changePasswordForm(c echo.Context) error {
	return c.Render(http.StatusOK, "change_password.html", changePasswordPage{User: currentAdmin(c)})
}

func (h *adminHandler) changePassword(c echo.Context) error {
	user := currentAdmin(c)

	err := h.admins.ChangePassword(c.Request().Context(), user,
		c.FormValue("old_password"), c.FormValue("new_password"), c.FormValue("confirm_password"))

	var rejected *services.RejectedError
	if errors.As(err, &rejected) {
		return c.Render(http.StatusBadRequest, "change_password.html", changePasswordPage{
			User:   user,
			Error:  "Password was not changed.",
			Errors: rejected.Fields,
		})
	}
	if err != nil {
		return err
	}

	h.logger.Info(c.Request().Context(), "admin password changed", "admin", user)
	return c.Render(http.StatusOK, "change_password.html", changePasswordPage{
		User:    user,
		Success: "Password changed successfully.",
	})
}

type secretRequest struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

type secretResponse struct {
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	SecretText      string `json:"secret_text,omitempty"`
	SecretSentiment string `json:"secret_sentiment,omitempty"`
	SecretSpam      bool   `json:"secret_spam"`
}

func (h *adminHandler) secretText(c echo.Context) error {
	var req secretRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, secretResponse{Error: "malformed request"})
	}

	view, err := h.retrieval.RevealSecret(c.Request().Context(), req.ID, req.Code, req.Password)
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return c.JSON(http.StatusForbidden, secretResponse{Error: "wrong passphrase"})
	case errors.Is(err, common.ErrorNotFound):
		return c.JSON(http.StatusNotFound, secretResponse{Error: "not found"})
	case err != nil:
		return err
	}

	return c.JSON(http.StatusOK, secretResponse{
		Success:         true,
		SecretText:      view.SecretText,
		SecretSentiment: view.SecretSentiment,
		SecretSpam:      view.SecretSpam,
	})
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func (h *adminHandler) attachments(c echo.Context) error {
	feedbackID, err := pathID(c, "feedback_id")
	if err != nil {
		return err
	}

	atts, err := h.retrieval.Attachments(c.Request().Context(), feedbackID, c.QueryParam("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, atts)
}

func (h *adminHandler) downloadAttachment(c echo.Context) error {
	feedbackID, err := pathID(c, "feedback_id")
	if err != nil {
		return err
	}
	attachmentID, err := pathID(c, "attachment_id")
	if err != nil {
		return err
	}

	att, rc, err := h.retrieval.OpenAttachment(c.Request().Context(), attachmentID, c.QueryParam("code"))
	if err != nil {
		return err
	}
	defer rc.Close()

	if att.FeedbackID != feedbackID {
		return errHttpNotFound
	}

	ct := att.ContentType
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": att.Filename}))
	return c.Stream(http.StatusOK, ct, rc)
}
