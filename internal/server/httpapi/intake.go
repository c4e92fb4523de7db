package httpapi

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/feedbackhub/internal/logging"
	"github.com/dmitrijs2005/feedbackhub/internal/server/services"
)

type intakeHandler struct {
	intake *services.IntakeService
	logger logging.Logger
}

func registerIntakeRoutes(e *echo.Echo, intake *services.IntakeService, logger logging.Logger) {
	h := &intakeHandler{intake: intake, logger: logger}

	e.GET("/", h.home)
	e.POST("/enter_code", h.enterCode)
	e.POST("/submit", h.submit)
}

// formPage is the data of code_or_form.html.
type formPage struct {
	ShowForm        bool
	InstitutionCode string
	OfficialName    string
	Error           string
	Errors          map[string]string
	Subject         string
	Text            string
	SecretText      string
	Tags            string
	MaxAttachments  int
}

func (h *intakeHandler) home(c echo.Context) error {
	return c.Render(http.StatusOK, "code_or_form.html", formPage{MaxAttachments: services.MaxAttachments})
}

func (h *intakeHandler) enterCode(c echo.Context) error {
	code := strings.TrimSpace(c.FormValue("code"))

	inst, err := h.intake.EnterCode(c.Request().Context(), code)
	var rejected *services.RejectedError
	if errors.As(err, &rejected) {
		return c.Render(http.StatusBadRequest, "code_or_form.html", formPage{
			InstitutionCode: code,
			Error:           "Invalid institution code.",
			MaxAttachments:  services.MaxAttachments,
		})
	}
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "code_or_form.html", formPage{
		ShowForm:        true,
		InstitutionCode: inst.Code,
		OfficialName:    inst.OfficialName,
		MaxAttachments:  services.MaxAttachments,
	})
}

type submitResponse struct {
	ID          int64  `json:"id"`
	Lang        string `json:"lang"`
	Sentiment   string `json:"sentiment"`
	Spam        bool   `json:"spam"`
	Score       string `json:"score"`
	Attachments int    `json:"attachments"`
}

func (h *intakeHandler) submit(c echo.Context) error {
	sub := services.Submission{
		InstitutionCode: c.FormValue("institution_code"),
		Subject:         c.FormValue("subject"),
		Text:            c.FormValue("text"),
		SecretText:      c.FormValue("secret_text"),
		Tags:            c.FormValue("tags"),
	}

	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["files"] {
			sub.Files = append(sub.Files, upload(fh))
		}
	} else if !errors.Is(err, http.ErrNotMultipart) {
		return err
	}

	receipt, err := h.intake.Submit(c.Request().Context(), sub)
	var rejected *services.RejectedError
	if errors.As(err, &rejected) {
		if wantsJSON(c) {
			return err
		}
		return c.Render(http.StatusBadRequest, "code_or_form.html", formPage{
			ShowForm:        true,
			InstitutionCode: strings.TrimSpace(sub.InstitutionCode),
			Error:           "Please correct the highlighted fields.",
			Errors:          rejected.Fields,
			Subject:         sub.Subject,
			Text:            sub.Text,
			SecretText:      sub.SecretText,
			Tags:            sub.Tags,
			MaxAttachments:  services.MaxAttachments,
		})
	}
	if err != nil {
		return err
	}

	resp := submitResponse{
		ID:          receipt.FeedbackID,
		Lang:        receipt.Lang,
		Sentiment:   receipt.Sentiment,
		Spam:        receipt.Spam,
		Score:       formatScore(receipt.Score),
		Attachments: len(receipt.Attachments),
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, resp)
	}
	return c.Render(http.StatusOK, "success.html", resp)
}

func upload(fh *multipart.FileHeader) services.Upload {
	return services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
