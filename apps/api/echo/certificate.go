package echoapi

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-certs/core"
	"github.com/trezcool/masomo-certs/core/certificate"
)

type (
	certificateAPI struct {
		svc *certificate.Service
	}

	generateResponse struct {
		ID    string `json:"id"`
		Image string `json:"image"`
	}

	uploadAllResponse struct {
		Outcomes []certificate.UploadOutcome `json:"outcomes"`
		Failed   int                         `json:"failed"`
	}
)

func registerCertificateAPI(group *echo.Group, svc *certificate.Service) {
	api := certificateAPI{svc: svc}

	g := group.Group("/certificates")
	g.POST("", api.generate)
	g.GET("", api.list)
	g.DELETE("", api.prune)
	g.POST("/upload", api.uploadAll)
	g.GET("/:id", api.fetch)
	g.GET("/:id/image", api.image)
	g.POST("/:id/upload", api.upload)
	g.GET("/:id/document", api.document)
}

func (api certificateAPI) generate(ctx echo.Context) error {
	var req generateRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(req); err != nil {
		return err
	}

	f := req.fields()
	if core.CleanString(f.CertificateID) == "" {
		f.CertificateID = uuid.NewString()
	}
	if core.CleanString(f.IssueDate) == "" {
		f.IssueDate = certificate.NowFunc().Format("2006-01-02")
	}

	img, err := api.svc.Generate(ctx.Request().Context(), f)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, generateResponse{ID: f.CertificateID, Image: img})
}

// list omits images; they are served by the image endpoint.
func (api certificateAPI) list(ctx echo.Context) error {
	records, err := api.svc.ListAll(ctx.Request().Context())
	if err != nil {
		return err
	}
	for i := range records {
		records[i].Image = ""
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api certificateAPI) prune(ctx echo.Context) error {
	var params pruneParams
	if err := params.Bind(ctx); err != nil {
		return err
	}
	removed, err := api.svc.Prune(ctx.Request().Context(), params.OlderThan)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"removed": removed})
}

func (api certificateAPI) uploadAll(ctx echo.Context) error {
	var params uploadAllParams
	if err := params.Bind(ctx); err != nil {
		return err
	}
	outcomes, err := api.svc.UploadAll(ctx.Request().Context(), params.Concurrency)
	if err != nil {
		return err
	}

	res := uploadAllResponse{Outcomes: outcomes}
	for _, out := range outcomes {
		if out.Error != "" {
			res.Failed++
		}
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api certificateAPI) fetch(ctx echo.Context) error {
	rec, ok, err := api.svc.Fetch(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if !ok {
		return certificate.ErrNotFound
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api certificateAPI) image(ctx echo.Context) error {
	img, err := api.svc.Image(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.Blob(http.StatusOK, "image/png", img)
}

func (api certificateAPI) upload(ctx echo.Context) error {
	result, err := api.svc.Upload(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, result)
}

// attachmentSink sends exported documents as HTTP downloads.
type attachmentSink struct {
	ctx echo.Context
}

func (s attachmentSink) SaveDocument(filename string, content []byte) error {
	s.ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return s.ctx.Blob(http.StatusOK, "application/pdf", content)
}

func (api certificateAPI) document(ctx echo.Context) error {
	return api.svc.ExportDocument(ctx.Request().Context(), ctx.Param("id"), attachmentSink{ctx: ctx})
}
