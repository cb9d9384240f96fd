package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-certs/core/certificate"
)

const defaultUploadConcurrency = 4

type (
	// generateRequest fields are display text, stored & drawn as sent.
	// Only the ID is checked: it must be usable as a path segment.
	generateRequest struct {
		UserName      string `json:"userName"`
		CourseName    string `json:"courseName"`
		IssueDate     string `json:"issueDate"`
		CertificateID string `json:"certificateId" validate:"omitempty,max=128,excludesall=/?#"`
		ShareLink     string `json:"shareLink"`
	}

	uploadAllParams struct {
		Concurrency int `json:"concurrency" validate:"min=1,max=32"`
	}

	pruneParams struct {
		OlderThan time.Duration `json:"older_than" validate:"required,gt=0"`
	}
)

func (r generateRequest) fields() certificate.Fields {
	return certificate.Fields{
		UserName:      r.UserName,
		CourseName:    r.CourseName,
		IssueDate:     r.IssueDate,
		CertificateID: r.CertificateID,
		ShareLink:     r.ShareLink,
	}
}

func (p *uploadAllParams) Bind(ctx echo.Context) error {
	p.Concurrency = defaultUploadConcurrency
	if err := echo.QueryParamsBinder(ctx).Int("concurrency", &p.Concurrency).BindError(); err != nil {
		return err
	}
	return ctx.Validate(p)
}

func (p *pruneParams) Bind(ctx echo.Context) error {
	if err := echo.QueryParamsBinder(ctx).Duration("older_than", &p.OlderThan).BindError(); err != nil {
		return err
	}
	return ctx.Validate(p)
}
