package routers

import (
	"errors"
	"net/http"

	"deepseek-ocr-api/internal/ctx"
	"deepseek-ocr-api/internal/handlers/ocr"
	"deepseek-ocr-api/internal/shared"

	"github.com/labstack/echo/v4"
)

type OCRRouter struct {
	om *ocr.OCRManager
}

func RegisterOCRRoutes(e *echo.Group, om *ocr.OCRManager) {
	r := &OCRRouter{om: om}

	api := e.Group("/api/ocr")
	api.POST("", r.Relay)
	api.POST("/mock", r.Mock)
	api.GET("/health", r.Health)
	api.GET("/models", r.GetModels)
}

type relayFunc func(ocr.OCRInput) (*shared.OCRResponse, *shared.RequestError)

func (r *OCRRouter) Relay(cc echo.Context) error {
	return r.handle(cc, r.om.Relay)
}

func (r *OCRRouter) Mock(cc echo.Context) error {
	return r.handle(cc, r.om.Mock)
}

func (r *OCRRouter) handle(cc echo.Context, relay relayFunc) error {
	c := cc.(*ctx.Context)
	req, rerr := decodeOCRRequest(c)
	if rerr != nil {
		return sendOCRError(c, rerr)
	}
	c.LogValues.Model = r.om.Model
	c.LogValues.ImageCount = len(req.Images)

	res, rerr := relay(ocr.OCRInput{
		Ctx:       c.Request().Context(),
		Req:       req,
		RequestID: c.Reqid,
		Log:       c.Log,
	})
	if rerr != nil {
		return sendOCRError(c, rerr)
	}
	return c.JSON(http.StatusOK, res)
}

func (r *OCRRouter) Health(cc echo.Context) error {
	c := cc.(*ctx.Context)
	status := r.om.Health(c.Request().Context())
	if !status.Healthy {
		c.LogValues.AddError(errors.New(status.Error))
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}

func (r *OCRRouter) GetModels(cc echo.Context) error {
	c := cc.(*ctx.Context)
	models, err := r.om.ListModels(c.Request().Context())
	if err != nil {
		c.LogValues.AddError(err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Failed to get models"})
	}
	return c.JSON(http.StatusOK, models)
}
