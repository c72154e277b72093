package handler

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"converterapi/internal/docx"
	"converterapi/internal/http/response"
	"converterapi/internal/service"
)

const (
	// DownloadPrefix is the route prefix of converted artifacts.
	DownloadPrefix = "/word_to_ppt/download/"

	msgNoFile           = "No file provided."
	msgInvalidFileType  = "Invalid file type. Only .docx files are supported."
	msgInvalidName      = "Invalid file name."
	msgTooLarge         = "The document is too large."
	msgConverted        = "Conversion successful."
	msgConversionFailed = "An error occurred during conversion."
	msgFileNotFound     = "File not found."
	msgDownloadFailed   = "An error occurred during download."
)

// ConversionResult is the data payload of a successful conversion.
type ConversionResult struct {
	PPTFile     string `json:"ppt_file" example:"/srv/ppt/report.pptx"`
	DownloadURL string `json:"download_url" example:"/word_to_ppt/download/report"`
	Slides      int    `json:"slides" example:"4"`
}

// ConvertDocument godoc
// @Summary     Convert a Word document to a presentation
// @Description Every body paragraph becomes a title slide. The result is stored under the document's base name.
// @Tags        word_to_ppt
// @Accept      multipart/form-data
// @Produce     json
// @Param       file formData file true "Word document (.docx)"
// @Success     200 {object} response.Envelope{data=ConversionResult}
// @Failure     400 {object} response.Envelope{data=response.ErrorData}
// @Failure     413 {object} response.Envelope{data=response.ErrorData}
// @Failure     500 {object} response.Envelope{data=response.ErrorData}
// @Router      /word_to_ppt/convert [post]
func ConvertDocument(svc service.ConverterService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return response.Send(c, response.Error(fiber.StatusBadRequest, msgNoFile, "File not found"))
		}

		// Reject by name before touching the payload.
		if _, err := service.ArtifactName(fh.Filename); err != nil {
			return response.Send(c, classify(err, msgConversionFailed))
		}

		f, err := fh.Open()
		if err != nil {
			return response.Send(c, classify(err, msgConversionFailed))
		}
		defer f.Close()

		art, err := svc.Convert(c.UserContext(), f, fh.Filename)
		if err != nil {
			return response.Send(c, classify(err, msgConversionFailed))
		}

		return response.Send(c, response.Success(fiber.StatusOK, msgConverted, ConversionResult{
			PPTFile:     art.Path,
			DownloadURL: DownloadPrefix + url.PathEscape(art.Name),
			Slides:      art.SlideCount,
		}))
	}
}

// DownloadArtifact godoc
// @Summary     Download a converted presentation
// @Tags        word_to_ppt
// @Produce     application/vnd.openxmlformats-officedocument.presentationml.presentation
// @Param       file_name path string true "Artifact name without extension"
// @Success     200 {file} binary
// @Failure     400 {object} response.Envelope{data=response.ErrorData}
// @Failure     404 {object} response.Envelope{data=response.ErrorData}
// @Failure     500 {object} response.Envelope{data=response.ErrorData}
// @Router      /word_to_ppt/download/{file_name} [get]
func DownloadArtifact(svc service.ConverterService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("file_name"))
		if err != nil {
			return response.Send(c, classify(service.ErrInvalidName, msgDownloadFailed))
		}

		rc, art, err := svc.Open(c.UserContext(), name)
		if err != nil {
			return response.Send(c, classify(err, msgDownloadFailed))
		}

		size := -1
		if art.Size > 0 {
			size = int(art.Size)
		}
		c.Set(fiber.HeaderContentType, art.ContentType)
		c.Set(fiber.HeaderContentDisposition, "attachment; filename="+art.Filename)
		// fasthttp closes rc once the body has been written.
		return c.SendStream(rc, size)
	}
}

// classify maps a conversion or download error to its envelope.
// fallback is the message used for unexpected failures.
func classify(err error, fallback string) response.Envelope {
	switch {
	case errors.Is(err, service.ErrInvalidFileType):
		return response.Error(fiber.StatusBadRequest, msgInvalidFileType, "Invalid file type")
	case errors.Is(err, service.ErrInvalidName):
		return response.Error(fiber.StatusBadRequest, msgInvalidName, "Invalid file name")
	case errors.Is(err, service.ErrNotFound):
		return response.Error(fiber.StatusNotFound, msgFileNotFound, "File not found")
	case errors.Is(err, docx.ErrTooLarge):
		return response.Error(fiber.StatusRequestEntityTooLarge, msgTooLarge, err.Error())
	default:
		return response.Error(fiber.StatusInternalServerError, fallback, err.Error())
	}
}
