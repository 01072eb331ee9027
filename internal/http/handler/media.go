package handler

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"studioapi/internal/model"
	"studioapi/internal/service"
)

type deleteMediaRequest struct {
	Assets []model.Asset `json:"assets"`
}

// UploadMedia accepts multipart "file" or "files" fields plus a "folder" value
// and uploads them concurrently.
func UploadMedia(svc service.Media) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "multipart form is required")
		}

		var headers []*multipart.FileHeader
		headers = append(headers, form.File["file"]...)
		headers = append(headers, form.File["files"]...)

		files := make([]service.UploadFile, 0, len(headers))
		for _, fh := range headers {
			files = append(files, service.UploadFile{
				Name:        fh.Filename,
				ContentType: fh.Header.Get(fiber.HeaderContentType),
				Size:        fh.Size,
				Open: func() (io.ReadCloser, error) {
					return fh.Open()
				},
			})
		}

		assets, err := svc.Upload(c.UserContext(), c.FormValue("folder"), files)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": assets})
	}
}

// DeleteMedia destroys the assets named in the JSON body.
func DeleteMedia(svc service.Media) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req deleteMediaRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		if len(req.Assets) == 0 {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "assets are required")
		}
		if err := svc.Delete(c.UserContext(), req.Assets); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
