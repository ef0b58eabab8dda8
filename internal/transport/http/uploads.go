package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"dapodiksync/internal/middleware"
	"dapodiksync/internal/services"
)

// uploadField is the multipart field carrying the files.
const uploadField = "files"

// multipartMemory is how much of a form is kept in memory before spilling to temp files.
const multipartMemory = 8 << 20

// readUploads parses the multipart form, validates the file list and reads every file.
func readUploads(r *http.Request, v *middleware.ValidationMiddleware) ([]services.Upload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, middleware.ValidateUploadError(err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadField]
	files := make([]middleware.UploadedFile, len(headers))
	for i, fh := range headers {
		files[i] = middleware.UploadedFile{Name: fh.Filename, Size: fh.Size}
	}
	if err := v.ValidateUploads(files); err != nil {
		return nil, err
	}

	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, services.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}

// writeAttachment sends data as a file download.
func writeAttachment(w http.ResponseWriter, art services.Artifact, skipped int) error {
	if art.Err != nil {
		return art.Err
	}
	if len(art.Data) == 0 {
		return errors.New("empty artifact")
	}
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.Header().Set("X-Skipped-Files", strconv.Itoa(skipped))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(art.Data)
	return err
}
