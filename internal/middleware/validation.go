package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "dapodiksync/internal/errors"
)

// UploadedFile describes one multipart file before it is read.
type UploadedFile struct {
	Name string `json:"name" validate:"required,filename,upload_ext"`
	Size int64  `json:"size" validate:"gt=0"`
}

// UploadLimits bound a multipart upload.
type UploadLimits struct {
	MaxFiles int
	MaxBytes int64
	// Extensions are lower-case with the leading dot.
	Extensions []string
}

// ValidationMiddleware provides request validation using struct tags
type ValidationMiddleware struct {
	validator    *validator.Validate
	limits       UploadLimits
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(limits UploadLimits, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New()

	m := &ValidationMiddleware{
		validator:    v,
		limits:       limits,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
	}

	v.RegisterValidation("filename", isValidFilename)
	v.RegisterValidation("upload_ext", m.hasAllowedExtension)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return m
}

// Limits returns the configured upload limits
func (m *ValidationMiddleware) Limits() UploadLimits {
	return m.limits
}

// LimitBody caps the request body. Multipart parsing then fails with *http.MaxBytesError,
// which ValidateUploadError maps to 413.
func (m *ValidationMiddleware) LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > m.limits.MaxBytes {
			m.errorHandler.HandleError(w, r, payloadTooLarge(m.limits.MaxBytes, r.ContentLength))
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, m.limits.MaxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// ValidateUploads checks the file count and each file's name and size.
func (m *ValidationMiddleware) ValidateUploads(files []UploadedFile) error {
	if len(files) == 0 {
		return apierrors.ErrNoFiles
	}

	var validationErrors []apierrors.ValidationError
	if err := m.validator.Var(len(files), fmt.Sprintf("max=%d", m.limits.MaxFiles)); err != nil {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   "files",
			Message: fmt.Sprintf("at most %d files may be uploaded at once", m.limits.MaxFiles),
		})
	}

	for i, f := range files {
		err := m.validator.Struct(f)
		if err == nil {
			continue
		}
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			validationErrors = append(validationErrors, apierrors.ValidationError{
				Field:   fmt.Sprintf("files[%d].%s", i, fe.Field()),
				Message: m.formatValidationError(fe, f),
			})
		}
	}

	if len(validationErrors) > 0 {
		return apierrors.NewValidationErrors(validationErrors)
	}
	return nil
}

// ValidateUploadError converts a multipart parsing failure into an API error.
func ValidateUploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return payloadTooLarge(tooLarge.Limit, -1)
	}
	if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
		return apierrors.New(http.StatusBadRequest, "INVALID_REQUEST", "Request must be multipart/form-data")
	}
	return apierrors.InvalidRequestWithError(err)
}

func payloadTooLarge(limit, size int64) *apierrors.APIError {
	details := map[string]interface{}{"max_size": limit}
	if size >= 0 {
		details["size"] = size
	}
	return apierrors.NewWithDetails(
		http.StatusRequestEntityTooLarge,
		"PAYLOAD_TOO_LARGE",
		"Upload exceeds the maximum allowed size",
		details,
	)
}

// ContentTypeValidator ensures requests have proper content type
func ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, apierrors.New(
					http.StatusBadRequest,
					"MISSING_CONTENT_TYPE",
					"Content-Type header is required",
				))
				return
			}

			for _, allowed := range contentTypes {
				if strings.HasPrefix(contentType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			render.Status(r, http.StatusUnsupportedMediaType)
			render.JSON(w, r, apierrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				"UNSUPPORTED_MEDIA_TYPE",
				"Unsupported content type",
				map[string]interface{}{
					"content_type": contentType,
					"allowed":      contentTypes,
				},
			))
		})
	}
}

// formatValidationError formats validation error messages
func (m *ValidationMiddleware) formatValidationError(err validator.FieldError, f UploadedFile) string {
	field := err.Field()
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s is empty", f.Name)
	case "filename":
		return fmt.Sprintf("%q is not a valid file name", f.Name)
	case "upload_ext":
		return fmt.Sprintf("%s must be one of: %s", f.Name, strings.Join(m.limits.Extensions, ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

func (m *ValidationMiddleware) hasAllowedExtension(fl validator.FieldLevel) bool {
	ext := strings.ToLower(filepath.Ext(fl.Field().String()))
	for _, allowed := range m.limits.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// isValidFilename rejects path components
func isValidFilename(fl validator.FieldLevel) bool {
	filename := fl.Field().String()
	if filename == "" {
		return false
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return false
	}
	return len(filename) <= 255
}
