package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"personal-info-parser/internal/app"
	"personal-info-parser/internal/httputil"
	"personal-info-parser/internal/model"
)

// multipart framing on top of the file itself
const multipartOverhead = 1 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": "image/jpeg",
	"image/jpg":  "image/jpeg",
	"image/png":  "image/png",
}

type parseRequest struct {
	InputText *string `json:"input_text" validate:"required"`
}

type parseResponse struct {
	InputText     *string             `json:"input_text"`
	PersonalInfo  model.PersonalInfo  `json:"personal_info"`
	Confidence    float64             `json:"confidence"`
	SourceType    model.SourceType    `json:"source_type"`
	FailureReason model.FailureReason `json:"failure_reason,omitempty"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("personal info parser listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		deps.Log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("server stopped", "err", err)
	}
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log, httputil.RouterOptions{
		Timeout:        deps.Config.RequestTimeout,
		AllowedOrigins: deps.Config.AllowedOrigins,
	})

	r.Post("/api/personal-info/parse", parseHandler(deps))
	r.Post("/api/personal-info/parse-image", parseImageHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	r.Get("/openapi.json", openAPIHandler)
	r.Get("/swagger", htmlHandler(swaggerPage))
	r.Get("/redoc", htmlHandler(redocPage))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger", http.StatusTemporaryRedirect)
	})
	return r
}

func parseHandler(deps app.Deps) http.HandlerFunc {
	maxLen := deps.Config.MaxInputTextLength

	return func(w http.ResponseWriter, r *http.Request) {
		var req parseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		if maxLen > 0 {
			if err := httputil.Validator.Var(*req.InputText, fmt.Sprintf("max=%d", maxLen)); err != nil {
				httputil.Fail(deps.Log, w, fmt.Sprintf("input_text too long (max %d characters)", maxLen), err, http.StatusBadRequest)
				return
			}
		}

		res := deps.Extractor.ExtractText(r.Context(), *req.InputText)
		httputil.WriteJSON(w, http.StatusOK, newParseResponse(req.InputText, res))
	}
}

func parseImageHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		// Validate file size before parsing
		if r.ContentLength > maxFileSize+multipartOverhead {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+multipartOverhead)

		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), err, http.StatusBadRequest)
				return
			}
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		mimeType, ok := imageMIMEType(header.Header.Get("Content-Type"), header.Filename)
		if !ok {
			httputil.Fail(deps.Log, w, "unsupported file type (only JPEG and PNG allowed)", nil, http.StatusBadRequest)
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		if len(data) == 0 {
			httputil.Fail(deps.Log, w, "file is empty", nil, http.StatusBadRequest)
			return
		}

		res := deps.Extractor.ExtractImage(r.Context(), data, mimeType)
		httputil.WriteJSON(w, http.StatusOK, newParseResponse(nil, res))
	}
}

// imageMIMEType resolves the canonical MIME type of an upload, detecting it from the
// filename when the part carries no Content-Type.
func imageMIMEType(contentType, filename string) (string, bool) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if contentType == "" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		default:
			return "", false
		}
	}
	canonical, ok := allowedImageTypes[contentType]
	return canonical, ok
}

func newParseResponse(input *string, res model.Result) parseResponse {
	return parseResponse{
		InputText:     input,
		PersonalInfo:  res.Info,
		Confidence:    res.Confidence,
		SourceType:    res.Source,
		FailureReason: res.Failure,
	}
}
