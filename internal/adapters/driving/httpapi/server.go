package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// UploadDir is the directory under the data directory that receives uploads.
const UploadDir = "uploaded_files"

const (
	maxUploadSize   = "64M"
	shutdownTimeout = 10 * time.Second
)

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	// Knowledge adds files and answers questions.
	Knowledge driving.KnowledgeService

	// Chat routes free-form messages. Optional; /chat answers 503 without it.
	Chat driving.ChatService
}

// Server is the HTTP API server.
type Server struct {
	ports     *Ports
	uploadDir string
	echo      *echo.Echo
}

// NewServer creates the API. Uploaded files are saved under uploadDir before
// being ingested; the directory is created on the first upload.
func NewServer(ports *Ports, uploadDir string) (*Server, error) {
	if ports == nil || ports.Knowledge == nil {
		return nil, ErrMissingKnowledgeService
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("%s %s %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	s := &Server{
		ports:     ports,
		uploadDir: uploadDir,
		echo:      e,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.echo.GET("/health", s.health)
	s.echo.GET("/stats", s.stats)
	s.echo.POST("/upload", s.upload, middleware.BodyLimit(maxUploadSize))
	s.echo.POST("/ask", s.ask)
	s.echo.POST("/chat", s.chat)
}

// Mount serves h for every method under prefix, e.g. the MCP transport at /mcp.
func (s *Server) Mount(prefix string, h http.Handler) {
	wrapped := echo.WrapHandler(h)
	s.echo.Any(prefix, wrapped)
	s.echo.Any(prefix+"/*", wrapped)
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

type askRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type chunkResponse struct {
	ChunkID  string         `json:"chunk_id"`
	Source   string         `json:"source"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type askResponse struct {
	Response           string          `json:"response"`
	SourceChunks       []chunkResponse `json:"source_chunks"`
	EmptyKnowledgeBase bool            `json:"empty_knowledge_base,omitempty"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response     string          `json:"response"`
	Route        string          `json:"route"`
	SourceChunks []chunkResponse `json:"source_chunks,omitempty"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) stats(c echo.Context) error {
	stats, err := s.ports.Knowledge.Stats(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, fmt.Errorf("%w: multipart field \"file\" is required", domain.ErrInvalidInput))
	}

	name := filepath.Base(fh.Filename)
	if name == "." || name == string(filepath.Separator) {
		return fail(c, fmt.Errorf("%w: upload has no file name", domain.ErrInvalidInput))
	}
	// Reject before touching the disk.
	if _, err := domain.FormatFromPath(name); err != nil {
		return fail(c, domain.NewError(domain.KindUnsupportedFormat, "upload", err))
	}

	path, err := s.save(fh, name)
	if err != nil {
		return fail(c, err)
	}
	logger.Info("Saved upload %s", path)

	result, err := s.ports.Knowledge.AddFile(c.Request().Context(), path)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": result.Message})
}

// save copies an uploaded file into the upload directory, replacing any
// earlier upload with the same name.
func (s *Server) save(fh *multipart.FileHeader, name string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0700); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	defer src.Close()

	path := filepath.Join(s.uploadDir, name)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("saving upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	return path, nil
}

func (s *Server) ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, fmt.Errorf("%w: invalid json", domain.ErrInvalidInput))
	}

	answer, err := s.ports.Knowledge.Ask(c.Request().Context(), req.Query, domain.AskOptions{TopK: req.TopK})
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, askResponse{
		Response:           answer.Response,
		SourceChunks:       toChunkResponses(answer.Sources),
		EmptyKnowledgeBase: answer.EmptyKnowledgeBase,
	})
}

func (s *Server) chat(c echo.Context) error {
	if s.ports.Chat == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "chat is not configured"})
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, fmt.Errorf("%w: invalid json", domain.ErrInvalidInput))
	}

	reply, err := s.ports.Chat.Chat(c.Request().Context(), req.Message)
	if err != nil {
		return fail(c, err)
	}

	resp := chatResponse{Response: reply.Response, Route: string(reply.Route)}
	if reply.Answer != nil && len(reply.Answer.Sources) > 0 {
		resp.SourceChunks = toChunkResponses(reply.Answer.Sources)
	}
	return c.JSON(http.StatusOK, resp)
}

func toChunkResponses(chunks []domain.RetrievedChunk) []chunkResponse {
	out := make([]chunkResponse, len(chunks))
	for i := range chunks {
		out[i] = chunkResponse{
			ChunkID:  chunks[i].ID,
			Source:   chunks[i].Source,
			Content:  chunks[i].Content,
			Score:    chunks[i].Score,
			Metadata: chunks[i].Metadata,
		}
	}
	return out
}
