package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rezonia/afip-bill/internal/model"
	"github.com/rezonia/afip-bill/internal/registry"
	"github.com/rezonia/afip-bill/internal/render"
	"github.com/rezonia/afip-bill/internal/templates"
	"github.com/rezonia/afip-bill/pkg/afipbill"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// Config holds server configuration
type Config struct {
	Address       string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	RenderTimeout time.Duration
	Debug         bool

	// Rendering dependencies. Nil values fall back to the built-in defaults.
	SalePoint      string
	Registry       *registry.Registry
	Templates      *templates.Set
	Backend        render.Backend
	RenderOptions  *render.Options
	DefaultTaxRate *decimal.Decimal
	Logger         *zap.Logger
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	logger   *zap.Logger
	registry *registry.Registry
	tmpl     *templates.Set
	backend  render.Backend
}

// NewServer creates a new API server
func NewServer(config *Config) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := config.Registry
	if reg == nil {
		reg = registry.Default()
	}
	tmpl := config.Templates
	if tmpl == nil {
		tmpl = templates.Default()
	}
	backend := config.Backend
	if backend == nil {
		backend = render.NewWKHTMLToPDF("")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(accessLog(logger))

	s := &Server{
		config:   config,
		router:   router,
		logger:   logger,
		registry: reg,
		tmpl:     tmpl,
		backend:  backend,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/document-types", s.handleDocumentTypes)
		v1.POST("/barcode", s.handleBarcode)

		v1.POST("/render/html", s.handleRenderHTML)
		v1.POST("/render/pdf", s.handleRenderPDF)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.logger.Info("server listening",
		zap.String("address", s.config.Address),
		zap.String("backend", s.backend.Name()))
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	ids, _ := s.tmpl.IDs()
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Time:      time.Now().UTC(),
		Backend:   s.backend.Name(),
		Templates: len(ids),
	})
}

func (s *Server) handleDocumentTypes(c *gin.Context) {
	entries := s.registry.Entries()
	c.JSON(http.StatusOK, DocumentTypesResponse{
		Count:         len(entries),
		DocumentTypes: entries,
	})
}

func (s *Server) handleBarcode(c *gin.Context) {
	g, ok := s.bindGenerator(c)
	if !ok {
		return
	}

	payload, err := g.Barcode()
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := BarcodeResponse{
		Barcode:    payload.String(),
		CheckDigit: string(payload.CheckDigit()),
		Length:     payload.Len(),
	}
	if c.Query("image") == "true" {
		uri, err := payload.DataURI(2, 60)
		if err != nil {
			s.writeError(c, err)
			return
		}
		resp.Image = uri
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRenderHTML(c *gin.Context) {
	g, ok := s.bindGenerator(c)
	if !ok {
		return
	}

	markup, err := g.RenderTemplate()
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(markup))
}

func (s *Server) handleRenderPDF(c *gin.Context) {
	var req RenderRequest
	g, ok := s.bindGeneratorInto(c, &req)
	if !ok {
		return
	}

	timeout := s.config.RenderTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	var data []byte
	var err error
	if len(req.Copies) > 0 {
		data, err = g.GenerateCopies(ctx, req.Copies...)
	} else {
		data, err = g.GeneratePDF(ctx)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	docType := g.DocumentType()
	filename := docType.Template + "_" + docType.Code + ".pdf"
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

func (s *Server) bindGenerator(c *gin.Context) (*afipbill.Generator, bool) {
	var req RenderRequest
	return s.bindGeneratorInto(c, &req)
}

func (s *Server) bindGeneratorInto(c *gin.Context, req *RenderRequest) (*afipbill.Generator, bool) {
	if err := c.ShouldBindJSON(req); err != nil {
		s.writeError(c, model.NewMalformedInputError("invalid request body", err))
		return nil, false
	}
	if len(req.Bill) == 0 {
		s.writeError(c, model.NewMissingFieldError("bill"))
		return nil, false
	}

	salePoint := req.SalePoint
	if salePoint == "" {
		salePoint = s.config.SalePoint
	}
	if salePoint == "" {
		salePoint = afipbill.CurrentConfiguration().SalePoint
	}

	opts := []afipbill.Option{
		afipbill.WithSalePoint(salePoint),
		afipbill.WithRegistry(s.registry),
		afipbill.WithTemplates(s.tmpl),
		afipbill.WithBackend(s.backend),
		afipbill.WithLogger(s.logger.With(zap.String(requestIDKey, c.GetString(requestIDKey)))),
	}
	if req.CopyLabel != "" {
		opts = append(opts, afipbill.WithCopyLabel(req.CopyLabel))
	}
	if s.config.RenderOptions != nil {
		opts = append(opts, afipbill.WithRenderOptions(*s.config.RenderOptions))
	}
	if s.config.DefaultTaxRate != nil {
		opts = append(opts, afipbill.WithDefaultTaxRate(*s.config.DefaultTaxRate))
	}

	var user any
	if req.User != nil {
		user = req.User
	}

	g, err := afipbill.New(req.Bill, user, req.LineItems, opts...)
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	return g, true
}

func (s *Server) writeError(c *gin.Context, err error) {
	resp := ErrorResponse{
		Error:     err.Error(),
		RequestID: c.GetString(requestIDKey),
	}

	var be *model.BillError
	if errors.As(err, &be) {
		resp.Code = be.Code
		resp.Field = be.Field
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String(requestIDKey, resp.RequestID),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, resp)
}

// statusFor maps bill error codes to HTTP statuses
func statusFor(err error) int {
	switch model.Code(err) {
	case model.ErrCodeMalformedInput:
		return http.StatusBadRequest
	case model.ErrCodeUnknownDocumentType:
		return http.StatusNotFound
	case model.ErrCodeMissingField, model.ErrCodeInvalidInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
