package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/pprof"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/analysis"
	_ "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/apidocs"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/cache"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/config"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/database"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/ingest"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/middleware"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/report"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/security"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/types"
)

const version = "1.0.0"

// Server holds the dependencies shared by the HTTP handlers
type Server struct {
	cfg      *config.Config
	profiles *analysis.ProfileStore
	cache    *cache.Cache
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
	security *security.SecurityMiddleware
	auth     *security.AdminAuth
	gzip     *middleware.CompressionMiddleware

	// db and history are nil when run history is disabled
	db      *database.DB
	history *database.HistoryService
}

// analyzeResponse is the JSON body of a successful analysis; it is also the
// cached value.
type analyzeResponse struct {
	RunID  string           `json:"run_id"`
	Cached bool             `json:"cached"`
	Report *analysis.Report `json:"report"`
}

// analyzeInput is a request normalized from either the JSON or the multipart form
type analyzeInput struct {
	requirements string
	sprints      string
	profile      string
}

// NewServer wires the handlers. db may be nil to disable run history.
func NewServer(cfg *config.Config, db *database.DB, appCache *cache.Cache, metrics *monitoring.Metrics, logger *monitoring.Logger) *Server {
	securityConfig := security.DefaultSecurityConfig()
	securityConfig.MaxUploadBytes = cfg.MaxUploadBytes
	securityConfig.MaxRequestsPerMin = cfg.RatePerMin
	securityConfig.AllowedOrigins = cfg.CORSOrigins
	securityConfig.RequestTimeout = cfg.RequestTimeout

	s := &Server{
		cfg:      cfg,
		profiles: analysis.NewProfileStore(filepath.Join(cfg.DataDir, "profiles")),
		cache:    appCache,
		metrics:  metrics,
		logger:   logger,
		security: security.NewSecurityMiddleware(securityConfig, logger, metrics),
		auth:     security.NewAdminAuth(cfg.JWTSecret, logger),
		db:       db,
	}
	if cfg.Gzip {
		s.gzip = middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig())
	}
	if db != nil {
		s.history = database.NewHistoryService(database.NewRepository(db))
	}

	return s
}

// handlePprof dispatches one catch-all route to the pprof handlers
func handlePprof(c *gin.Context) {
	switch strings.TrimPrefix(c.Param("name"), "/") {
	case "cmdline":
		pprof.Cmdline(c.Writer, c.Request)
	case "profile":
		pprof.Profile(c.Writer, c.Request)
	case "symbol":
		pprof.Symbol(c.Writer, c.Request)
	case "trace":
		pprof.Trace(c.Writer, c.Request)
	default:
		pprof.Index(c.Writer, c.Request)
	}
}

// Router builds the gin engine with middleware and routes
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(s.security.Config().TrustedProxies); err != nil {
		s.logger.SystemLogger("trusted_proxies_rejected", err.Error())
	}

	// Monitoring first so every request is counted
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(s.logger))

	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.Use(security.SecurityHeadersMiddleware(s.cfg.HSTS))
	r.Use(security.CSPMiddleware(s.cfg.CSPReportURI))
	r.Use(s.security.CORS())
	r.Use(s.security.RequestTimeout)
	r.Use(s.security.ValidateContentType)
	r.Use(s.security.RateLimitByIP)
	r.Use(s.security.LimitBody)
	if s.gzip != nil {
		r.Use(s.gzip.Handler())
	}

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", func(c *gin.Context) {
		stats := s.metrics.GetStats()
		if s.gzip != nil {
			stats["compression"] = s.gzip.GetStats()
		}
		c.JSON(http.StatusOK, stats)
	})
	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.cache.Stats())
	})

	r.POST("/analyze", s.handleAnalyze)

	r.GET("/profiles", s.handleListProfiles)
	r.GET("/profiles/:name", s.handleGetProfile)
	r.PUT("/profiles/:name", s.auth.RequireAdmin(), s.handlePutProfile)

	if s.history != nil {
		r.GET("/runs", s.handleListRuns)
		r.GET("/runs/:id", s.handleGetRun)
		r.GET("/runs/:id/risk.csv", s.handleRunCSV)
		r.DELETE("/runs/:id", s.auth.RequireAdmin(), s.handleDeleteRun)

		r.GET("/pools/database", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"pool":  "database",
				"stats": s.db.GetPoolStats(),
			})
		})
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if s.cfg.Profiling {
		s.logger.SystemLogger("profiling_enabled", "mounting pprof endpoints")
		r.GET("/debug/pprof/*name", handlePprof)
	}

	return r
}

// respondError logs err and writes it as the AppError JSON body
func respondError(c *gin.Context, err error) {
	appErr := errors.ToAppError(err)
	errors.LogError(c, appErr)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
}

// profileError reports a bad scoring profile as a client error
func profileError(err error) error {
	appErr := errors.ToAppError(err)
	if appErr.Category == errors.CategoryConfiguration {
		appErr.HTTPStatus = http.StatusBadRequest
	}
	return appErr
}

func tooLarge(limit int64) error {
	appErr := errors.NewValidationError("request body exceeds the upload limit",
		"limit_bytes="+strconv.FormatInt(limit, 10))
	appErr.HTTPStatus = http.StatusRequestEntityTooLarge
	return appErr
}

// handleHealth godoc
// @Summary      Service health
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
		"history":   s.history != nil,
		"metrics":   s.metrics.GetStats(),
	})
}

// handleAnalyze godoc
// @Summary      Score sprint delivery risk
// @Description  Accepts a JSON body or a multipart form with requirements and sprints files.
// @Tags         analysis
// @Accept       json,mpfd
// @Produce      json,text/csv
// @Param        request  body      types.AnalyzeRequest  false  "Inline inputs"
// @Param        format   query     string                false  "Response format"  Enums(json, csv)
// @Success      200      {object}  analyzeResponse
// @Failure      400      {object}  errors.AppError
// @Failure      413      {object}  errors.AppError
// @Failure      422      {object}  errors.AppError
// @Router       /analyze [post]
func (s *Server) handleAnalyze(c *gin.Context) {
	start := time.Now()

	in, err := s.readAnalyzeInput(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := s.security.ValidateText("requirements", in.requirements); err != nil {
		respondError(c, err)
		return
	}
	if err := s.security.ValidateText("sprints", in.sprints); err != nil {
		respondError(c, err)
		return
	}

	cfg, err := s.profiles.LoadProfile(in.profile)
	if err != nil {
		respondError(c, profileError(err))
		return
	}
	analyzer, err := analysis.NewAnalyzer(cfg)
	if err != nil {
		respondError(c, profileError(err))
		return
	}

	profileKey, err := json.Marshal(cfg)
	if err != nil {
		respondError(c, errors.NewInternalError("failed to encode profile", err))
		return
	}
	key := cache.Key(string(profileKey), in.requirements, in.sprints)

	if cached, ok := s.cache.Get(key); ok {
		var resp analyzeResponse
		if err := json.Unmarshal(cached, &resp); err == nil {
			resp.Cached = true
			s.logRun(resp.RunID, resp.Report, time.Since(start), true)
			s.writeAnalysis(c, resp, cfg.Precision)
			return
		}
		s.cache.Delete(key)
	}

	text, err := ingest.ReadRequirements(strings.NewReader(in.requirements))
	if err != nil {
		respondError(c, err)
		return
	}
	table, err := ingest.ReadSprintTable(strings.NewReader(in.sprints), cfg.Columns)
	if err != nil {
		respondError(c, err)
		return
	}

	rep, err := analyzer.Analyze(text, table)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := analyzeResponse{Report: rep}
	if s.history != nil {
		run, err := s.history.Record(c.Request.Context(), rep, key, in.profile, cfg.Precision)
		if err != nil {
			respondError(c, err)
			return
		}
		resp.RunID = run.ID
	} else {
		resp.RunID = uuid.New().String()
	}

	if data, err := json.Marshal(resp); err == nil {
		s.cache.Set(key, data)
	}

	s.metrics.RecordRun(rep.Degraded(), levelCounts(rep))
	s.logRun(resp.RunID, rep, time.Since(start), false)
	s.writeAnalysis(c, resp, cfg.Precision)
}

// readAnalyzeInput accepts either a multipart upload or a JSON body
func (s *Server) readAnalyzeInput(c *gin.Context) (analyzeInput, error) {
	in := analyzeInput{profile: s.cfg.Profile}

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var err error
		if in.requirements, err = s.readUpload(c, "requirements"); err != nil {
			return in, err
		}
		if in.sprints, err = s.readUpload(c, "sprints"); err != nil {
			return in, err
		}
		if p := c.PostForm("profile"); p != "" {
			in.profile = p
		}
		return in, nil
	}

	var req types.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if security.IsBodyTooLarge(err) {
			return in, tooLarge(s.cfg.MaxUploadBytes)
		}
		return in, errors.NewValidationError("invalid JSON body", err.Error())
	}
	if strings.TrimSpace(req.SprintsCSV) == "" {
		return in, errors.NewInputMissingError("sprints_csv")
	}

	in.requirements = req.Requirements
	in.sprints = req.SprintsCSV
	if req.Profile != "" {
		in.profile = req.Profile
	}
	return in, nil
}

func (s *Server) readUpload(c *gin.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err == http.ErrMissingFile {
		return "", errors.NewInputMissingError(field)
	}
	if err != nil {
		if security.IsBodyTooLarge(err) {
			return "", tooLarge(s.cfg.MaxUploadBytes)
		}
		return "", errors.NewValidationError("malformed multipart upload", err.Error())
	}

	f, err := fh.Open()
	if err != nil {
		return "", errors.NewIOError("failed to open uploaded "+field, err)
	}
	defer errors.SafeClose(f, field)

	data, err := io.ReadAll(f)
	if err != nil {
		return "", errors.NewIOError("failed to read uploaded "+field, err)
	}
	return string(data), nil
}

func (s *Server) writeAnalysis(c *gin.Context, resp analyzeResponse, precision int) {
	c.Header("X-Run-ID", resp.RunID)
	c.Header("X-Cache", strconv.FormatBool(resp.Cached))

	if c.Query("format") != "csv" {
		c.JSON(http.StatusOK, resp)
		return
	}

	writeRiskCSV(c, resp.Report.Rows, precision)
}

func writeRiskCSV(c *gin.Context, rows []analysis.RiskRow, precision int) {
	var buf bytes.Buffer
	if err := report.WriteRiskCSV(&buf, rows, precision); err != nil {
		respondError(c, errors.NewInternalError("failed to write risk CSV", err))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.CombinedFile+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) logRun(runID string, rep *analysis.Report, duration time.Duration, cacheHit bool) {
	s.logger.RunLogger(runID, len(rep.Rows), string(rep.Overload.Mode), rep.Ambiguity.Score,
		levelCounts(rep), duration, cacheHit)

	if rep.Degraded() {
		missing := make([]string, len(rep.Overload.Missing))
		for i, f := range rep.Overload.Missing {
			missing[i] = string(f)
		}
		s.logger.DegradedLogger(runID, missing)
	}
}

func levelCounts(rep *analysis.Report) map[string]int {
	counts := make(map[string]int)
	for level, n := range rep.LevelCounts() {
		counts[string(level)] = n
	}
	return counts
}

// handleListProfiles godoc
// @Summary      List stored scoring profiles
// @Tags         profiles
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /profiles [get]
func (s *Server) handleListProfiles(c *gin.Context) {
	names, err := s.profiles.ListProfiles()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": names, "active": s.cfg.Profile})
}

// handleGetProfile godoc
// @Summary      Get a scoring profile
// @Tags         profiles
// @Produce      json
// @Param        name  path      string  true  "Profile name"
// @Success      200   {object}  analysis.Config
// @Failure      400   {object}  errors.AppError
// @Router       /profiles/{name} [get]
func (s *Server) handleGetProfile(c *gin.Context) {
	cfg, err := s.profiles.LoadProfile(c.Param("name"))
	if err != nil {
		respondError(c, profileError(err))
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// handlePutProfile godoc
// @Summary      Create or replace a scoring profile
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     AdminBearer
// @Param        name     path      string           true  "Profile name"
// @Param        profile  body      analysis.Config  true  "Scoring profile"
// @Success      200      {object}  analysis.Config
// @Failure      400      {object}  errors.AppError
// @Failure      401      {object}  errors.AppError
// @Router       /profiles/{name} [put]
func (s *Server) handlePutProfile(c *gin.Context) {
	cfg := analysis.DefaultConfig()
	if err := c.ShouldBindJSON(&cfg); err != nil {
		if security.IsBodyTooLarge(err) {
			respondError(c, tooLarge(s.cfg.MaxUploadBytes))
			return
		}
		respondError(c, errors.NewValidationError("invalid JSON body", err.Error()))
		return
	}

	if err := s.profiles.SaveProfile(c.Param("name"), cfg); err != nil {
		respondError(c, profileError(err))
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// handleListRuns godoc
// @Summary      List recent runs
// @Tags         runs
// @Produce      json
// @Param        limit  query     int  false  "Maximum runs to return"
// @Success      200    {object}  map[string][]database.RunSummary
// @Failure      400    {object}  errors.AppError
// @Router       /runs [get]
func (s *Server) handleListRuns(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, errors.NewValidationError("limit must be an integer", raw))
			return
		}
		limit = l
	}

	runs, err := s.history.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// handleGetRun godoc
// @Summary      Get a stored run with its report
// @Tags         runs
// @Produce      json
// @Param        id   path      string  true  "Run ID"
// @Success      200  {object}  database.Run
// @Failure      404  {object}  errors.AppError
// @Router       /runs/{id} [get]
func (s *Server) handleGetRun(c *gin.Context) {
	run, err := s.history.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// handleRunCSV godoc
// @Summary      Download the combined risk CSV of a run
// @Tags         runs
// @Produce      text/csv
// @Param        id   path      string  true  "Run ID"
// @Success      200  {string}  string
// @Failure      404  {object}  errors.AppError
// @Router       /runs/{id}/risk.csv [get]
func (s *Server) handleRunCSV(c *gin.Context) {
	run, err := s.history.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	rows, err := s.history.RiskRows(c.Request.Context(), run.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	// written with the precision of the profile that produced the run
	writeRiskCSV(c, rows, run.Precision)
}

// handleDeleteRun godoc
// @Summary      Delete a stored run
// @Tags         runs
// @Security     AdminBearer
// @Param        id   path  string  true  "Run ID"
// @Success      204
// @Failure      401  {object}  errors.AppError
// @Failure      404  {object}  errors.AppError
// @Router       /runs/{id} [delete]
func (s *Server) handleDeleteRun(c *gin.Context) {
	ctx := c.Request.Context()
	run, err := s.history.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	// a cached response would keep handing out the deleted run id
	s.cache.Delete(run.InputHash)

	if err := s.history.Delete(ctx, run.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
