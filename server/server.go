// Package server exposes the engine over REST. Handlers only translate
// between HTTP and the engine; no business logic lives here.
package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/fundsight/ragengine/pkg/engine"
	"github.com/fundsight/ragengine/pkg/extract"
	"github.com/fundsight/ragengine/pkg/logger"
)

type Server struct {
	engine *engine.Engine
	log    *logger.Logger
}

func New(e *engine.Engine, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{engine: e, log: log}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/", s.root)
	router.GET("/health", s.health)

	api := router.Group("/api")
	{
		api.POST("/chat", s.chat)
		api.POST("/upload", s.upload)
		api.POST("/ingest", s.ingest)
		api.PUT("/document/:id", s.updateDocument)
		api.DELETE("/document/:id", s.deleteDocument)
		api.GET("/stats", s.stats)
		api.DELETE("/clear", s.clear)
		api.POST("/match-entity", s.matchEntity)
	}

	return router
}

func (s *Server) Run(port string) error {
	s.log.Info("starting HTTP server", "port", port)
	return s.Router().Run(":" + port)
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "RAG engine API",
		"status":  "running",
		"endpoints": gin.H{
			"health": "/health",
			"chat":   "/api/chat",
			"upload": "/api/upload",
		},
	})
}

func (s *Server) health(c *gin.Context) {
	stats := s.engine.Stats(c.Request.Context())
	status := "healthy"
	if stats.Status == "error" {
		status = "unhealthy"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "vector_store": stats})
}

type chatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
	UseRAG    *bool  `json:"use_rag"`
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	useRAG := true
	if req.UseRAG != nil {
		useRAG = *req.UseRAG
	}

	result, err := s.engine.Chat(c.Request.Context(), req.Message, req.SessionID, useRAG)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type uploadResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	FileID        string `json:"file_id,omitempty"`
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
}

func (s *Server) upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "missing file"})
		return
	}

	if !extract.Supported(header.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "unsupported file type, allowed: " + strings.Join(extract.SupportedExtensions(), ", "),
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	result, err := s.engine.Upload(c.Request.Context(), header.Filename, data)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse{
		Success:       true,
		Message:       "Successfully processed " + header.Filename,
		FileID:        result.DocumentID,
		Filename:      header.Filename,
		ChunksCreated: result.ChunksCreated,
	})
}

type ingestRequest struct {
	Content      string            `json:"content" binding:"required"`
	DocumentName string            `json:"document_name"`
	Metadata     map[string]string `json:"metadata"`
}

func (s *Server) ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.DocumentName == "" {
		req.DocumentName = "api_document"
	}

	result, err := s.engine.Ingest(c.Request.Context(), req.Content, req.DocumentName, req.Metadata)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse{
		Success:       true,
		Message:       "Successfully ingested " + req.DocumentName,
		FileID:        result.DocumentID,
		Filename:      req.DocumentName,
		ChunksCreated: result.ChunksCreated,
	})
}

type updateRequest struct {
	DocumentID   string            `json:"document_id" binding:"required"`
	Content      string            `json:"content" binding:"required"`
	DocumentName string            `json:"document_name"`
	Metadata     map[string]string `json:"metadata"`
}

func (s *Server) updateDocument(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.DocumentID != c.Param("id") {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "document ID in URL and body must match"})
		return
	}

	result, err := s.engine.Update(c.Request.Context(), req.DocumentID, req.Content, req.DocumentName, req.Metadata)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse{
		Success:       true,
		Message:       "Successfully updated document",
		FileID:        result.DocumentID,
		Filename:      req.DocumentName,
		ChunksCreated: result.ChunksCreated,
	})
}

func (s *Server) deleteDocument(c *gin.Context) {
	result, err := s.engine.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Successfully deleted document",
		"document_id":    result.DocumentID,
		"chunks_deleted": result.ChunksDeleted,
	})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Stats(c.Request.Context()))
}

func (s *Server) clear(c *gin.Context) {
	result, err := s.engine.Clear(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "All documents cleared from knowledge base",
		"chunks_removed": result.ChunksRemoved,
		"files_removed":  result.FilesRemoved,
	})
}

type entityMatchRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id"`
}

func (s *Server) matchEntity(c *gin.Context) {
	var req entityMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	result, err := s.engine.MatchEntities(c.Request.Context(), req.Query, req.SessionID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case engine.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	case engine.IsUnsupportedFormat(err):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	default:
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
	}
}
