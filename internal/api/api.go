package api

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/word-sketch/internal/export"
	"github.com/yourusername/word-sketch/internal/metrics"
	"github.com/yourusername/word-sketch/internal/text"
	"github.com/yourusername/word-sketch/pkg/sketch"
)

type envelope map[string]any

type Server struct {
	agg    *sketch.Aggregator
	logger *log.Logger
}

func NewServer(agg *sketch.Aggregator, logger *log.Logger) *Server {
	return &Server{
		agg:    agg,
		logger: logger,
	}
}

func (s *Server) Routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.NoRoute(s.notFoundResponse)
	router.NoMethod(s.methodNotAllowedResponse)
	router.HandleMethodNotAllowed = true

	v1 := router.Group("/v1")
	v1.GET("/words/:word", s.getWord)
	v1.POST("/words", s.addWords)
	v1.GET("/stats", s.getStats)
	v1.GET("/counters", s.getCounters)

	return router
}

func (s *Server) getWord(c *gin.Context) {
	word := c.Param("word")
	stem := text.Stem(word)
	if stem == "" {
		s.badRequestResponse(c, fmt.Errorf("%q has no letters to count", word))
		return
	}

	c.JSON(http.StatusOK, envelope{
		"word":     word,
		"stem":     stem,
		"estimate": s.agg.Frequency(stem),
	})
}

type addWordsRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) addWords(c *gin.Context) {
	var req addWordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequestResponse(c, err)
		return
	}

	words := text.ToWords(req.Text)
	for _, w := range words {
		s.agg.AddKey(w)
	}
	metrics.WordsIngestedTotal.WithLabelValues("api").Add(float64(len(words)))

	c.JSON(http.StatusOK, envelope{"added": len(words)})
}

func (s *Server) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.agg.Stats())
}

func (s *Server) getCounters(c *gin.Context) {
	var buf bytes.Buffer
	if err := export.WriteCompressed(&buf, export.SnapshotOf(s.agg.Sketch())); err != nil {
		s.serverErrorResponse(c, err)
		return
	}
	c.Data(http.StatusOK, "application/zstd", buf.Bytes())
}
