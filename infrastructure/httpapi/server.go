// Package httpapi exposes the REST surface: service status, the websocket
// entry point, voices, speech synthesis, minutes and conversation queries.
package httpapi

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"babelroom/contract"
	"babelroom/domain"
	"babelroom/domain/language"
	"babelroom/errors"
	"babelroom/infrastructure/ws"
	"babelroom/minutes"
	"babelroom/tts"
)

type Server struct {
	log         *slog.Logger
	ws          *ws.Handler
	registry    contract.IRegistry
	store       contract.ConversationStore
	generator   *minutes.Generator
	speech      *tts.Service
	translation bool
	searchLimit int
}

func NewServer(
	log *slog.Logger,
	wsHandler *ws.Handler,
	registry contract.IRegistry,
	store contract.ConversationStore,
	generator *minutes.Generator,
	speech *tts.Service,
	translation bool,
	searchLimit int,
) *Server {
	return &Server{
		log:         log.With("component", "httpapi"),
		ws:          wsHandler,
		registry:    registry,
		store:       store,
		generator:   generator,
		speech:      speech,
		translation: translation,
		searchLimit: searchLimit,
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.status)
	router.GET("/ws", gin.WrapH(s.ws))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/voices", s.voices)
		api.POST("/tts", s.synthesize)
		api.GET("/minutes/:roomID", s.minutes)
		api.GET("/conversation/:roomID", s.conversation)
		api.GET("/conversation/:roomID/search", s.search)
	}
	return router
}

func (s *Server) status(c *gin.Context) {
	rooms, sessions := s.registry.Counts()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "babelroom",
		"rooms":    rooms,
		"sessions": sessions,
		"features": gin.H{
			"translation": s.translation,
			"minutes":     s.generator.Available(),
			"tts":         s.speech.Available(),
		},
	})
}

func (s *Server) voices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tts_available": s.speech.Available(),
		"voices":        s.speech.Voices(),
	})
}

type ttsRequest struct {
	Text     string `json:"text" binding:"required"`
	Language string `json:"language"`
	Voice    string `json:"voice"`
}

func (s *Server) synthesize(c *gin.Context) {
	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	clip, err := s.speech.Synthesize(c.Request.Context(), req.Text, req.Language, req.Voice)
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrTTSUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "speech synthesis not configured"})
		case stderrors.Is(err, errors.ErrEmptyText):
			c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		default:
			s.log.Error("Synthesis failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "speech synthesis failed"})
		}
		return
	}
	// Clips are one-shot, removed as soon as they are served.
	defer os.Remove(clip.Path)

	c.Header("Content-Type", clip.ContentType)
	c.File(clip.Path)
}

func (s *Server) minutes(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomID"))
	languageCode := language.Code(c.DefaultQuery("language", "en"))

	result, err := s.generator.Generate(c.Request.Context(), roomID, languageCode)
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrSummarizerUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "minutes generation not configured"})
		case stderrors.Is(err, errors.ErrNoConversation):
			c.JSON(http.StatusNotFound, gin.H{"error": "no conversation found for this room"})
		case stderrors.Is(err, errors.ErrEmptyConversation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversation is empty"})
		default:
			s.log.Error("Minutes generation failed", "room", roomID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "minutes generation failed"})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) conversation(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomID"))

	conv, ok := s.store.MinutesInput(roomID)
	if !ok {
		// Asking about a room that never spoke is not an error
		c.JSON(http.StatusOK, gin.H{
			"room_id":              roomID,
			"exists":               false,
			"message_count":        0,
			"participants":         []string{},
			"summarizer_available": s.generator.Available(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":              roomID,
		"exists":               true,
		"message_count":        len(conv.Entries),
		"participants":         conv.Participants,
		"start_time":           conv.StartTime,
		"dominant_language":    dominantLanguage(conv),
		"summarizer_available": s.generator.Available(),
	})
}

func (s *Server) search(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomID"))
	terms := strings.TrimSpace(c.Query("q"))
	if terms == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	entries, err := s.store.Search(c.Request.Context(), roomID, terms, s.searchLimit)
	if err != nil {
		s.log.Error("Search failed", "room", roomID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"room_id": roomID,
		"query":   terms,
		"results": entries,
	})
}

// dominantLanguage guesses the main language of the recorded text. Best
// effort only; short conversations often come back as unknown.
func dominantLanguage(conv domain.Conversation) string {
	var sb strings.Builder
	for _, entry := range conv.Entries {
		sb.WriteString(entry.Text)
		sb.WriteString(" ")
	}
	info := whatlanggo.Detect(sb.String())
	if !info.IsReliable() {
		return "unknown"
	}
	return info.Lang.String()
}
