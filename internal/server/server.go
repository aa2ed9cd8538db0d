package server

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"vcardmerge/internal/config"
	"vcardmerge/internal/core"
	"vcardmerge/internal/core/match"
	"vcardmerge/internal/core/model"
	"vcardmerge/internal/core/review"
	"vcardmerge/internal/store"
)

// Server fronts the review queue with a thin HTTP API: run a match over
// posted records, list what needs human eyes, record verdicts.
type Server struct {
	Pipeline *core.Pipeline
	Store    *store.DB
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Could not load %s: %v. Using built-in defaults", cfgPath, err)
		cfg = config.Default()
	}

	if dbPath := os.Getenv("REVIEW_DB_PATH"); dbPath != "" {
		cfg.Store.Path = dbPath
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open review store: %v", err)
	}

	return &Server{
		Pipeline: core.NewPipeline(cfg, match.DistinctRules{}),
		Store:    db,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/match", s.Match)
	r.POST("/match/cross", s.MatchCross)
	r.GET("/review", s.ListPending)
	r.POST("/review/:id", s.Decide)

	return r
}

type MatchRequest struct {
	Records []model.ContactRecord `json:"records"`
}

func (s *Server) Match(c *gin.Context) {
	s.runMatch(c, s.Pipeline.Run)
}

func (s *Server) MatchCross(c *gin.Context) {
	s.runMatch(c, s.Pipeline.RunCross)
}

func (s *Server) runMatch(c *gin.Context, run func([]model.ContactRecord) (*core.Result, error)) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Records == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "records is required"})
		return
	}

	result, err := run(req.Records)
	if err != nil {
		log.Printf("Match failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.Store.SaveQueue(result.Queue); err != nil {
		log.Printf("Failed to persist queue: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to persist review queue"})
		return
	}
	if err := s.Store.SaveDecisions(result.Decisions); err != nil {
		log.Printf("Failed to persist decisions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to persist decisions"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) ListPending(c *gin.Context) {
	items, err := s.Store.PendingItems()
	if err != nil {
		log.Printf("Failed to list pending items: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pending items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type DecideRequest struct {
	Decision string `json:"decision"` // merge | keep_separate
}

func (s *Server) Decide(c *gin.Context) {
	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	item, err := s.Store.GetItem(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown review item"})
			return
		}
		log.Printf("Failed to load item: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load review item"})
		return
	}

	decision, err := review.Decide(item, model.ReviewStatus(req.Decision))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.Store.RecordDecision(decision); err != nil {
		log.Printf("Failed to record decision: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record decision"})
		return
	}

	resp := gin.H{"status": string(decision.Status)}

	if decision.Status == model.ReviewMerge {
		merged, mergeDecision, err := s.Pipeline.ApproveMerge(item)
		if err != nil {
			log.Printf("Approved merge failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Merge failed"})
			return
		}
		if mergeDecision != nil {
			if err := s.Store.SaveDecisions([]model.MergeDecision{*mergeDecision}); err != nil {
				log.Printf("Failed to persist merge decision: %v", err)
			}
			resp["decision"] = mergeDecision
		}
		resp["merged"] = merged
	}

	c.JSON(http.StatusOK, resp)
}
