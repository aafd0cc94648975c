package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"market-sim/internal/api/models"
	"market-sim/internal/config"
)

// ScenarioHandler lists scenario presets
type ScenarioHandler struct {
	scenarioDir string
	log         *zap.Logger
}

// NewScenarioHandler creates a new scenario handler
func NewScenarioHandler(scenarioDir string, log *zap.Logger) *ScenarioHandler {
	// Convert to absolute path for reliability
	if abs, err := filepath.Abs(scenarioDir); err == nil {
		scenarioDir = abs
	}
	return &ScenarioHandler{
		scenarioDir: scenarioDir,
		log:         log.Named("scenarios"),
	}
}

// ListScenarios handles GET /api/v1/scenarios
func (h *ScenarioHandler) ListScenarios(c *gin.Context) {
	scenarios := []models.ScenarioInfo{}

	entries, err := os.ReadDir(h.scenarioDir)
	if err != nil {
		h.log.Warn("read scenario directory", zap.String("dir", h.scenarioDir), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"scenarios": scenarios})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(h.scenarioDir, entry.Name())
		info, err := loadScenarioInfo(path, entry.Name())
		if err != nil {
			h.log.Warn("skip scenario file", zap.String("path", path), zap.Error(err))
			continue
		}
		scenarios = append(scenarios, *info)
	}
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].ID < scenarios[j].ID })

	c.JSON(http.StatusOK, gin.H{"scenarios": scenarios})
}

func loadScenarioInfo(path, filename string) (*models.ScenarioInfo, error) {
	cfg, err := config.LoadUnchecked(path)
	if err != nil {
		return nil, err
	}

	// "reference.yaml" -> "reference"; the id is what /simulate takes as preset
	id := strings.TrimSuffix(filename, ".yaml")
	name := cfg.Name
	if name == "" {
		name = id
	}

	participants := 0
	for _, p := range cfg.Participants {
		if p.Count > 1 {
			participants += p.Count
		} else {
			participants++
		}
	}
	capacity := 0.0
	for _, p := range cfg.Producers {
		capacity += p.CapacityMW
	}

	return &models.ScenarioInfo{
		ID:          id,
		Name:        name,
		Description: cfg.Description,
		File:        path,
		Specs: models.ScenarioSpecs{
			Steps:            cfg.Steps,
			DemandKind:       cfg.Demand.Kind,
			Producers:        len(cfg.Producers),
			Participants:     participants,
			ProducerCapacity: capacity,
		},
	}, nil
}
