package patterns

import (
	"log/slog"
	"sort"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/models"
)

// Miner mines simple frequency-based recurrence patterns from stored alerts.
type Miner struct {
	logger *slog.Logger
}

// NewMiner constructs a Miner.
func NewMiner(logger *slog.Logger) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Miner{logger: logger}
}

// Mine aggregates alerts by type and returns recurrence patterns ordered by
// prevalence. Occurrences counts fingerprint merges, so a single record that
// fired repeatedly still surfaces as a hotspot.
func (m *Miner) Mine(alerts []models.Alert) []models.AlertPattern {
	if len(alerts) == 0 {
		return nil
	}

	typeStats := make(map[string]*typeAggregate)
	for _, alert := range alerts {
		agg := typeStats[alert.Type]
		if agg == nil {
			agg = &typeAggregate{entities: make(map[string]struct{})}
			typeStats[alert.Type] = agg
		}
		agg.records++
		agg.occurrences += occurrenceCount(alert.Meta)
		for key, value := range alert.Entity {
			agg.entities[key+"="+value] = struct{}{}
		}
		if alert.UpdatedAt.After(agg.lastSeen) {
			agg.lastSeen = alert.UpdatedAt
		}
	}

	patterns := make([]models.AlertPattern, 0, len(typeStats))
	for alertType, agg := range typeStats {
		entities := make([]string, 0, len(agg.entities))
		for entity := range agg.entities {
			entities = append(entities, entity)
		}
		sort.Strings(entities)

		patterns = append(patterns, models.AlertPattern{
			ID:          "pattern-" + alertType,
			Type:        alertType,
			Records:     agg.records,
			Occurrences: agg.occurrences,
			Prevalence:  float64(agg.records) / float64(len(alerts)),
			Entities:    entities,
			LastSeen:    agg.lastSeen,
		})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Prevalence != patterns[j].Prevalence {
			return patterns[i].Prevalence > patterns[j].Prevalence
		}
		return patterns[i].Type < patterns[j].Type
	})

	m.logger.Debug("mined alert patterns", "alerts", len(alerts), "patterns", len(patterns))
	return patterns
}

func occurrenceCount(meta map[string]any) int {
	switch v := meta["occurrences"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 1
	}
}

type typeAggregate struct {
	records     int
	occurrences int
	lastSeen    time.Time
	entities    map[string]struct{}
}
