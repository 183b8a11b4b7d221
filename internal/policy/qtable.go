package policy

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/hazz2-game/hazz2/engine/agent"
)

// QTable picks the valid action with the highest learned value for the
// exact observation. Unknown observations score zero everywhere, so an
// untrained table plays the lowest valid action.
type QTable struct {
	values map[string][agent.NumActions]float32
}

// qtableFile is the on-disk layout: observation key -> action values.
type qtableFile struct {
	States map[string][]float32 `json:"states"`
}

// NewQTable returns an empty table.
func NewQTable() *QTable {
	return &QTable{values: make(map[string][agent.NumActions]float32)}
}

// LoadQTable reads a table written as {"states": {"<key>": [25 values]}}.
func LoadQTable(path string) (*QTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read q-table: %w", err)
	}
	var f qtableFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode q-table %s: %w", path, err)
	}
	q := NewQTable()
	for key, vals := range f.States {
		if len(vals) != agent.NumActions {
			return nil, fmt.Errorf("q-table %s: state %q has %d values, want %d", path, key, len(vals), agent.NumActions)
		}
		var row [agent.NumActions]float32
		copy(row[:], vals)
		q.Set(key, row)
	}
	log.Infof("Q-table loaded from %s: %d states.", path, q.Len())
	return q, nil
}

// Set stores the values for one observation key.
func (q *QTable) Set(key string, values [agent.NumActions]float32) {
	q.values[key] = values
}

// Len returns the number of known observations.
func (q *QTable) Len() int { return len(q.values) }

func (*QTable) Name() string { return "qtable" }

func (q *QTable) Choose(s Situation) (Decision, error) {
	row := q.values[s.Observation.Key()]
	best, bestVal := -1, float32(math.Inf(-1))
	for _, a := range s.ValidActions {
		// Actions past the table width cannot be scored.
		if a < 0 || a >= agent.NumActions {
			continue
		}
		if row[a] > bestVal {
			best, bestVal = a, row[a]
		}
	}
	if best < 0 {
		return Decision{Draw: true}, nil
	}
	return DecisionFor(best, len(s.Hand)), nil
}
