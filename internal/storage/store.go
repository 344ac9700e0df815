// Package storage persists simulation runs as directories holding a
// metadata.json and a states.csv, and exports them as a single JSON
// document.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/latchsim/internal/dynamo"
)

var ErrMalformedRun = errors.New("storage: malformed run")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Transition is a recorded mode change of a hybrid model.
type Transition struct {
	Time float64 `json:"time"`
	From string  `json:"from"`
	To   string  `json:"to"`
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Model       string             `json:"model"`
	Timestamp   time.Time          `json:"timestamp"`
	VREF        float64            `json:"vref"`
	VREG        float64            `json:"vreg"`
	VDD         float64            `json:"vdd"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Samples     int                `json:"samples"`
	Integrator  string             `json:"integrator"`
	Clock       string             `json:"clock"`
	Transitions []Transition       `json:"transitions,omitempty"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes a new run directory. ID and Timestamp of meta are assigned
// here; the stored metadata is returned.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (*RunMetadata, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Model, now.UnixNano())
	meta.Timestamp = now
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return nil, err
	}
	if err := writeStates(filepath.Join(runDir, "states.csv"), result); err != nil {
		return nil, err
	}

	return &meta, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeStates(path string, result *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if len(result.States) > 0 {
		header := []string{"time"}
		for i := range result.States[0] {
			header = append(header, fmt.Sprintf("x%d", i))
		}
		numControls := 0
		if len(result.Controls) > 0 {
			numControls = len(result.Controls[0])
		}
		for i := 0; i < numControls; i++ {
			header = append(header, fmt.Sprintf("u%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}

		for i := range result.States {
			row := []string{formatFloat(result.Times[i])}
			for _, val := range result.States[i] {
				row = append(row, formatFloat(val))
			}
			// The last state has no control; its cells stay empty.
			for j := 0; j < numControls; j++ {
				if i < len(result.Controls) && j < len(result.Controls[i]) {
					row = append(row, formatFloat(result.Controls[i][j]))
				} else {
					row = append(row, "")
				}
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRun, runID, err)
	}
	return &meta, nil
}

// LoadResult reads states.csv back into a Result, splitting the x and u
// columns by their header names.
func (s *Store) LoadResult(runID string) (*dynamo.Result, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRun, runID, err)
	}

	result := &dynamo.Result{Metrics: map[string]float64{}}
	if len(records) < 2 {
		return result, nil
	}

	header := records[0]
	for row, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("%w: %s: row %d has %d fields, header has %d", ErrMalformedRun, runID, row+1, len(record), len(header))
		}

		var (
			x dynamo.State
			u dynamo.Control
		)
		for j, cell := range record {
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: row %d column %s: %v", ErrMalformedRun, runID, row+1, header[j], err)
			}
			switch {
			case header[j] == "time":
				result.Times = append(result.Times, v)
			case strings.HasPrefix(header[j], "x"):
				x = append(x, v)
			case strings.HasPrefix(header[j], "u"):
				u = append(u, v)
			}
		}
		result.States = append(result.States, x)
		if u != nil {
			result.Controls = append(result.Controls, u)
		}
	}
	result.StepsTaken = len(result.States) - 1

	return result, nil
}
