package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/latchsim/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Steps    int         `json:"steps"`
	Times    []float64   `json:"times"`
	States   [][]float64 `json:"states"`
	Controls [][]float64 `json:"controls"`
}

func NewExportData(meta *RunMetadata, result *dynamo.Result) ExportData {
	data := ExportData{
		RunMetadata: *meta,
		Steps:       result.StepsTaken,
		Times:       result.Times,
		States:      make([][]float64, len(result.States)),
		Controls:    make([][]float64, len(result.Controls)),
	}
	for i, s := range result.States {
		data.States[i] = s
	}
	for i, c := range result.Controls {
		data.Controls[i] = c
	}
	return data
}

func ExportJSON(w io.Writer, meta *RunMetadata, result *dynamo.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(meta, result))
}

func ExportJSONFile(path string, meta *RunMetadata, result *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportJSON(f, meta, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
