package piper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/echoverse/echoverse/tts"
)

const defaultSampleRate = 22050

// Model is a piper voice model found on disk.
type Model struct {
	Path       string // Path to the .onnx file
	ConfigPath string // Path to the .onnx.json file, empty when missing
	Name       string
	Language   string
	Dataset    string
	Quality    string
	SampleRate int
}

// Voice returns the model as a catalog voice.
func (m Model) Voice() tts.Voice {
	return tts.Voice{
		ID:       m.Path,
		Name:     m.Name,
		Language: m.Language,
	}
}

// modelConfig is the subset of the .onnx.json metadata we read.
type modelConfig struct {
	Dataset string `json:"dataset"`
	Audio   struct {
		SampleRate int    `json:"sample_rate"`
		Quality    string `json:"quality"`
	} `json:"audio"`
	Language struct {
		Code string `json:"code"`
	} `json:"language"`
	Espeak struct {
		Voice string `json:"voice"`
	} `json:"espeak"`
}

// ScanModels lists the .onnx models in dir, sorted by name. Models without
// readable metadata are still listed, with their language guessed from the
// file name (piper names models like "en_US-lessac-medium.onnx").
func ScanModels(dir string) ([]Model, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read models dir: %w", err)
	}

	var models []Model
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".onnx") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		models = append(models, loadModel(path))
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].Name < models[j].Name
	})
	return models, nil
}

func loadModel(path string) Model {
	name := strings.TrimSuffix(filepath.Base(path), ".onnx")
	m := Model{
		Path:       path,
		Name:       name,
		SampleRate: defaultSampleRate,
	}

	lang, _, _ := strings.Cut(name, "-")
	m.Language = tts.NormalizeTag(lang)

	configPath := path + ".json"
	data, err := os.ReadFile(configPath)
	if err != nil {
		return m
	}
	m.ConfigPath = configPath

	var cfg modelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return m
	}

	switch {
	case cfg.Language.Code != "":
		m.Language = tts.NormalizeTag(cfg.Language.Code)
	case cfg.Espeak.Voice != "":
		m.Language = tts.NormalizeTag(cfg.Espeak.Voice)
	}
	if cfg.Audio.SampleRate > 0 {
		m.SampleRate = cfg.Audio.SampleRate
	}
	m.Dataset = cfg.Dataset
	m.Quality = cfg.Audio.Quality
	return m
}

func isModelFile(name string) bool {
	return strings.HasSuffix(name, ".onnx") || strings.HasSuffix(name, ".onnx.json")
}
