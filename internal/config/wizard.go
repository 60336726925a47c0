package config

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/manifoldco/promptui"
)

// serviceReachable reports whether anything answers at the service URL.
func serviceReachable(serviceURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(serviceURL + "/api/benchmark/libraries")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to ripview! Let's configure the viewer.")
	fmt.Println()

	defaults := DefaultConfig()

	// 1. Extraction service.
	urlPrompt := promptui.Prompt{
		Label:   "Extraction service URL",
		Default: defaults.ServiceURL,
	}
	serviceURL, err := urlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("service url: %w", err)
	}
	if serviceReachable(serviceURL) {
		fmt.Println("Extraction service is reachable.")
	} else {
		fmt.Printf("Note: nothing answered at %s. Start the extraction service before running ripview serve.\n", serviceURL)
	}

	// 2. Viewer port.
	portPrompt := promptui.Prompt{
		Label:   "Viewer port",
		Default: strconv.Itoa(defaults.Port),
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p < 0 || p > 65535 {
				return fmt.Errorf("port must be a number between 0 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	port, _ := strconv.Atoi(portStr)

	// 3. Default layers.
	layerPrompt := promptui.Select{
		Label: "Layers shown when a page loads",
		Items: []string{
			"words, tables  (recommended)",
			"words only",
			"chars, words, tables",
			"everything",
		},
	}
	layerIdx, _, err := layerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("layer selection: %w", err)
	}
	layerSets := [][]string{
		{"words", "tables"},
		{"words"},
		{"chars", "words", "tables"},
		{"chars", "words", "lines", "rects", "edges", "tables"},
	}

	// 4. Benchmark.
	autoPrompt := promptui.Select{
		Label: "Run the library benchmark automatically on each new page?",
		Items: []string{"no", "yes"},
	}
	autoIdx, _, err := autoPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("benchmark auto-run: %w", err)
	}

	// 5. Batch include patterns.
	includePrompt := promptui.Prompt{
		Label:   "Batch include patterns (comma-separated globs)",
		Default: "**/*.pdf",
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}

	cfg := defaults
	cfg.ServiceURL = serviceURL
	cfg.Port = port
	cfg.DefaultLayers = layerSets[layerIdx]
	cfg.Benchmark.AutoRun = autoIdx == 1
	cfg.Include = splitAndTrim(includeStr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			token := trimSpace(s[start:i])
			if token != "" {
				result = append(result, token)
			}
			start = i + 1
		}
	}
	return result
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t') {
		j--
	}
	return s[i:j]
}
