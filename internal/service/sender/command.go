package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/faultmesh/alarm-correlator/internal/config"
	domain "github.com/faultmesh/alarm-correlator/internal/domain/alarm"
	"github.com/faultmesh/alarm-correlator/internal/logger"
)

// Options controls the alarm-sender invocation.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// InputPath is the alarm JSON file; "-" or empty reads stdin.
	InputPath string
	// ServerURL overrides the target derived from the configuration.
	ServerURL string
}

// ingestPath is the correlator ingestion route.
const ingestPath = "/api/v1/alarms"

// Run reads canonical alarm records and posts them to a running
// correlator in one batch request.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-sender")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	payload, err := readInput(opts.InputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	records, err := DecodeRecords(payload)
	if err != nil {
		return fmt.Errorf("decode input: %w", err)
	}

	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	target := targetURL(cfg.ServerAddress, opts.ServerURL)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: cfg.Timeout}

	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusAccepted {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, 1024))

		return fmt.Errorf("correlator rejected batch: %s: %s",
			response.Status, strings.TrimSpace(string(detail)))
	}

	logger.InfoKV(ctx, "Alarm batch sent", "target", target, "alarms", len(records))

	return nil
}

// DecodeRecords parses a single canonical alarm record or a JSON array.
func DecodeRecords(payload []byte) ([]*domain.Record, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, errors.New("empty input")
	}

	if trimmed[0] == '[' {
		var records []*domain.Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("malformed alarm array: %w", err)
		}

		if len(records) == 0 {
			return nil, errors.New("empty alarm array")
		}

		return records, nil
	}

	var record domain.Record
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return nil, fmt.Errorf("malformed alarm record: %w", err)
	}

	return []*domain.Record{&record}, nil
}

// targetURL derives the ingestion URL from the override or the
// configured server address.
func targetURL(configAddr, override string) string {
	base := override
	if base == "" {
		base = "http://" + configAddr
	}

	return strings.TrimRight(base, "/") + ingestPath
}

// readInput loads the alarm payload from a file or stdin.
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}

	return os.ReadFile(filepath.Clean(path))
}
