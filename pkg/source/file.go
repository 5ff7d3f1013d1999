package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/whoknowsbruh3425/BDA/pkg/record"
)

// FileSource reads player records from a JSON array file or a JSON-lines
// file (.jsonl / .ndjson). Numbers are kept as json.Number so integer
// fields survive without float rounding.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Name() string {
	return "file:" + filepath.Base(f.path)
}

func (f *FileSource) Load(ctx context.Context) ([]record.Player, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var players []record.Player
	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".jsonl", ".ndjson":
		players, err = decodeLines(ctx, data)
	default:
		players, err = decodeArray(data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}

	if len(players) == 0 {
		return nil, ErrNoRecords
	}
	return players, nil
}

func decodeArray(data []byte) ([]record.Player, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var players []record.Player
	if err := dec.Decode(&players); err != nil {
		return nil, err
	}
	return players, nil
}

func decodeLines(ctx context.Context, data []byte) ([]record.Player, error) {
	var players []record.Player

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if line%1000 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		p, err := decodePlayer(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		players = append(players, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return players, nil
}
