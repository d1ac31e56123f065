package loader

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"mlbdata/pipeline/internal/models"
)

// ClassificationError reports a payload whose kind or game identifier could
// not be determined. The file is skipped; nothing is written for it.
type ClassificationError struct {
	Filename string
	Reason   string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("cannot classify payload %q: %s", e.Filename, e.Reason)
}

// Filename conventions written by the extractor. The explicit hint is
// checked before any shape probing.
const (
	combinedFilePrefix = "combined_data"
	boxscoreFilePrefix = "boxscore_raw"
	gameFilePrefix     = "game_raw"
)

// Classify selects exactly one ingestion path for a payload: the filename
// convention is the primary hint, with document-shape probing as fallback.
// It never touches storage.
func Classify(filename string, raw []byte) (models.PayloadKind, error) {
	base := filepath.Base(filename)
	switch {
	case strings.Contains(base, combinedFilePrefix):
		return models.KindCombined, nil
	case strings.Contains(base, boxscoreFilePrefix):
		return models.KindBoxscore, nil
	case strings.Contains(base, gameFilePrefix):
		return models.KindGameData, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return "", &ClassificationError{Filename: filename, Reason: "payload is not a JSON object"}
	}

	if _, ok := top["game_id"]; ok {
		_, hasBox := top["boxscore"]
		_, hasGame := top["game_data"]
		if hasBox || hasGame {
			return models.KindCombined, nil
		}
	}

	if teamsRaw, ok := top["teams"]; ok {
		var teams struct {
			Home struct {
				Players json.RawMessage `json:"players"`
			} `json:"home"`
			Away struct {
				Players json.RawMessage `json:"players"`
			} `json:"away"`
		}
		if err := json.Unmarshal(teamsRaw, &teams); err == nil {
			if len(teams.Home.Players) > 0 || len(teams.Away.Players) > 0 {
				return models.KindBoxscore, nil
			}
			return models.KindGameData, nil
		}
	}

	return "", &ClassificationError{Filename: filename, Reason: "unknown payload kind"}
}

var filenameGameID = regexp.MustCompile(`(\d+)\.[^.]+$`)

// ResolveGameID recovers the numeric game identifier for a non-combined
// payload. The upstream API is inconsistent about where it places the
// identifier across endpoint variants, so resolution is tiered: canonical
// top-level field, then a one-level probe into nested objects, then the digit
// run immediately preceding the file extension in the source filename.
func ResolveGameID(raw []byte, filename string) (int, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err == nil {
		if id, ok := numericField(top, "game_id"); ok {
			return id, nil
		}
		if id, ok := numericField(top, "gamePk"); ok {
			return id, nil
		}
		for _, nested := range top {
			var inner map[string]json.RawMessage
			if err := json.Unmarshal(nested, &inner); err != nil {
				continue
			}
			if id, ok := numericField(inner, "gamePk"); ok {
				return id, nil
			}
		}
	}

	if m := filenameGameID.FindStringSubmatch(filepath.Base(filename)); m != nil {
		var id int
		if _, err := fmt.Sscanf(m[1], "%d", &id); err == nil && id > 0 {
			return id, nil
		}
	}

	return 0, &ClassificationError{Filename: filename, Reason: "no game identifier recoverable"}
}

func numericField(obj map[string]json.RawMessage, key string) (int, bool) {
	rawVal, ok := obj[key]
	if !ok {
		return 0, false
	}
	var id int
	if err := json.Unmarshal(rawVal, &id); err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
