package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avlasov/securevault/internal/flagx"
	"github.com/avlasov/securevault/internal/timex"
)

// jsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be spelled either as strings like "800ms"
// or as integer nanoseconds.
type jsonConfig struct {
	ServerBaseURL *string         `json:"server_base_url"`
	CheckDebounce *timex.Duration `json:"check_debounce"`
	SessionDBPath *string         `json:"session_db_path"`
}

// parseJSON overlays cfg with values loaded from the JSON file given via the
// -c/-config flags. With no such flag the function is a no-op. Fields absent
// from the file keep their current values. Read or unmarshal errors panic;
// a broken explicit config is not something to silently run past.
func parseJSON(cfg *Config) {
	path := flagx.JSONConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != nil {
		cfg.ServerBaseURL = *jc.ServerBaseURL
	}
	if jc.CheckDebounce != nil {
		cfg.CheckDebounce = time.Duration(jc.CheckDebounce.Duration)
	}
	if jc.SessionDBPath != nil {
		cfg.SessionDBPath = *jc.SessionDBPath
	}
}
