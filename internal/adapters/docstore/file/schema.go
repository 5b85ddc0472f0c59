package file

import (
	"fmt"
	"time"
)

const currentSchemaVersion = 1

type documentFile struct {
	Version   int            `toml:"version"`
	UpdatedAt time.Time      `toml:"updated_at"`
	Fields    map[string]any `toml:"fields"`
}

func (d *documentFile) applyDefaults() {
	if d.Version == 0 {
		d.Version = currentSchemaVersion
	}
	if d.Fields == nil {
		d.Fields = map[string]any{}
	}
}

func (d documentFile) validateVersion() error {
	if d.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported document schema version %d (current %d)", d.Version, currentSchemaVersion)
	}

	return nil
}

// merge applies a merge-write patch. TOML has no null, so a nil value
// removes the key.
func (d *documentFile) merge(fields map[string]any) {
	for key, value := range fields {
		if value == nil {
			delete(d.Fields, key)
			continue
		}
		d.Fields[key] = stripNils(value)
	}
}

func stripNils(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			if item == nil {
				continue
			}
			out[key] = stripNils(item)
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, stripNils(item))
		}
		return out
	case time.Time:
		return v.UTC()
	default:
		return v
	}
}
