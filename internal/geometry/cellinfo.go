package geometry

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/dtplot/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// CellInfo carries per-cell scalars addressed by super layer, layer and
// wire, e.g. {"sl": 1, "l": 1, "w": 1, "time": 300}.
type CellInfo struct {
	SuperLayer int
	Layer      int
	Wire       int
	Values     map[string]float64
}

// ToNumber converts a decoded JSON or YAML scalar to float64.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func intField(m map[string]any, key string) (int, error) {
	raw, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("cell info is missing %q", key)
	}
	f, ok := ToNumber(raw)
	if !ok || f != float64(int(f)) {
		return 0, fmt.Errorf("cell info %q must be an integer, got %v", key, raw)
	}
	return int(f), nil
}

// CellInfoFromMap reads sl, l and w from m; every other numeric entry
// becomes a cell annotation. Keys listed in skip are ignored.
func CellInfoFromMap(m map[string]any, skip ...string) (CellInfo, error) {
	var info CellInfo
	var err error
	if info.SuperLayer, err = intField(m, "sl"); err != nil {
		return CellInfo{}, err
	}
	if info.Layer, err = intField(m, "l"); err != nil {
		return CellInfo{}, err
	}
	if info.Wire, err = intField(m, "w"); err != nil {
		return CellInfo{}, err
	}
	info.Values = make(map[string]float64)
	for k, v := range m {
		switch k {
		case "sl", "l", "w":
			continue
		}
		if contains(skip, k) {
			continue
		}
		if f, ok := ToNumber(v); ok {
			info.Values[k] = f
		}
	}
	return info, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Map is the inverse of CellInfoFromMap.
func (c CellInfo) Map() map[string]any {
	m := map[string]any{"sl": c.SuperLayer, "l": c.Layer, "w": c.Wire}
	for k, v := range c.Values {
		m[k] = v
	}
	return m
}

// UnmarshalJSON reads the flat record form.
func (c *CellInfo) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	info, err := CellInfoFromMap(m)
	if err != nil {
		return err
	}
	*c = info
	return nil
}

// MarshalJSON writes the flat record form.
func (c CellInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

// UnmarshalYAML reads the flat record form.
func (c *CellInfo) UnmarshalYAML(value *yaml.Node) error {
	var m map[string]any
	if err := value.Decode(&m); err != nil {
		return err
	}
	info, err := CellInfoFromMap(m)
	if err != nil {
		return err
	}
	*c = info
	return nil
}

// DecodeRecords decodes a list of flat records from JSON or YAML, chosen by
// the file extension.
func DecodeRecords(path string, data []byte) ([]map[string]any, error) {
	var records []map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported record file extension %q", ext)
	}
	return records, nil
}

// LoadCellInfo reads a JSON or YAML list of cell records.
func LoadCellInfo(fsys fsutil.FileSystem, path string) ([]CellInfo, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cell info: %w", err)
	}
	records, err := DecodeRecords(path, data)
	if err != nil {
		return nil, err
	}
	out := make([]CellInfo, 0, len(records))
	for i, r := range records {
		info, err := CellInfoFromMap(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, info)
	}
	return out, nil
}

// ValueNames lists every annotation name used by infos.
func ValueNames(infos []CellInfo) []string {
	seen := make(map[string]bool)
	for _, info := range infos {
		for k := range info.Values {
			seen[k] = true
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
