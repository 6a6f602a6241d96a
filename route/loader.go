package route

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	silentMarker  = "!"
	commentMarker = "##"
)

// File is the on-disk route format, JSON or YAML
//
//	{
//	  "useFileTime": false,
//	  "reset": "reset chapter",
//	  "route": ["enter chapter 1", "!1 > 2 ## skip the cutscene", "complete chapter 1"]
//	}
type File struct {
	UseFileTime      bool     `json:"useFileTime" yaml:"useFileTime"`
	UseSecondaryTime bool     `json:"useSecondaryTime" yaml:"useSecondaryTime"`
	Reset            string   `json:"reset" yaml:"reset"`
	Route            []string `json:"route" yaml:"route"`
}

// ParseEntry strips the comment and the silent marker from one route line
func ParseEntry(line string) (Entry, error) {
	if i := strings.Index(line, commentMarker); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)

	var e Entry
	if strings.HasPrefix(line, silentMarker) {
		e.Silent = true
		line = strings.TrimSpace(strings.TrimPrefix(line, silentMarker))
	}
	if line == "" {
		return Entry{}, errors.New("empty route entry")
	}
	e.Alias = line
	return e, nil
}

func Parse(data []byte) (Route, error) {
	var f File
	unmarshal := yaml.Unmarshal
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		unmarshal = json.Unmarshal
	}
	if err := unmarshal(data, &f); err != nil {
		return Route{}, fmt.Errorf("parse route: %w", err)
	}
	if len(f.Route) == 0 {
		return Route{}, errors.New("route has no entries")
	}

	r := Route{UseSecondaryTime: f.UseFileTime || f.UseSecondaryTime}
	for i, line := range f.Route {
		e, err := ParseEntry(line)
		if err != nil {
			return Route{}, fmt.Errorf("route entry %d: %w", i, err)
		}
		r.Entries = append(r.Entries, e)
	}

	if f.Reset != "" {
		reset, err := ParseEntry(f.Reset)
		if err != nil {
			return Route{}, fmt.Errorf("route reset: %w", err)
		}
		r.ResetAlias = reset.Alias
	}
	return r, nil
}

func Load(path string) (Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Route{}, err
	}
	r, err := Parse(data)
	if err != nil {
		return Route{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}
