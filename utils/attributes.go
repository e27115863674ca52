package utils

import (
	"encoding/json"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// ReadAttributes parses a JSON or TOML document into a generic attribute map, ready to be
// decoded into a typed config with mapstructure. format is a file extension without the dot.
func ReadAttributes(r io.Reader, format string) (map[string]interface{}, error) {
	raw := map[string]interface{}{}
	switch format {
	case "json":
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "error parsing json")
		}
	case "toml":
		if err := toml.NewDecoder(r).Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "error parsing toml")
		}
	default:
		return nil, NewUnsupportedFormatError("." + format)
	}
	return raw, nil
}
