// Package config handles loading and validation of the pipsmoke
// configuration file.
//
// Configuration may be written as YAML (pipsmoke.yaml / pipsmoke.yml,
// parsed with gopkg.in/yaml.v3) or as JSON with comments (pipsmoke.json /
// pipsmoke.jsonc, stripped with github.com/tidwall/jsonc before parsing
// with encoding/json).
//
// Key responsibilities:
//   - Locate the configuration file in the working directory
//   - Parse either format into the Config struct
//   - Fill unset fields with defaults
//   - Validate the result against the check-matrix rules
package config
