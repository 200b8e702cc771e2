package mapper

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/internal/errors"
)

// Setting names as they appear in the editor's configuration.
const (
	SettingToitPath            = "toit.path"
	SettingLSPCommand          = "toitLanguageServer.command"
	SettingJagPath             = "jag.path"
	SettingDebugClientToServer = "toitLanguageServer.debug.clientToServer"
)

// MergeRawSettings returns base overlaid with override. Nested objects are merged key by key.
// Neither input is modified.
func MergeRawSettings(base, override map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		if sub, ok := v.(map[string]interface{}); ok {
			if existing, ok := result[k].(map[string]interface{}); ok {
				result[k] = MergeRawSettings(existing, sub)
				continue
			}
		}
		result[k] = v
	}
	return result
}

// RawToSettingsMap converts an arbitrary decoded JSON or YAML value, such as initializationOptions, into a settings map.
// Unknown shapes yield an empty map.
func RawToSettingsMap(raw interface{}) map[string]interface{} {
	if msg, ok := raw.(json.RawMessage); ok {
		var m map[string]interface{}
		if err := json.Unmarshal(msg, &m); err != nil {
			return map[string]interface{}{}
		}
		raw = m
	}
	if m, ok := normalize(raw).(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

// normalize converts YAML decoded maps with interface keys into string keyed maps.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[k] = normalize(val)
		}
		return m
	case []interface{}:
		l := make([]interface{}, len(t))
		for i, val := range t {
			l[i] = normalize(val)
		}
		return l
	default:
		return v
	}
}

// RawSettingsToSettings validates and extracts the executable settings.
// Settings may be given either as nested objects or as flat dotted keys.
// Empty values are treated as unset. A value of the wrong type yields a ConfigurationError naming the setting.
func RawSettingsToSettings(raw map[string]interface{}) (entity.Settings, error) {
	var s entity.Settings
	var err error

	if s.ToitPath, err = stringSetting(raw, SettingToitPath); err != nil {
		return entity.Settings{}, err
	}
	if s.JagPath, err = stringSetting(raw, SettingJagPath); err != nil {
		return entity.Settings{}, err
	}
	if s.LSPCommand, err = stringSliceSetting(raw, SettingLSPCommand); err != nil {
		return entity.Settings{}, err
	}

	if v, ok := lookup(raw, SettingDebugClientToServer); ok && v != nil {
		b, isBool := v.(bool)
		if !isBool {
			return entity.Settings{}, &errors.ConfigurationError{Setting: SettingDebugClientToServer, Expected: "a boolean"}
		}
		s.DebugClientToServer = b
	}

	return s, nil
}

func stringSetting(raw map[string]interface{}, name string) (string, error) {
	v, ok := lookup(raw, name)
	if !ok || v == nil {
		return "", nil
	}
	str, isString := v.(string)
	if !isString {
		return "", &errors.ConfigurationError{Setting: name, Expected: "a string"}
	}
	return strings.TrimSpace(str), nil
}

func stringSliceSetting(raw map[string]interface{}, name string) ([]string, error) {
	v, ok := lookup(raw, name)
	if !ok || v == nil {
		return nil, nil
	}

	var items []interface{}
	switch list := v.(type) {
	case []interface{}:
		items = list
	case []string:
		for _, item := range list {
			items = append(items, item)
		}
	default:
		return nil, &errors.ConfigurationError{Setting: name, Expected: "an array of strings"}
	}

	if len(items) == 0 {
		return nil, nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		str, isString := item.(string)
		if !isString {
			return nil, &errors.ConfigurationError{Setting: name, Expected: "an array of strings"}
		}
		result = append(result, str)
	}
	if result[0] == "" {
		return nil, &errors.ConfigurationError{Setting: name, Expected: fmt.Sprintf("a non-empty program in %s[0]", name)}
	}
	return result, nil
}

// lookup finds a dotted setting name, preferring a flat key over the nested path.
func lookup(raw map[string]interface{}, name string) (interface{}, bool) {
	if v, ok := raw[name]; ok {
		return v, true
	}

	var current interface{} = raw
	for _, part := range strings.Split(name, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	return current, true
}
