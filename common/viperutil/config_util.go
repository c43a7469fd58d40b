/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package viperutil

import (
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperledger/fabric-asset-gateway/common/flogging"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var logger = flogging.MustGetLogger("viperutil")

// CfgPathEnvVar names the environment variable that overrides the config search path.
const CfgPathEnvVar = "ASSETGW_CFG_PATH"

// OfficialPath is the default location of the installed configuration.
const OfficialPath = "/etc/hyperledger/assetgw"

// ConfigPaths returns the paths from environment and
// defaults which are CWD and /etc/hyperledger/assetgw.
func ConfigPaths() []string {
	var paths []string
	if p := os.Getenv(CfgPathEnvVar); p != "" {
		paths = append(paths, p)
	}
	return append(paths, ".", OfficialPath)
}

// InitViper adds the config search paths to v and sets the config name. When
// an explicit config file is supplied it takes precedence over the search
// path.
func InitViper(v *viper.Viper, configName, configFile string) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		return
	}
	for _, p := range ConfigPaths() {
		abs, err := filepath.Abs(p)
		if err != nil {
			logger.Warnf("Skipping config path %s: %s", p, err)
			continue
		}
		v.AddConfigPath(abs)
	}
	v.SetConfigName(configName)
}

type viperGetter func(key string) interface{}

func getKeysRecursively(base string, getKey viperGetter, nodeKeys map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for key, node := range nodeKeys {
		fqKey := base + key
		// recurse over the merged settings so defaults missing from the
		// config file survive
		if m, ok := node.(map[string]interface{}); ok {
			result[key] = getKeysRecursively(fqKey+".", getKey, m)
			continue
		}
		val := getKey(fqKey)
		if m, ok := val.(map[interface{}]interface{}); ok {
			logger.Debugf("Found map[interface{}]interface{} value for %s", fqKey)
			result[key] = getKeysRecursively(fqKey+".", getKey, toMapStringInterface(m))
		} else if m, ok := val.(map[string]interface{}); ok {
			logger.Debugf("Found map[string]interface{} value for %s", fqKey)
			result[key] = getKeysRecursively(fqKey+".", getKey, m)
		} else if m, ok := unmarshalJSON(val); ok {
			logger.Debugf("Found real value for %s setting to map[string]string %v", fqKey, m)
			result[key] = m
		} else {
			if val == nil {
				fileSubKey := fqKey + ".File"
				fileVal := getKey(fileSubKey)
				if fileVal != nil {
					result[key] = map[string]interface{}{"File": fileVal}
					continue
				}
			}
			logger.Debugf("Found real value for %s setting to %T %v", fqKey, val, val)
			result[key] = val
		}
	}
	return result
}

func unmarshalJSON(val interface{}) (map[string]string, bool) {
	mp := map[string]string{}
	s, ok := val.(string)
	if !ok {
		return nil, false
	}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	if err := json.Unmarshal([]byte(s), &mp); err != nil {
		return nil, false
	}
	return mp, true
}

func toMapStringInterface(m map[interface{}]interface{}) map[string]interface{} {
	result := map[string]interface{}{}
	for k, v := range m {
		k, ok := k.(string)
		if !ok {
			panic(fmt.Sprintf("Non string %v, %v: key-entry: %v", k, v, k))
		}
		result[k] = v
	}
	return result
}

// customDecodeHook parses strings of the format "[thing1, thing2, thing3]"
// into string slices. Note that whitespace around slice elements is removed.
func customDecodeHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}

	raw := data.(string)
	l := len(raw)
	if l > 1 && raw[0] == '[' && raw[l-1] == ']' {
		slice := strings.Split(raw[1:l-1], ",")
		for i, v := range slice {
			slice[i] = strings.TrimSpace(v)
		}
		return slice, nil
	}

	return data, nil
}

var byteSizeRegexp = regexp.MustCompile(`^(?P<size>[0-9]+)\s*(?i)(?P<unit>(k|m|g))b?$`)

func byteSizeDecodeHook(f reflect.Kind, t reflect.Kind, data interface{}) (interface{}, error) {
	if f != reflect.String || t != reflect.Uint32 {
		return data, nil
	}
	raw := data.(string)
	if raw == "" {
		return data, nil
	}
	if !byteSizeRegexp.MatchString(raw) {
		return data, nil
	}
	size, err := strconv.ParseUint(byteSizeRegexp.ReplaceAllString(raw, "${size}"), 0, 64)
	if err != nil {
		return data, nil
	}
	switch strings.ToLower(byteSizeRegexp.ReplaceAllString(raw, "${unit}")) {
	case "g":
		size = size << 10
		fallthrough
	case "m":
		size = size << 10
		fallthrough
	case "k":
		size = size << 10
	}
	if size > math.MaxUint32 {
		return size, fmt.Errorf("value '%s' overflows uint32", raw)
	}
	return size, nil
}

func stringFromFileDecodeHook(f reflect.Kind, t reflect.Kind, data interface{}) (interface{}, error) {
	if t != reflect.String || f != reflect.Map {
		return data, nil
	}
	d, ok := data.(map[string]interface{})
	if !ok {
		return data, nil
	}
	fileName, ok := d["File"]
	if !ok {
		fileName, ok = d["file"]
	}
	switch {
	case ok && fileName != nil:
		bytes, err := os.ReadFile(fileName.(string))
		if err != nil {
			return data, err
		}
		return string(bytes), nil
	case ok:
		return nil, fmt.Errorf("Value of File: was nil")
	}
	return data, nil
}

func pemBlocksFromFileDecodeHook(f reflect.Kind, t reflect.Kind, data interface{}) (interface{}, error) {
	if t != reflect.Slice || f != reflect.Map {
		return data, nil
	}
	d, ok := data.(map[string]interface{})
	if !ok {
		return data, nil
	}
	fileI, ok := d["File"]
	if !ok {
		fileI, ok = d["file"]
	}
	if !ok {
		return data, nil
	}
	fileName, _ := fileI.(string)
	if fileName == "" {
		return nil, fmt.Errorf("Value of File: was nil")
	}

	var result []string
	bytes, err := os.ReadFile(fileName)
	if err != nil {
		return data, err
	}
	for len(bytes) > 0 {
		var block *pem.Block
		block, bytes = pem.Decode(bytes)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" || len(block.Headers) != 0 {
			continue
		}
		result = append(result, string(pem.EncodeToMemory(block)))
	}
	return result, nil
}

// EnhancedExactUnmarshal is intended to unmarshal a config file into a structure
// producing error when extraneous variables are introduced and supporting
// the time.Duration type
func EnhancedExactUnmarshal(v *viper.Viper, output interface{}) error {
	oType := reflect.TypeOf(output)
	if oType == nil || oType.Kind() != reflect.Ptr || oType.Elem().Kind() != reflect.Struct {
		return errors.Errorf("supplied output argument must be a pointer to a struct")
	}

	baseKeys := v.AllSettings()
	leafKeys := getKeysRecursively("", v.Get, baseKeys)

	logger.Debugf("%+v", leafKeys)
	config := &mapstructure.DecoderConfig{
		ErrorUnused:      true,
		Metadata:         nil,
		Result:           output,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			customDecodeHook,
			byteSizeDecodeHook,
			stringFromFileDecodeHook,
			pemBlocksFromFileDecodeHook,
		),
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return err
	}
	return decoder.Decode(leafKeys)
}
