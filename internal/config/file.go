package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// stageFile reads the YAML file and exports each value under its environment
// name, unless that variable is already set. It returns the names it set so
// the caller can remove them once the environment has been processed.
func stageFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	names := envNames(reflect.TypeOf(Config{}))
	var staged []string
	for key, val := range doc {
		if section, ok := val.(map[string]any); ok {
			for sub, v := range section {
				name, ok := names[key+"."+sub]
				if !ok {
					return staged, fmt.Errorf("parse config: unknown key %s.%s", key, sub)
				}
				if stage(name, v) {
					staged = append(staged, name)
				}
			}
			continue
		}
		name, ok := names[key]
		if !ok {
			return staged, fmt.Errorf("parse config: unknown key %s", key)
		}
		if stage(name, val) {
			staged = append(staged, name)
		}
	}
	return staged, nil
}

func stage(name string, v any) bool {
	if v == nil {
		return false
	}
	if _, set := os.LookupEnv(name); set {
		return false
	}
	os.Setenv(name, fmt.Sprint(v))
	return true
}

// envNames maps dotted YAML keys ("smtp.port") to environment names.
func envNames(t reflect.Type) map[string]string {
	out := make(map[string]string)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := yamlKey(f)
		if f.Type.Kind() == reflect.Struct {
			for j := 0; j < f.Type.NumField(); j++ {
				sf := f.Type.Field(j)
				out[key+"."+yamlKey(sf)] = sf.Tag.Get("envconfig")
			}
			continue
		}
		out[key] = f.Tag.Get("envconfig")
	}
	return out
}

func yamlKey(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
	return name
}
