// Package yamlflag provides a command line flag that accepts a YAML document.
package yamlflag

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/ghodss/yaml"
)

// New creates a flag.Value that recognizes a YAML document.
//
// The YAML document can be specified directly on the command line:
//
//	--flag="TxRingLen: 4"
//
// Or it can be read from a file, when the flag value starts with '@':
//
//	--flag=@qdmad.yaml
//
// value must be a pointer to a struct containing config sections.
// Panics if value is not a pointer.
func New(value any) flag.Getter {
	if val := reflect.ValueOf(value); val.Kind() != reflect.Ptr {
		panic(val.Kind())
	}
	return &yamlFlagValue{value}
}

type yamlFlagValue struct {
	Value any
}

func (v *yamlFlagValue) Get() any {
	return v.Value
}

func (v *yamlFlagValue) Set(s string) error {
	if len(s) >= 1 && s[0] == '@' {
		return Load(s[1:], v.Value)
	}
	return yaml.Unmarshal([]byte(s), v.Value)
}

func (v *yamlFlagValue) String() string {
	if v.Value == nil {
		return ""
	}
	j, _ := json.Marshal(v.Value)
	return string(j)
}

// Load reads a YAML file into value.
func Load(filename string, value any) error {
	file, e := os.ReadFile(filename)
	if e != nil {
		return e
	}
	if e = yaml.Unmarshal(file, value); e != nil {
		return fmt.Errorf("%s: %w", filename, e)
	}
	return nil
}
