package actions

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ghodss/yaml"
)

const (
	OutputFormatYaml = "yaml"
	OutputFormatJson = "json"
)

// writeDocument marshals i as YAML or JSON and writes it to f.
// YAML keys follow the json struct tags.
func writeDocument(i interface{}, f io.Writer, yamlOrJson string) error {
	var err error
	var data []byte
	switch yamlOrJson {
	case OutputFormatYaml:
		data, err = yaml.Marshal(i)
	case OutputFormatJson:
		data, err = json.MarshalIndent(i, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unsupported output format %q", yamlOrJson)
	}
	if err != nil {
		return fmt.Errorf("unable to marshal the document: %w", err)
	}
	_, err = f.Write(data)
	return err
}
