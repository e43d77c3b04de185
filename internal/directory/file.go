package directory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warrantd/warrant/internal/model"
)

// rosterFile is the on-disk YAML roster format.
type rosterFile struct {
	Workers []model.Worker `yaml:"workers"`
}

// LoadFile reads a YAML roster file into a StaticDirectory. Environment
// variables referenced as ${VAR_NAME} are expanded before parsing. A missing
// file is an empty roster, not an error: every lookup then fails closed with
// ErrWorkerNotFound.
func LoadFile(path string) (*StaticDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStatic(nil), nil
		}
		return nil, fmt.Errorf("read roster file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	var f rosterFile
	if err := yaml.Unmarshal([]byte(content), &f); err != nil {
		return nil, fmt.Errorf("parse roster file: %w", err)
	}

	for _, w := range f.Workers {
		if w.ID == "" {
			return nil, fmt.Errorf("roster entry missing id (name %q)", w.Name)
		}
	}
	return NewStatic(f.Workers), nil
}

// ExampleRoster is the template written by `warrant worker init`.
const ExampleRoster = `# Warrant worker roster
# Each entry maps a worker ID to a display name and status.
# Only workers with status "active" may request auth codes.

workers:
  - id: "W1001"
    name: "Example Worker"
    department: "engineering"
    status: active
  - id: "W1002"
    name: "Disabled Worker"
    department: "sales"
    status: inactive
`

// WriteExample writes the example roster template to path. Refuses to
// overwrite an existing file.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return os.WriteFile(path, []byte(ExampleRoster), 0644)
}
