package topicseed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadTopicFile reads a TopicInput from a YAML file.
func LoadTopicFile(path string) (*TopicInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic file: %w", err)
	}
	var in TopicInput
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse topic file %s: %w", path, err)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	return &in, nil
}
