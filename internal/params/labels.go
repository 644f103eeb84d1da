package params

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

// ParseLabels converts a slice of "key=value" strings into a map.
// Later pairs override earlier ones.
//
// Example:
//
//	labels, err := ParseLabels([]string{"team=payments", "branch=main"})
//	// Returns: map[string]string{"team": "payments", "branch": "main"}
func ParseLabels(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("label %q is not in key=value format (example: --label team=payments)", pair)
		}

		key = strings.TrimSpace(key)
		if err := ValidateKey(key); err != nil {
			return nil, fmt.Errorf("label %q: %w", pair, err)
		}

		result[key] = value
	}

	return result, nil
}

// ValidateKey checks that key is non-empty and uses only letters, digits,
// '_', '-' and '.'.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return fmt.Errorf("key %q contains invalid character %q", key, r)
		}
	}
	return nil
}

// LoadLabelFiles reads .env-formatted label files. Later files override
// earlier ones.
func LoadLabelFiles(paths []string) (map[string]string, error) {
	result := make(map[string]string)

	for _, path := range paths {
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read labels file '%s': %w", path, err)
		}
		for k, v := range values {
			if err := ValidateKey(k); err != nil {
				return nil, fmt.Errorf("labels file '%s': %w", path, err)
			}
			result[k] = v
		}
	}

	return result, nil
}

// Merge combines label layers; keys in later layers win. It returns nil when
// every layer is empty so reports omit the field.
func Merge(layers ...map[string]string) map[string]string {
	var merged map[string]string
	for _, layer := range layers {
		for k, v := range layer {
			if merged == nil {
				merged = make(map[string]string)
			}
			merged[k] = v
		}
	}
	return merged
}
