package config

import (
	"fmt"
	"strings"
)

// ParseBackendLocation parses a single backend_locations entry.
// Accepted formats: "s3://bucket-name", "gs://bucket-name",
// "s3:bucket-name", or a bare "bucket-name" (defaults to s3).
func ParseBackendLocation(raw string) (BackendLocation, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return BackendLocation{}, fmt.Errorf("backend location cannot be empty")
	}

	if strings.Contains(raw, "://") {
		parts := strings.SplitN(raw, "://", 2)
		scheme := strings.ToLower(strings.TrimSpace(parts[0]))
		name := strings.TrimSpace(parts[1])
		if name == "" {
			return BackendLocation{}, fmt.Errorf("bucket name cannot be empty in %q", raw)
		}
		typ, err := backendTypeForScheme(scheme)
		if err != nil {
			return BackendLocation{}, err
		}
		return BackendLocation{Name: name, Type: typ}, nil
	}

	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return BackendLocation{Name: raw, Type: "s3"}, nil
	}

	typ, err := backendTypeForScheme(strings.ToLower(strings.TrimSpace(parts[0])))
	if err != nil {
		return BackendLocation{}, err
	}
	name := strings.TrimSpace(parts[1])
	if name == "" {
		return BackendLocation{}, fmt.Errorf("bucket name cannot be empty in %q", raw)
	}
	return BackendLocation{Name: name, Type: typ}, nil
}

func backendTypeForScheme(scheme string) (string, error) {
	switch scheme {
	case "s3":
		return "s3", nil
	case "gs", "gcs":
		return "gcs", nil
	default:
		return "", fmt.Errorf("unsupported backend scheme: %s", scheme)
	}
}
