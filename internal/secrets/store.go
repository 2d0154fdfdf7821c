package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that points at the secrets file,
// checked after an explicit path and before the conventional locations.
const EnvPath = "ZANA_SECRETS"

// relPath is the conventional secrets location, relative to the project
// directory or the user home directory.
const relPath = ".zana"

// secretsFile is the on-disk shape: a single top-level list of services.
type secretsFile struct {
	Services []ServiceSecrets `json:"services" yaml:"services"`
}

// Store holds the secrets of every configured service, loaded once per
// command invocation. It is immutable after Load and never written back.
type Store struct {
	path     string
	services map[string]ServiceSecrets
	names    []string
}

// Discover resolves the secrets file path using the fixed precedence order:
// explicit path, ZANA_SECRETS, ./.zana/secrets.yaml, ~/.zana/secrets.yaml
// (.yml accepted at the conventional locations). The first existing path
// wins. An explicit or env-declared path that does not exist is an error
// rather than a fall-through: it was asked for by name.
func Discover(explicit string) (string, error) {
	if explicit != "" {
		return resolveDeclared(explicit, "--secrets")
	}
	if envPath := os.Getenv(EnvPath); envPath != "" {
		return resolveDeclared(envPath, EnvPath)
	}

	candidates := []string{
		filepath.Join(relPath, "secrets.yaml"),
		filepath.Join(relPath, "secrets.yml"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, relPath, "secrets.yaml"),
			filepath.Join(home, relPath, "secrets.yml"),
		)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (searched %s)", ErrNotFound, strings.Join(candidates, ", "))
}

// resolveDeclared expands and verifies a path the user named explicitly.
func resolveDeclared(path, source string) (string, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return "", fmt.Errorf("resolving secrets path %s: %w", path, err)
	}
	if _, err := os.Stat(resolved); err != nil {
		return "", fmt.Errorf("%w: %s (from %s)", ErrNotFound, resolved, source)
	}
	return resolved, nil
}

// Load reads and validates a secrets file. The format is detected by file
// extension: .json/.jsonc for JSON (comments allowed), everything else for
// YAML. Load performs no network or process I/O.
func Load(path string) (*Store, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolving secrets path %s: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading secrets %s: %w", resolved, err)
	}

	var file secretsFile
	switch ext := strings.ToLower(filepath.Ext(resolved)); ext {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
			return nil, fmt.Errorf("%w: parsing JSON secrets %s: %v", ErrMalformed, resolved, err)
		}
	default:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: parsing YAML secrets %s: %v", ErrMalformed, resolved, err)
		}
	}

	services := make(map[string]ServiceSecrets, len(file.Services))
	names := make([]string, 0, len(file.Services))
	for i, svc := range file.Services {
		if svc.Name == "" {
			return nil, fmt.Errorf("%w: services[%d]: name is required", ErrMalformed, i)
		}
		if _, dup := services[svc.Name]; dup {
			return nil, fmt.Errorf("%w: services[%d]: duplicate service name %q", ErrMalformed, i, svc.Name)
		}
		switch svc.Transport {
		case TransportStdio:
			if svc.Command == "" {
				return nil, fmt.Errorf("%w: services[%d] (%q): command is required for stdio transport", ErrMalformed, i, svc.Name)
			}
		case TransportHTTP, TransportSSE:
			if svc.URL == "" {
				return nil, fmt.Errorf("%w: services[%d] (%q): url is required for %s transport", ErrMalformed, i, svc.Name, svc.Transport)
			}
		case "":
			return nil, fmt.Errorf("%w: services[%d] (%q): transport is required", ErrMalformed, i, svc.Name)
		default:
			return nil, fmt.Errorf("%w: services[%d] (%q): transport must be stdio, http, or sse", ErrMalformed, i, svc.Name)
		}
		if svc.TimeoutSeconds < 0 {
			return nil, fmt.Errorf("%w: services[%d] (%q): timeout_seconds must not be negative", ErrMalformed, i, svc.Name)
		}
		services[svc.Name] = svc
		names = append(names, svc.Name)
	}

	if len(services) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoServices, resolved)
	}

	sort.Strings(names)
	return &Store{path: resolved, services: services, names: names}, nil
}

// LoadDefault discovers the secrets path and loads it in one step.
func LoadDefault(explicit string) (*Store, error) {
	path, err := Discover(explicit)
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Get returns the secrets for a named service.
func (s *Store) Get(name string) (ServiceSecrets, bool) {
	svc, ok := s.services[name]
	return svc, ok
}

// Names returns the configured service names, sorted.
func (s *Store) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of configured services.
func (s *Store) Len() int {
	return len(s.services)
}

// Path returns the file the store was loaded from.
func (s *Store) Path() string {
	return s.path
}

// resolvePath expands ~ to the user home directory and returns an absolute path.
func resolvePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}
