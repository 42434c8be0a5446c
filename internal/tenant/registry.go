package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/bensalemboualem/ifactory-school/internal/authz"
)

// SchoolConfig describes one tenant.
type SchoolConfig struct {
	SchoolID       string   `json:"school_id"`
	Name           string   `json:"name"`
	ModeratorRoles []string `json:"moderator_roles"`
	DefaultLocale  string   `json:"default_locale"`
}

type SchoolsFile struct {
	Schools []SchoolConfig `json:"schools"`
}

type Registry struct {
	mu      sync.RWMutex
	schools map[string]*SchoolConfig
}

var _ authz.ModeratorRoleSource = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		schools: make(map[string]*SchoolConfig),
	}
}

func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schools config: %w", err)
	}

	var file SchoolsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schools config: %w", err)
	}

	registry := NewRegistry()
	for i := range file.Schools {
		if err := registry.Register(&file.Schools[i]); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register adds or replaces a school. Schools without moderator roles get
// superadmin as their only moderator role.
func (r *Registry) Register(cfg *SchoolConfig) error {
	if cfg.SchoolID == "" {
		return fmt.Errorf("school without school_id")
	}
	for _, role := range cfg.ModeratorRoles {
		if !authz.ValidRole(role) {
			return fmt.Errorf("school %s: unknown moderator role %q", cfg.SchoolID, role)
		}
	}
	if len(cfg.ModeratorRoles) == 0 {
		cfg.ModeratorRoles = []string{authz.RoleSuperAdmin}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.schools[cfg.SchoolID] = cfg
	return nil
}

func (r *Registry) Get(schoolID string) *SchoolConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schools[schoolID]
}

func (r *Registry) Exists(schoolID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schools[schoolID]
	return ok
}

func (r *Registry) ModeratorRoles(schoolID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.schools[schoolID]
	if !ok {
		return nil
	}
	return cfg.ModeratorRoles
}

func (r *Registry) DefaultLocale(schoolID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.schools[schoolID]
	if !ok {
		return ""
	}
	return cfg.DefaultLocale
}

// All returns the schools sorted by id.
func (r *Registry) All() []*SchoolConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*SchoolConfig, 0, len(r.schools))
	for _, cfg := range r.schools {
		result = append(result, cfg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SchoolID < result[j].SchoolID })
	return result
}
