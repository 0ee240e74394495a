package service

import (
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"examstore_backend/internals/features/catalog/filters/model"
)

// FilterRegistry answers filter-group hierarchy questions without
// touching the tree at query time. The descendant closure is computed
// once per Refresh and served from memory.
type FilterRegistry struct {
	mu sync.RWMutex

	byName    map[string]*model.FilterGroup // lower-cased name -> group
	byID      map[uuid.UUID]*model.FilterGroup
	closure   map[uuid.UUID][]uuid.UUID // group -> self + all descendants
	configs   []model.FilterConfiguration
	dimGroups map[string][]string // filter_key -> root group names, display order
}

func NewFilterRegistry() *FilterRegistry {
	return &FilterRegistry{
		byName:    map[string]*model.FilterGroup{},
		byID:      map[uuid.UUID]*model.FilterGroup{},
		closure:   map[uuid.UUID][]uuid.UUID{},
		dimGroups: map[string][]string{},
	}
}

// Refresh reloads groups and configurations and rebuilds the closure.
func (r *FilterRegistry) Refresh(db *gorm.DB) error {
	var groups []model.FilterGroup
	if err := db.Where("filter_group_is_active = ?", true).Find(&groups).Error; err != nil {
		return err
	}
	var configs []model.FilterConfiguration
	if err := db.Where("filter_config_is_active = ?", true).
		Order("filter_config_display_order asc").
		Find(&configs).Error; err != nil {
		return err
	}
	var bindings []model.FilterConfigurationGroup
	if err := db.Order("fcg_display_order asc").Find(&bindings).Error; err != nil {
		return err
	}

	byName := make(map[string]*model.FilterGroup, len(groups))
	byID := make(map[uuid.UUID]*model.FilterGroup, len(groups))
	children := make(map[uuid.UUID][]uuid.UUID, len(groups))
	for i := range groups {
		g := &groups[i]
		byName[strings.ToLower(g.FilterGroupName)] = g
		byID[g.FilterGroupID] = g
		if g.FilterGroupParentID != nil {
			children[*g.FilterGroupParentID] = append(children[*g.FilterGroupParentID], g.FilterGroupID)
		}
	}

	// Iterative closure build; the tree is shallow but recursion is
	// avoided on principle (and a parent cycle must not wedge boot).
	closure := make(map[uuid.UUID][]uuid.UUID, len(groups))
	for id := range byID {
		seen := map[uuid.UUID]struct{}{id: {}}
		stack := []uuid.UUID{id}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, child := range children[cur] {
				if _, ok := seen[child]; ok {
					continue
				}
				seen[child] = struct{}{}
				stack = append(stack, child)
			}
		}
		ids := make([]uuid.UUID, 0, len(seen))
		for k := range seen {
			ids = append(ids, k)
		}
		sort.Slice(ids, func(a, b int) bool { return ids[a].String() < ids[b].String() })
		closure[id] = ids
	}

	configByID := make(map[uuid.UUID]string, len(configs))
	for _, cfg := range configs {
		configByID[cfg.FilterConfigID] = cfg.FilterConfigKey
	}
	dimGroups := make(map[string][]string)
	for _, b := range bindings {
		key, ok := configByID[b.FCGConfigID]
		if !ok {
			continue
		}
		if g, ok := byID[b.FCGFilterGroupID]; ok {
			dimGroups[key] = append(dimGroups[key], g.FilterGroupName)
		}
	}

	r.mu.Lock()
	r.byName = byName
	r.byID = byID
	r.closure = closure
	r.configs = configs
	r.dimGroups = dimGroups
	r.mu.Unlock()

	log.Printf("[FILTERS] registry refreshed: %d groups, %d configurations", len(groups), len(configs))
	return nil
}

// Descendants resolves a group by display name (case-insensitive) and
// returns the group's id plus every descendant id. Unknown names
// return ok=false so callers can drop the dimension gracefully.
func (r *FilterRegistry) Descendants(name string) ([]uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return r.closure[g.FilterGroupID], true
}

// Group resolves a single group by name.
func (r *FilterRegistry) Group(name string) (*model.FilterGroup, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byName[strings.ToLower(name)]
	return g, ok
}

// GroupByID looks a group up by primary key.
func (r *FilterRegistry) GroupByID(id uuid.UUID) (*model.FilterGroup, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byID[id]
	return g, ok
}

// GroupNameByCode resolves a group by its short code (legacy navbar
// ids arrive as codes).
func (r *FilterRegistry) GroupNameByCode(code string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, g := range r.byID {
		if g.FilterGroupCode != "" && strings.EqualFold(g.FilterGroupCode, code) {
			return g.FilterGroupName, true
		}
	}
	return "", false
}

// ParentOf returns the direct parent id, if any.
func (r *FilterRegistry) ParentOf(id uuid.UUID) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byID[id]
	if !ok || g.FilterGroupParentID == nil {
		return uuid.Nil, false
	}
	return *g.FilterGroupParentID, true
}

// DimensionGroups lists the root group names bound to a facet
// dimension (filter_key), in display order. Falls back to every known
// group when the dimension carries no explicit bindings.
func (r *FilterRegistry) DimensionGroups(filterKey string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if names, ok := r.dimGroups[filterKey]; ok && len(names) > 0 {
		out := make([]string, len(names))
		copy(out, names)
		return out
	}
	out := make([]string, 0, len(r.byName))
	for _, g := range r.byID {
		out = append(out, g.FilterGroupName)
	}
	sort.Strings(out)
	return out
}

// Configurations returns the active facet dimensions in display order.
func (r *FilterRegistry) Configurations() []model.FilterConfiguration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.FilterConfiguration, len(r.configs))
	copy(out, r.configs)
	return out
}
