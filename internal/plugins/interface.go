package plugins

import (
	"github.com/pders01/radar/internal/radar"
)

// Plugin rewrites raw entries from a specific host before they are
// filtered and normalized. Aggregators such as Google News decorate titles
// and descriptions in ways the generic pipeline should not see.
type Plugin interface {
	// Name returns the plugin name for identification
	Name() string

	// CanHandle returns true if this plugin can handle entries of the feed at url
	CanHandle(url string) bool

	// Rewrite returns the cleaned entry.
	Rewrite(entry radar.RawEntry) radar.RawEntry

	// Priority returns the priority of this plugin (higher = higher priority)
	// Useful when multiple plugins can handle the same URL
	Priority() int
}

// Registry manages all registered plugins
type Registry struct {
	plugins []Plugin
}

// NewRegistry creates a new plugin registry
func NewRegistry(plugins ...Plugin) *Registry {
	r := &Registry{plugins: make([]Plugin, 0, len(plugins))}
	for _, p := range plugins {
		r.Register(p)
	}
	return r
}

// Register adds a plugin to the registry
func (r *Registry) Register(plugin Plugin) {
	r.plugins = append(r.plugins, plugin)
}

// FindPlugin returns the best plugin for handling a given URL
// Returns the plugin with highest priority that can handle the URL
func (r *Registry) FindPlugin(url string) Plugin {
	var bestPlugin Plugin
	highestPriority := -1

	for _, plugin := range r.plugins {
		if plugin.CanHandle(url) && plugin.Priority() > highestPriority {
			bestPlugin = plugin
			highestPriority = plugin.Priority()
		}
	}

	return bestPlugin
}

// Apply rewrites entries with the plugin for src, if any. The input slice
// is left untouched.
func (r *Registry) Apply(src radar.Source, entries []radar.RawEntry) []radar.RawEntry {
	if r == nil {
		return entries
	}
	plugin := r.FindPlugin(src.URL)
	if plugin == nil {
		return entries
	}

	out := make([]radar.RawEntry, len(entries))
	for i, e := range entries {
		out[i] = plugin.Rewrite(e)
	}
	return out
}

// ListPlugins returns all registered plugins
func (r *Registry) ListPlugins() []Plugin {
	return append([]Plugin(nil), r.plugins...)
}
