// Package trace records the ordered sample sites of one execution.
package trace

import (
	"fmt"

	"tyche/internal/dist"
	"tyche/internal/model"
)

// DuplicateSiteError reports a site name reused within one trace.
type DuplicateSiteError struct {
	Site string
}

func (e DuplicateSiteError) Error() string {
	return fmt.Sprintf("duplicate sample site: %s", e.Site)
}

// MissingSiteError reports a replayed site absent from the reference trace.
type MissingSiteError struct {
	Site string
}

func (e MissingSiteError) Error() string {
	return fmt.Sprintf("sample site not in reference trace: %s", e.Site)
}

// Site is one named random draw and its realized value.
type Site struct {
	Name         string
	Distribution dist.Distribution
	Value        float64
	LogProb      float64
	Observed     bool
}

// Trace is the append-only site log of one execution. Append order is call
// order. A frozen trace rejects further appends.
type Trace struct {
	sites  []Site
	index  map[string]int
	frozen bool
}

func New() *Trace {
	return &Trace{index: make(map[string]int)}
}

// Append adds one site. Name uniqueness within the trace is mandatory;
// callers composing nested stochastic functions own cross-call uniqueness.
func (t *Trace) Append(site Site) error {
	if t.frozen {
		return fmt.Errorf("trace is frozen")
	}
	if site.Name == "" {
		return fmt.Errorf("sample site name is required")
	}
	if _, exists := t.index[site.Name]; exists {
		return DuplicateSiteError{Site: site.Name}
	}
	t.index[site.Name] = len(t.sites)
	t.sites = append(t.sites, site)
	return nil
}

// Freeze finalizes the trace. Idempotent.
func (t *Trace) Freeze() {
	t.frozen = true
}

func (t *Trace) Frozen() bool {
	return t.frozen
}

func (t *Trace) Len() int {
	return len(t.sites)
}

func (t *Trace) Lookup(name string) (Site, bool) {
	i, ok := t.index[name]
	if !ok {
		return Site{}, false
	}
	return t.sites[i], true
}

// Sites returns the sites in call order. The slice is a copy.
func (t *Trace) Sites() []Site {
	out := make([]Site, len(t.sites))
	copy(out, t.sites)
	return out
}

// Names returns the site names in call order.
func (t *Trace) Names() []string {
	out := make([]string, 0, len(t.sites))
	for _, site := range t.sites {
		out = append(out, site.Name)
	}
	return out
}

// LogJoint sums the recorded log-densities over all sites.
func (t *Trace) LogJoint() float64 {
	total := 0.0
	for _, site := range t.sites {
		total += site.LogProb
	}
	return total
}

// Records converts the trace into its persisted form.
func (t *Trace) Records() []model.SiteRecord {
	out := make([]model.SiteRecord, 0, len(t.sites))
	for _, site := range t.sites {
		name := ""
		if site.Distribution != nil {
			name = site.Distribution.Name()
		}
		out = append(out, model.SiteRecord{
			Name:         site.Name,
			Distribution: name,
			Value:        site.Value,
			LogProb:      site.LogProb,
			Observed:     site.Observed,
		})
	}
	return out
}

// FromRecords rebuilds a frozen trace from persisted site records. The
// distribution objects are not reconstructed; only names, values and
// log-densities survive a round trip, which is all replay needs.
func FromRecords(records []model.SiteRecord) (*Trace, error) {
	t := New()
	for _, rec := range records {
		if err := t.Append(Site{
			Name:     rec.Name,
			Value:    rec.Value,
			LogProb:  rec.LogProb,
			Observed: rec.Observed,
		}); err != nil {
			return nil, err
		}
	}
	t.Freeze()
	return t, nil
}
