package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jmittaz/FCDR-HIRS/meq"
)

var (
	ErrEffectExists = errors.New("effect already registered")
)

// Catalogue is the registry of uncertainty effects, keyed by the
// measurement-equation symbol each effect perturbs. It is built once at
// startup and read-mostly afterwards; an internal RWMutex makes concurrent
// queries safe, and Effects hands out deep-copied snapshots so no consumer
// can reach the live entries.
type Catalogue struct {
	mu sync.RWMutex

	effects   map[meq.Symbol][]*Effect
	encodings *EncodingRegistry
}

// NewCatalogue constructs an empty catalogue. A nil encoding registry
// disables export-encoding enrichment, which is tolerated everywhere.
func NewCatalogue(encodings *EncodingRegistry) *Catalogue {
	return &Catalogue{
		effects:   make(map[meq.Symbol][]*Effect),
		encodings: encodings,
	}
}

// Register files the effect under its parameter, creating the per-parameter
// bucket on first use. A second effect with the same name under the same
// parameter is rejected.
func (c *Catalogue) Register(e *Effect) error {
	if e == nil {
		return fmt.Errorf("%w: nil effect", ErrEffectBadInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.effects[e.Parameter] {
		if existing.Name == e.Name {
			return fmt.Errorf("%w: %s under %s", ErrEffectExists, e.Name, e.Parameter)
		}
	}
	e.encodings = c.encodings
	c.effects[e.Parameter] = append(c.effects[e.Parameter], e)
	return nil
}

// Effects returns a deep-copied snapshot of the registry. Callers may add,
// remove or mutate entries without affecting the catalogue or other
// snapshots.
func (c *Catalogue) Effects() map[meq.Symbol][]*Effect {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[meq.Symbol][]*Effect, len(c.effects))
	for sym, list := range c.effects {
		cp := make([]*Effect, len(list))
		for i, e := range list {
			cp[i] = e.Copy()
		}
		out[sym] = cp
	}
	return out
}

// ForParameter returns copies of the effects perturbing one symbol, nil when
// nothing is registered for it.
func (c *Catalogue) ForParameter(sym meq.Symbol) []*Effect {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := c.effects[sym]
	if len(list) == 0 {
		return nil
	}
	out := make([]*Effect, len(list))
	for i, e := range list {
		out[i] = e.Copy()
	}
	return out
}

// Find returns the live effect with the given short name, or nil. Intended
// for catalogue construction (late magnitude assignment), not for snapshot
// consumers.
func (c *Catalogue) Find(name string) *Effect {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, list := range c.effects {
		for _, e := range list {
			if e.Name == name {
				return e
			}
		}
	}
	return nil
}

// Names lists the short names of every registered effect, sorted.
func (c *Catalogue) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []string
	for _, list := range c.effects {
		for _, e := range list {
			out = append(out, e.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Parameters lists the registered measurement-equation symbols, sorted.
func (c *Catalogue) Parameters() []meq.Symbol {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]meq.Symbol, 0, len(c.effects))
	for sym := range c.effects {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len counts registered effects across all parameters.
func (c *Catalogue) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, list := range c.effects {
		n += len(list)
	}
	return n
}

// CountByClass tallies effects by their correlation classification.
func (c *Catalogue) CountByClass() (independent, common, structured int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, list := range c.effects {
		for _, e := range list {
			switch {
			case e.IsIndependent():
				independent++
			case e.IsCommon():
				common++
			default:
				structured++
			}
		}
	}
	return independent, common, structured
}
