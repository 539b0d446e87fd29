package template

import (
	"math/rand"
	"sync"

	"mendr/internal/langast"
	"mendr/internal/repairerr"
	"mendr/internal/stmtindex"
)

// Catalog owns the extracted template pool, the scope annotation, and
// the co-occurrence probability model for one statement table, and
// resolves ReplaceCardumen operators back to concrete statements
// (implements mutate.CardumenResolver).
//
// A ReplaceCardumen operator's (TemplateID, InstanceIdx) pair does not
// name one of Catalog's extraction-time Template.ID values directly:
// PrepareAt mints a fresh opaque group id per (template, fault-site)
// instantiation, because the same extracted template instantiates
// differently at different insertion points (different visible-name
// sets). The operator's TemplateID is that group id; ResolveInstance
// looks the group back up. This keeps mutate.Op's construction-time
// fields sufficient to replay the exact instance later, with no
// back-reference to the target sid required (spec.md §3: operator
// equality is already solely a function of its construction-time
// tuple).
type Catalog struct {
	Templates []Template
	Scopes    ScopeMap
	pm        *ProbModel

	mu        sync.Mutex
	nextGroup int
	groups    map[int][]Instance
}

// NewCatalog extracts templates and builds the scope map and probability
// model over prog/ix.
func NewCatalog(prog *langast.Program, ix *stmtindex.Index) *Catalog {
	templates := Extract(ix)
	return &Catalog{
		Templates: templates,
		Scopes:    BuildScopes(prog),
		pm:        BuildProbModel(templates),
		groups:    map[int][]Instance{},
	}
}

// PrepareAt selects a template from pool weighted by overlap with
// siteStmt's own names, instantiates it against siteStmt's visible
// scope, and selects one instance by the co-occurrence probability
// model, returning the (groupID, instanceIdx) pair a ReplaceCardumen
// operator should carry (spec.md §4.9 end to end).
func (c *Catalog) PrepareAt(rng *rand.Rand, pool []Template, siteStmt langast.Stmt) (groupID, instanceIdx int, ok bool) {
	siteNames := langast.StmtNames(siteStmt)
	tmpl, ok := SelectTemplate(rng, pool, siteNames)
	if !ok {
		return 0, 0, false
	}

	visible := c.Scopes.VisibleNames(siteStmt)
	instances := Instantiate(tmpl, visible)
	if len(instances) == 0 {
		return 0, 0, false
	}

	inst, ok := SelectInstance(rng, instances, c.pm)
	if !ok {
		return 0, 0, false
	}

	c.mu.Lock()
	gid := c.nextGroup
	c.nextGroup++
	c.groups[gid] = instances
	c.mu.Unlock()

	return gid, inst.Index, true
}

// ResolveInstance implements mutate.CardumenResolver.
func (c *Catalog) ResolveInstance(groupID, instanceIdx int) (langast.Stmt, error) {
	c.mu.Lock()
	instances, ok := c.groups[groupID]
	c.mu.Unlock()
	if !ok {
		return nil, repairerr.New(repairerr.InternalInvariant, "cardumen: unknown template instantiation group")
	}
	for _, inst := range instances {
		if inst.Index == instanceIdx {
			return inst.Stmt, nil
		}
	}
	return nil, repairerr.New(repairerr.InternalInvariant, "cardumen: unknown cardumen instance index")
}
