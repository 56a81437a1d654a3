package silo

import "github.com/TheBitDrifter/mask"

// QueryNode is a reusable, evaluable filter over archetypes (spec §5, C5).
type QueryNode interface {
	evaluate(arch *archetype, world *World) bool
}

// Query builds a QueryNode by combining with/without/with_any component
// filters, which are always AND-combined together (spec §5: "all three maps
// apply simultaneously"). Construct one with Factory.NewQuery, then chain
// With/Without/WithAny.
type Query struct {
	with    []Component
	without []Component
	withAny []Component
}

func newQuery() *Query { return &Query{} }

// With requires the archetype to carry every listed component.
func (q *Query) With(components ...Component) *Query {
	q.with = append(q.with, components...)
	return q
}

// Without requires the archetype to carry none of the listed components.
func (q *Query) Without(components ...Component) *Query {
	q.without = append(q.without, components...)
	return q
}

// WithAny requires the archetype to carry at least one of the listed
// components.
func (q *Query) WithAny(components ...Component) *Query {
	q.withAny = append(q.withAny, components...)
	return q
}

// Node finalizes the query into an immutable QueryNode snapshot.
func (q *Query) Node() QueryNode {
	return &queryNode{
		with:    append([]Component(nil), q.with...),
		without: append([]Component(nil), q.without...),
		withAny: append([]Component(nil), q.withAny...),
	}
}

type queryNode struct {
	with    []Component
	without []Component
	withAny []Component
}

func maskFor(world *World, components []Component) mask.Mask {
	var m mask.Mask
	for _, c := range components {
		m.Mark(world.RowIndexFor(c))
	}
	return m
}

func (n *queryNode) evaluate(arch *archetype, world *World) bool {
	if len(n.with) > 0 && !arch.matchesAll(maskFor(world, n.with)) {
		return false
	}
	if len(n.without) > 0 && !arch.matchesNone(maskFor(world, n.without)) {
		return false
	}
	if len(n.withAny) > 0 && !arch.matchesAny(maskFor(world, n.withAny)) {
		return false
	}
	return true
}
