package analyzer

import (
	"github.com/example/quartz-lang/compiler/internal/sql/funcs"
	"github.com/example/quartz-lang/compiler/internal/sql/parser"
	"github.com/example/quartz-lang/compiler/internal/sql/types"
)

// CheckRelAlg validates a relational operator tree: per-node expression
// constraints first, then table-collection, duplicate detection and
// column-access resolution over the whole tree.
func CheckRelAlg(env *funcs.Env, node parser.RelAlg) []Error {
	c := &checker{env: env}
	errs := c.checkRelNode(node)
	return append(errs, checkScope(node)...)
}

func (c *checker) checkRelNode(node parser.RelAlg) []Error {
	var errs []Error
	switch n := node.(type) {
	case *parser.Scan:
		return nil
	case *parser.Filter:
		for _, pred := range n.Preds {
			errs = append(errs, c.checkOperand(pred, types.Bool)...)
		}
		errs = append(errs, c.checkRelNode(n.Child)...)
	case *parser.GroupBy:
		for _, having := range n.Having {
			errs = append(errs, c.checkOperand(having, types.Bool)...)
		}
		// The generic pass below revisits the having clause on purpose;
		// a type error inside it is reported twice.
		for _, key := range n.Keys {
			_, es := c.checkExpr(key)
			errs = append(errs, es...)
		}
		for _, having := range n.Having {
			_, es := c.checkExpr(having)
			errs = append(errs, es...)
		}
		errs = append(errs, c.checkRelNode(n.Child)...)
	case *parser.Join:
		for _, cond := range n.Conds {
			errs = append(errs, c.checkOperand(cond, types.Bool)...)
		}
		errs = append(errs, c.checkRelNode(n.Left)...)
		errs = append(errs, c.checkRelNode(n.Right)...)
	case *parser.Sort:
		for _, key := range n.Keys {
			errs = append(errs, checkSortKey(key)...)
		}
		errs = append(errs, c.checkRelNode(n.Child)...)
	case *parser.Project:
		for _, item := range n.Items {
			_, es := c.checkExpr(item)
			errs = append(errs, es...)
		}
		errs = append(errs, c.checkRelNode(n.Child)...)
	}
	return errs
}

// checkSortKey admits bare identifiers and qualified column accesses only.
func checkSortKey(key parser.Expression) []Error {
	switch key.(type) {
	case *parser.Identifier, *parser.ColumnAccess:
		return nil
	default:
		return []Error{illegalExpr(parser.FormatExpression(key), key.Pos())}
	}
}

// checkScope resolves table bindings and qualified column accesses for one
// query tree. Bindings are processed in first-appearance order so the "first
// two of each duplicate group" report is reproducible.
func checkScope(node parser.RelAlg) []Error {
	bindings := collectTables(node)

	var errs []Error
	errs = append(errs, duplicateGroups(bindings, func(ref parser.TableRef) (string, bool) {
		return ref.Alias, ref.Alias != ""
	})...)
	errs = append(errs, duplicateGroups(bindings, func(ref parser.TableRef) (string, bool) {
		return ref.Name, ref.Alias == ""
	})...)

	// An aliased table is addressable only through its alias.
	resolvable := make(map[string]int, len(bindings))
	for _, ref := range bindings {
		name := ref.Name
		if ref.Alias != "" {
			name = ref.Alias
		}
		resolvable[name]++
	}

	for _, access := range collectAccesses(node) {
		switch {
		case resolvable[access.Table] > 1:
			errs = append(errs, ambiguousColumn(access.Table, access.Column, access.P))
		case resolvable[access.Table] == 0:
			errs = append(errs, unresolvedCorrelation(access.Table, access.Column, access.P))
		}
	}
	return errs
}

// duplicateGroups groups bindings by key in first-appearance order and
// reports the first two members of every group that collides.
func duplicateGroups(bindings []parser.TableRef, key func(parser.TableRef) (string, bool)) []Error {
	groups := make(map[string][]parser.TableRef)
	var order []string
	for _, ref := range bindings {
		k, ok := key(ref)
		if !ok {
			continue
		}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], ref)
	}
	var errs []Error
	for _, k := range order {
		group := groups[k]
		if len(group) > 1 {
			errs = append(errs, duplicateTable(group[0], group[1]))
		}
	}
	return errs
}

// collectTables gathers every table-scan leaf in pre-order.
func collectTables(node parser.RelAlg) []parser.TableRef {
	switch n := node.(type) {
	case *parser.Scan:
		return []parser.TableRef{n.Table}
	case *parser.Join:
		return append(collectTables(n.Left), collectTables(n.Right)...)
	default:
		var refs []parser.TableRef
		for _, child := range relChildren(node) {
			refs = append(refs, collectTables(child)...)
		}
		return refs
	}
}

// collectAccesses gathers the distinct qualified column accesses anywhere in
// the tree, in first-appearance order.
func collectAccesses(node parser.RelAlg) []*parser.ColumnAccess {
	seen := make(map[string]struct{})
	var accesses []*parser.ColumnAccess
	var visitExpr func(e parser.Expression)
	visitExpr = func(e parser.Expression) {
		if access, ok := e.(*parser.ColumnAccess); ok {
			key := access.Table + "." + access.Column
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				accesses = append(accesses, access)
			}
		}
		for _, child := range childExprs(e) {
			visitExpr(child)
		}
	}
	var visitNode func(n parser.RelAlg)
	visitNode = func(n parser.RelAlg) {
		for _, e := range relExprs(n) {
			visitExpr(e)
		}
		for _, child := range relChildren(n) {
			visitNode(child)
		}
	}
	visitNode(node)
	return accesses
}

// relExprs lists every expression a node carries, in source order.
func relExprs(node parser.RelAlg) []parser.Expression {
	switch n := node.(type) {
	case *parser.Filter:
		return n.Preds
	case *parser.GroupBy:
		return append(append([]parser.Expression{}, n.Keys...), n.Having...)
	case *parser.Join:
		return n.Conds
	case *parser.Sort:
		return n.Keys
	case *parser.Project:
		return n.Items
	default:
		return nil
	}
}

// relChildren lists a node's child operators.
func relChildren(node parser.RelAlg) []parser.RelAlg {
	switch n := node.(type) {
	case *parser.Filter:
		return []parser.RelAlg{n.Child}
	case *parser.GroupBy:
		return []parser.RelAlg{n.Child}
	case *parser.Join:
		return []parser.RelAlg{n.Left, n.Right}
	case *parser.Sort:
		return []parser.RelAlg{n.Child}
	case *parser.Project:
		return []parser.RelAlg{n.Child}
	default:
		return nil
	}
}
