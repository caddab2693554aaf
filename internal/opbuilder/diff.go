package opbuilder

// Diff snapshots prev and next and builds the plan. A nil prev (or a typed
// nil pointer) selects create mode.
func Diff(prev, next any, spec *Spec, gate Gate) Plan {
	return spec.Build(SnapshotOf(prev), SnapshotOf(next), gate)
}

// Build computes the operations that take an entity from prev to next.
// A nil prev is create mode: no delete is ever emitted. Fields and choices
// are visited in table order; a gated entry is skipped entirely unless the
// gate supports its capability.
func (s *Spec) Build(prev, next Snapshot, gate Gate) Plan {
	create := prev == nil
	ops := Plan{}

	for _, f := range s.Fields {
		if !allowed(gate, f.Capability) {
			continue
		}
		before, after := prev[f.Name], next[f.Name]
		switch f.Kind {
		case Scalar:
			ops = diffScalar(ops, f, before.Str, after.Str, create)
		case Boolean:
			ops = diffBool(ops, f, before.Bool, after.Bool, create)
		case List:
			ops = diffList(ops, f, before.List, after.List, create)
		}
	}

	for _, c := range s.Choices {
		if !allowed(gate, c.Capability) {
			continue
		}
		ops = diffChoice(ops, c, prev, next, create)
	}

	if s.DeletesFirst {
		ops = deletesFirst(ops)
	}
	return ops
}

func diffScalar(ops Plan, f FieldSpec, before, after string, create bool) Plan {
	if create {
		if after != "" {
			ops = append(ops, SetValue(f.SetOp, after))
		}
		return ops
	}
	if before == after {
		return ops
	}
	if after == "" {
		if f.DeleteOp != "" {
			ops = append(ops, Set(f.DeleteOp))
		}
		return ops
	}
	if f.ReplaceDeletes && before != "" && f.DeleteOp != "" {
		ops = append(ops, Set(f.DeleteOp))
	}
	return append(ops, SetValue(f.SetOp, after))
}

func diffBool(ops Plan, f FieldSpec, before, after bool, create bool) Plan {
	if create {
		if after {
			ops = append(ops, Set(f.SetOp))
		}
		return ops
	}
	switch {
	case before == after:
	case after:
		ops = append(ops, Set(f.SetOp))
	case f.DeleteOp != "":
		ops = append(ops, Set(f.DeleteOp))
	}
	return ops
}

func diffList(ops Plan, f FieldSpec, before, after []string, create bool) Plan {
	before, after = CleanList(before), CleanList(after)
	if create {
		before = nil
	}

	old := make(map[string]struct{}, len(before))
	for _, v := range before {
		old[v] = struct{}{}
	}
	cur := make(map[string]struct{}, len(after))
	for _, v := range after {
		cur[v] = struct{}{}
		if _, ok := old[v]; !ok {
			ops = append(ops, SetValue(f.SetOp, v))
		}
	}

	if create || f.DeleteOp == "" {
		return ops
	}
	for _, v := range before {
		if _, ok := cur[v]; !ok {
			ops = append(ops, SetValue(f.DeleteOp, v))
		}
	}
	return ops
}

// selection is the effective state of a choice group.
type selection struct {
	branch int
	value  string
}

func selectBranch(c Choice, snap Snapshot) selection {
	for i, b := range c.Branches {
		v := snap[b.Field]
		if !v.Bool && v.Str == "" {
			continue
		}
		switch {
		case b.Value != "":
			return selection{branch: i, value: b.Value}
		case v.Str != "":
			return selection{branch: i, value: v.Str}
		default:
			return selection{branch: i}
		}
	}
	return selection{branch: -1}
}

func diffChoice(ops Plan, c Choice, prev, next Snapshot, create bool) Plan {
	after := selectBranch(c, next)
	if create {
		if after.branch >= 0 {
			ops = append(ops, SetValue(c.Branches[after.branch].Op, after.value))
		}
		return ops
	}

	before := selectBranch(c, prev)
	if before == after {
		return ops
	}
	if after.branch >= 0 {
		return append(ops, SetValue(c.Branches[after.branch].Op, after.value))
	}
	if c.DeleteOp != "" {
		ops = append(ops, Set(c.DeleteOp))
	}
	return ops
}

func deletesFirst(ops Plan) Plan {
	out := make(Plan, 0, len(ops))
	for _, op := range ops {
		if op.IsDelete() {
			out = append(out, op)
		}
	}
	for _, op := range ops {
		if !op.IsDelete() {
			out = append(out, op)
		}
	}
	return out
}
