package emitter

import (
	"github.com/cloudcmds/ember/bytecode"
	"github.com/cloudcmds/ember/ir"
)

// cinitName is the synthetic method that computes deferred class
// constants at load time.
const cinitName = "86cinit"

// hasDeferredConst reports whether any constant needs the synthetic
// initializer to run.
func hasDeferredConst(cls *ir.Class) bool {
	for _, c := range cls.Constants {
		if c.HasValue && c.Deferred {
			return true
		}
	}
	return false
}

// closureInvoke returns the closure's invoke method.
func closureInvoke(cls *ir.Class) *ir.Func {
	for _, m := range cls.Methods {
		if m.IsClosureBody {
			return m
		}
	}
	return nil
}

// emitClass encodes a class's methods into the unit stream and assembles
// its tables. The defining instruction's offset is not known until every
// function in the unit has been emitted, so the result is returned as
// ClassParams and sealed by the unit assembler.
func (us *unitState) emitClass(cls *ir.Class) (bytecode.ClassParams, error) {
	us.log.Debug().Str("class", cls.Name).Msg("emitting class")

	var methods []*bytecode.Function
	for _, m := range cls.Methods {
		// The constant initializer only runs when a deferred constant
		// exists; otherwise every constant value is already known and the
		// method is dead weight.
		if m.Name == cinitName && !hasDeferredConst(cls) {
			continue
		}
		fn, err := us.emitFunc(m)
		if err != nil {
			return bytecode.ClassParams{}, err
		}
		methods = append(methods, fn)
	}

	// Closure properties bind the captured variables in declaration
	// order; their types come from the invoke method's capture analysis
	// rather than from per-property inference.
	var useVars []bytecode.TypeProfile
	if cls.IsClosure {
		if invoke := closureInvoke(cls); invoke != nil {
			useVars = us.facts.ClosureUseVars(invoke)
		}
	}

	var props []bytecode.Property
	for i, p := range cls.Properties {
		profile := bytecode.TypeProfile{Tag: bytecode.TagTop}
		if cls.IsClosure {
			if i < len(useVars) {
				profile = useVars[i]
			}
		} else {
			profile = us.facts.PropertyType(cls, p.Name)
		}
		us.internProfile(profile)
		props = append(props, bytecode.Property{
			Name:         p.Name,
			Attrs:        uint16(p.Attrs),
			TypeHint:     p.TypeHint,
			DefaultValue: p.DefaultValue,
			Profile:      profile,
		})
	}

	var consts []bytecode.Constant
	for _, c := range cls.Constants {
		consts = append(consts, bytecode.Constant{
			Name:        c.Name,
			Value:       c.Value,
			HasValue:    c.HasValue,
			Deferred:    c.Deferred,
			TypeHint:    c.TypeHint,
			IsTypeConst: c.IsTypeConst,
		})
	}

	return bytecode.ClassParams{
		Name:       cls.Name,
		ParentName: cls.ParentName,

		Interfaces: cls.Interfaces,
		UsedTraits: cls.UsedTraits,

		Constants:  consts,
		Properties: props,
		Methods:    methods,

		IfaceSlot:    us.facts.IfaceSlot(cls),
		EnumBaseType: cls.EnumBaseType,

		DefOffset: bytecode.InvalidOffset,

		Loc: sourceRange(cls.Loc),
	}, nil
}
