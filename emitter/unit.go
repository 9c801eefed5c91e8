package emitter

import (
	"fmt"

	"github.com/gofrs/uuid"

	"github.com/cloudcmds/ember/bytecode"
	"github.com/cloudcmds/ember/errz"
	"github.com/cloudcmds/ember/ir"
)

// EmitUnit lowers one optimized unit to its final bytecode form.
//
// Bodies are encoded into a single shared byte stream in a fixed order:
// the pseudomain, then every class's methods, then the free functions.
// Class definition sites are discovered while encoding, so classes are
// sealed only after the last function has been emitted.
func EmitUnit(unit *ir.Unit, cfg *Config) (*bytecode.Unit, error) {
	if err := unit.Validate(); err != nil {
		return nil, errz.Malformed(unit.Filename, err)
	}

	us := newUnitState(unit, cfg)
	us.log.Debug().Str("filename", unit.Filename).Msg("emitting unit")

	pseudomain, err := us.emitFunc(unit.Pseudomain)
	if err != nil {
		return nil, err
	}

	classParams := make([]bytecode.ClassParams, len(unit.Classes))
	for i, cls := range unit.Classes {
		cp, err := us.emitClass(cls)
		if err != nil {
			return nil, err
		}
		classParams[i] = cp
	}

	funcs := make([]*bytecode.Function, 0, len(unit.Funcs))
	for _, fn := range unit.Funcs {
		emitted, err := us.emitFunc(fn)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, emitted)
	}

	classes := make([]*bytecode.Class, len(classParams))
	for i := range classParams {
		classParams[i].DefOffset = us.defClsMap[i]
		classes[i] = bytecode.NewClass(classParams[i])
	}

	var aliases []bytecode.TypeAlias
	for _, ta := range unit.TypeAliases {
		aliases = append(aliases, bytecode.TypeAlias{Name: ta.Name, Type: ta.Type})
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("unit build id: %w", err)
	}

	p := bytecode.UnitParams{
		ID:       id,
		Filename: unit.Filename,

		BC: us.w.bytes(),

		Pseudomain: pseudomain,
		Funcs:      funcs,
		Classes:    classes,

		TypeAliases: aliases,

		Strings: us.strings.Snapshot(),
		Arrays:  us.arrays.Snapshot(),
	}

	// System-library units are fully mergeable and carry a synthetic
	// trivial top-level return; everything else keeps whatever top-level
	// return the pseudomain actually executes.
	if unit.IsSystemLib() {
		p.MergeOnly = true
		p.MainReturn = int64(1)
	} else {
		p.ReturnSeen = true
	}

	out := bytecode.NewUnit(p)
	us.log.Info().
		Str("filename", unit.Filename).
		Int("bytes", out.BCLen()).
		Int("funcs", out.FuncCount()).
		Int("classes", out.ClassCount()).
		Msg("unit emitted")
	return out, nil
}
