package bytecode

import "fmt"

// Function represents one emitted function. It is immutable after creation
// and holds the auxiliary tables the loader needs plus the [base, past)
// range of the function's code within the unit's byte stream.
type Function struct {
	name    string
	clsName string

	base int
	past int

	params  []Param
	locals  []Local
	statics []StaticVar

	numIters int

	ehTab  []EHEnt
	fpiTab []FPIEnt
	lines  []LineEntry

	maxStackDepth int
	maxFPIDepth   int
	maxStackCells int

	containsCalls bool
	isClosureBody bool
	isAsync       bool
	isGenerator   bool
	top           bool

	retProfile     TypeProfile
	hasRetProfile  bool
	awaitedProfile TypeProfile
	hasAwaited     bool

	loc SourceRange
}

// FunctionParams contains parameters for creating a new Function.
type FunctionParams struct {
	Name    string
	ClsName string

	Base int
	Past int

	Params  []Param
	Locals  []Local
	Statics []StaticVar

	NumIters int

	EHTab  []EHEnt
	FPITab []FPIEnt
	Lines  []LineEntry

	MaxStackDepth int
	MaxFPIDepth   int
	MaxStackCells int

	ContainsCalls bool
	IsClosureBody bool
	IsAsync       bool
	IsGenerator   bool
	Top           bool

	RetProfile     TypeProfile
	HasRetProfile  bool
	AwaitedProfile TypeProfile
	HasAwaited     bool

	Loc SourceRange
}

// NewFunction creates a new immutable Function. Input slices are copied.
func NewFunction(params FunctionParams) *Function {
	return &Function{
		name:           params.Name,
		clsName:        params.ClsName,
		base:           params.Base,
		past:           params.Past,
		params:         copySlice(params.Params),
		locals:         copySlice(params.Locals),
		statics:        copySlice(params.Statics),
		numIters:       params.NumIters,
		ehTab:          copySlice(params.EHTab),
		fpiTab:         copySlice(params.FPITab),
		lines:          copySlice(params.Lines),
		maxStackDepth:  params.MaxStackDepth,
		maxFPIDepth:    params.MaxFPIDepth,
		maxStackCells:  params.MaxStackCells,
		containsCalls:  params.ContainsCalls,
		isClosureBody:  params.IsClosureBody,
		isAsync:        params.IsAsync,
		isGenerator:    params.IsGenerator,
		top:            params.Top,
		retProfile:     params.RetProfile,
		hasRetProfile:  params.HasRetProfile,
		awaitedProfile: params.AwaitedProfile,
		hasAwaited:     params.HasAwaited,
		loc:            params.Loc,
	}
}

// Name returns the function name.
func (f *Function) Name() string { return f.name }

// ClsName returns the enclosing class name, or "" for free functions.
func (f *Function) ClsName() string { return f.clsName }

// FullName returns "Cls::name" for methods and the bare name otherwise.
func (f *Function) FullName() string {
	if f.clsName == "" {
		return f.name
	}
	return fmt.Sprintf("%s::%s", f.clsName, f.name)
}

// Base returns the start of the function's code in the unit stream.
func (f *Function) Base() int { return f.base }

// Past returns the offset just past the function's code.
func (f *Function) Past() int { return f.past }

// ParamCount returns the number of parameter-table entries.
func (f *Function) ParamCount() int { return len(f.params) }

// ParamAt returns the parameter-table entry at the given index.
func (f *Function) ParamAt(i int) Param { return f.params[i] }

// LocalCount returns the number of local-table entries.
func (f *Function) LocalCount() int { return len(f.locals) }

// LocalAt returns the local-table entry at the given index.
func (f *Function) LocalAt(i int) Local { return f.locals[i] }

// StaticCount returns the number of static-variable declarations.
func (f *Function) StaticCount() int { return len(f.statics) }

// StaticAt returns the static-variable declaration at the given index.
func (f *Function) StaticAt(i int) StaticVar { return f.statics[i] }

// NumIters returns the function's iterator slot count.
func (f *Function) NumIters() int { return f.numIters }

// EHEntCount returns the number of exception-table entries.
func (f *Function) EHEntCount() int { return len(f.ehTab) }

// EHEntAt returns the exception-table entry at the given index.
func (f *Function) EHEntAt(i int) EHEnt { return f.ehTab[i] }

// FPIEntCount returns the number of call-site-region entries.
func (f *Function) FPIEntCount() int { return len(f.fpiTab) }

// FPIEntAt returns the call-site-region entry at the given index.
func (f *Function) FPIEntAt(i int) FPIEnt { return f.fpiTab[i] }

// LineEntryCount returns the number of line-table entries.
func (f *Function) LineEntryCount() int { return len(f.lines) }

// LineEntryAt returns the line-table entry at the given index.
func (f *Function) LineEntryAt(i int) LineEntry { return f.lines[i] }

// MaxStackDepth returns the deepest operand-stack depth reached.
func (f *Function) MaxStackDepth() int { return f.maxStackDepth }

// MaxFPIDepth returns the deepest call-site nesting reached.
func (f *Function) MaxFPIDepth() int { return f.maxFPIDepth }

// MaxStackCells returns the total stack storage to reserve for a frame.
func (f *Function) MaxStackCells() int { return f.maxStackCells }

// ContainsCalls returns true if the function emits any call.
func (f *Function) ContainsCalls() bool { return f.containsCalls }

// IsClosureBody returns true for the body of a closure.
func (f *Function) IsClosureBody() bool { return f.isClosureBody }

// IsAsync returns true for async functions.
func (f *Function) IsAsync() bool { return f.isAsync }

// IsGenerator returns true for generators.
func (f *Function) IsGenerator() bool { return f.isGenerator }

// Top returns true for top-level (non-nested) definitions.
func (f *Function) Top() bool { return f.top }

// RetProfile returns the return-type assertion, if one was recorded.
func (f *Function) RetProfile() (TypeProfile, bool) {
	return f.retProfile, f.hasRetProfile
}

// AwaitedProfile returns the awaited inner-type assertion, if recorded.
func (f *Function) AwaitedProfile() (TypeProfile, bool) {
	return f.awaitedProfile, f.hasAwaited
}

// Loc returns the function's source range.
func (f *Function) Loc() SourceRange { return f.loc }

func copySlice[T any](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
