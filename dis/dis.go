// Package dis supports analysis of emitted Ember units by disassembling
// their byte streams. It works with the opcodes defined in the `op`
// package and resolves string, local and branch references against the
// owning unit and function tables.
package dis

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"

	"github.com/cloudcmds/ember/bytecode"
	"github.com/cloudcmds/ember/internal/table"
	"github.com/cloudcmds/ember/op"
)

// Instruction represents a single decoded instruction. Offsets are
// relative to the function's base.
type Instruction struct {
	Offset     int
	Name       string
	Opcode     op.Code
	Operands   []string
	Annotation string
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, fmt.Errorf("truncated stream at offset %d", r.pos)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readInt32() (int32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, fmt.Errorf("truncated stream at offset %d", r.pos)
	}
	v := int32(r.buf[r.pos]) |
		int32(r.buf[r.pos+1])<<8 |
		int32(r.buf[r.pos+2])<<16 |
		int32(r.buf[r.pos+3])<<24
	r.pos += 4
	return v, nil
}

func (r *reader) readInt64() (int64, error) {
	if r.pos+8 > len(r.buf) {
		return 0, fmt.Errorf("truncated stream at offset %d", r.pos)
	}
	var v int64
	for i := 7; i >= 0; i-- {
		v = v<<8 | int64(r.buf[r.pos+i])
	}
	r.pos += 8
	return v, nil
}

// readIVA reverses the variable-length integer encoding: the top two bits
// of the first byte select a 1, 2 or 4 byte width.
func (r *reader) readIVA() (int32, error) {
	b0, err := r.readByte()
	if err != nil {
		return 0, err
	}
	if b0&0x80 == 0 {
		return int32(int8(b0<<1)) >> 1, nil
	}
	if b0&0x40 == 0 {
		b1, err := r.readByte()
		if err != nil {
			return 0, err
		}
		v := int32(b0&0x3F)<<8 | int32(b1)
		return (v << 18) >> 18, nil
	}
	v := int32(b0 & 0x3F)
	for i := 0; i < 3; i++ {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		v = v<<8 | int32(b)
	}
	return (v << 2) >> 2, nil
}

// disassembler decodes one function's slice of the unit stream.
type disassembler struct {
	unit *bytecode.Unit
	fn   *bytecode.Function
	r    *reader
}

// Disassemble decodes the byte range of fn within its owning unit.
func Disassemble(unit *bytecode.Unit, fn *bytecode.Function) ([]Instruction, error) {
	d := &disassembler{
		unit: unit,
		fn:   fn,
		r:    &reader{buf: unit.BCRange(fn.Base(), fn.Past())},
	}
	var instructions []Instruction
	for d.r.pos < len(d.r.buf) {
		inst, err := d.next()
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, inst)
	}
	return instructions, nil
}

func (d *disassembler) next() (Instruction, error) {
	start := d.r.pos
	b, err := d.r.readByte()
	if err != nil {
		return Instruction{}, err
	}
	code := op.Code(b)
	info := op.GetInfo(code)
	if info.Name == "" {
		return Instruction{}, fmt.Errorf("unknown opcode %d at offset %d", b, start)
	}
	inst := Instruction{Offset: start, Name: info.Name, Opcode: code}
	var notes []string
	for _, kind := range info.Imms {
		if err := d.readImm(kind, start, &inst, &notes); err != nil {
			return Instruction{}, err
		}
	}
	inst.Annotation = strings.Join(notes, " ")
	return inst, nil
}

func (d *disassembler) readImm(kind op.ImmKind, start int, inst *Instruction, notes *[]string) error {
	addOperand := func(format string, args ...any) {
		inst.Operands = append(inst.Operands, fmt.Sprintf(format, args...))
	}
	switch kind {
	case op.IVA, op.IA:
		v, err := d.r.readIVA()
		if err != nil {
			return err
		}
		addOperand("%d", v)
	case op.I64:
		v, err := d.r.readInt64()
		if err != nil {
			return err
		}
		addOperand("%d", v)
	case op.DBL:
		bits, err := d.r.readInt64()
		if err != nil {
			return err
		}
		addOperand("%g", math.Float64frombits(uint64(bits)))
	case op.SA:
		id, err := d.r.readInt32()
		if err != nil {
			return err
		}
		addOperand("%d", id)
		*notes = append(*notes, fmt.Sprintf("%q", d.stringAt(id)))
	case op.AA:
		id, err := d.r.readInt32()
		if err != nil {
			return err
		}
		addOperand("%d", id)
		*notes = append(*notes, fmt.Sprintf("array:%d", id))
	case op.LA:
		slot, err := d.r.readIVA()
		if err != nil {
			return err
		}
		addOperand("%d", slot)
		if name := d.localName(slot); name != "" {
			*notes = append(*notes, name)
		}
	case op.BA:
		rel, err := d.r.readInt32()
		if err != nil {
			return err
		}
		addOperand("%d", rel)
		*notes = append(*notes, fmt.Sprintf("-> %d", start+int(rel)))
	case op.BLA:
		n, err := d.r.readInt32()
		if err != nil {
			return err
		}
		addOperand("%d", n)
		for i := int32(0); i < n; i++ {
			if err := d.readImm(op.BA, start, inst, notes); err != nil {
				return err
			}
		}
	case op.SLA:
		n, err := d.r.readInt32()
		if err != nil {
			return err
		}
		addOperand("%d", n)
		for i := int32(0); i < n-1; i++ {
			if err := d.readImm(op.SA, start, inst, notes); err != nil {
				return err
			}
			if err := d.readImm(op.BA, start, inst, notes); err != nil {
				return err
			}
		}
		marker, err := d.r.readInt32()
		if err != nil {
			return err
		}
		if marker != -1 {
			return fmt.Errorf("string switch at offset %d lacks default marker", start)
		}
		addOperand("%d", marker)
		if err := d.readImm(op.BA, start, inst, notes); err != nil {
			return err
		}
	case op.KA:
		if err := d.readMemberKey(start, inst, notes); err != nil {
			return err
		}
	case op.LAR:
		first, err := d.r.readIVA()
		if err != nil {
			return err
		}
		count, err := d.r.readIVA()
		if err != nil {
			return err
		}
		addOperand("%d", first)
		addOperand("%d", count)
	case op.OA:
		v, err := d.r.readByte()
		if err != nil {
			return err
		}
		addOperand("%d", v)
		if inst.Opcode == op.BinOp {
			if s := op.BinOpType(v).String(); s != "" {
				*notes = append(*notes, s)
			}
		}
	default:
		return fmt.Errorf("unknown immediate kind %d", kind)
	}
	return nil
}

func (d *disassembler) readMemberKey(start int, inst *Instruction, notes *[]string) error {
	mode, err := d.r.readByte()
	if err != nil {
		return err
	}
	inst.Operands = append(inst.Operands, fmt.Sprintf("%d", mode))
	switch op.MemberMode(mode) {
	case op.MemberElemCell, op.MemberPropCell:
		return d.readImm(op.IVA, start, inst, notes)
	case op.MemberElemLocal, op.MemberPropLocal:
		return d.readImm(op.LA, start, inst, notes)
	case op.MemberElemString, op.MemberPropString:
		return d.readImm(op.SA, start, inst, notes)
	case op.MemberElemInt:
		return d.readImm(op.I64, start, inst, notes)
	case op.MemberNewElem:
		return nil
	default:
		return fmt.Errorf("unknown member key mode %d at offset %d", mode, start)
	}
}

func (d *disassembler) stringAt(id int32) string {
	if id < 0 || int(id) >= d.unit.StringCount() {
		return fmt.Sprintf("<bad string %d>", id)
	}
	return d.unit.StringAt(bytecode.StringID(id))
}

// localName resolves a remapped local slot to its declared name: the
// first ParamCount slots are parameters, the rest index the local table.
func (d *disassembler) localName(slot int32) string {
	if slot < 0 {
		return ""
	}
	if int(slot) < d.fn.ParamCount() {
		return d.fn.ParamAt(int(slot)).Name
	}
	i := int(slot) - d.fn.ParamCount()
	if i >= d.fn.LocalCount() {
		return ""
	}
	return d.fn.LocalAt(i).Name
}

// Print writes a table of the given instructions to the writer.
func Print(instructions []Instruction, writer io.Writer) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	var rows [][]string
	for _, inst := range instructions {
		rows = append(rows, []string{
			fmt.Sprintf("%d", inst.Offset),
			bold.Sprint(inst.Name),
			strings.Join(inst.Operands, ", "),
			cyan.Sprint(inst.Annotation),
		})
	}
	table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(rows).
		Render()
}
