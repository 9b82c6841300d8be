package lua

import (
	"fmt"
	"io"
	"strings"
)

// Disassemble renders proto and its nested prototypes as a flat listing
// of opcodes, in gopher-lua's opToString/proto.String idiom, generalized
// to walk nested prototypes recursively the way
// lastvoidtemplar/golua51's disassembler tool walks its header (its
// header-printing/instruction-naming style is the model here).
func Disassemble(w io.Writer, proto *FunctionProto) {
	disasm(w, proto, 0)
}

func disasm(w io.Writer, proto *FunctionProto, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%sfunction <%s:%d,%d> (%d instructions, %d params%s)\n",
		indent, proto.SourceName, proto.LineDefined, proto.LastLineDefined,
		len(proto.Code), proto.NumParameters, varargSuffix(proto))
	for pc, instr := range proto.Code {
		fmt.Fprintf(w, "%s  [%d] %-4d %s\n", indent, pc+1, proto.LineAt(pc), instructionString(instr))
	}
	if len(proto.Constants) > 0 {
		fmt.Fprintf(w, "%sconstants (%d):\n", indent, len(proto.Constants))
		for i, k := range proto.Constants {
			fmt.Fprintf(w, "%s  [%d] %s\n", indent, i, constString(k))
		}
	}
	for _, nested := range proto.Prototypes {
		disasm(w, nested, depth+1)
	}
}

func varargSuffix(p *FunctionProto) string {
	if p.IsVarArg != 0 {
		return ", vararg"
	}
	return ""
}

func constString(v LValue) string {
	if s, ok := v.(LString); ok {
		return fmt.Sprintf("%q", string(s))
	}
	return v.String()
}
