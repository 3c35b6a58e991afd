// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":       "0",
	"MEMORY_SIZE":  fmt.Sprintf("%#v", MEMORY_SIZE),
	"PROGRAM_BASE": fmt.Sprintf("%#v", PROGRAM_BASE),
	"FONT_BASE":    fmt.Sprintf("%#v", FONT_BASE),
	"FONT_SIZE":    fmt.Sprintf("%#v", FONT_SIZE),
	"STACK_LIMIT":  fmt.Sprintf("%#v", STACK_LIMIT),
}

// Assembler is a single pass macro assembler for the CHIP-8 instruction
// set, in the syntax of Cowgod's technical reference. Operands are
// separated by spaces or commas; ';' starts a comment; 'label:' defines a
// jump target; '.equ', '.byte', '.word', and '.macro'/'.endm' are the
// directives.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of jump labels to memory addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regMap is a map of register names to register file indexes.
var regMap = map[string]uint8{
	"v0": 0x0, "v1": 0x1, "v2": 0x2, "v3": 0x3,
	"v4": 0x4, "v5": 0x5, "v6": 0x6, "v7": 0x7,
	"v8": 0x8, "v9": 0x9, "va": 0xa, "vb": 0xb,
	"vc": 0xc, "vd": 0xd, "ve": 0xe, "vf": 0xf,
}

// argKind classifies an instruction operand.
type argKind int

const (
	ARG_REG      = argKind(iota) // v0-vf
	ARG_INDEX                    // i
	ARG_INDIRECT                 // [i]
	ARG_DELAY                    // dt
	ARG_SOUND                    // st
	ARG_KEY                      // k
	ARG_FONT                     // f
	ARG_BCD                      // b
	ARG_VALUE                    // numeric
	ARG_LABEL                    // unresolved symbol
)

type arg struct {
	kind  argKind
	reg   uint8
	value uint16
	label string
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(word[1 : len(word)-1])
		return
	}
	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 < 0 {
		v64 = int64(uint16(v64))
	}
	if v64 > 0xffff {
		err = ErrValueRange
		return
	}
	value = uint16(v64)

	if invert {
		value = ^value
	}

	return
}

var labelRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// argOf classifies a single operand word.
func (asm *Assembler) argOf(word string) (a arg, err error) {
	lower := strings.ToLower(word)

	if reg, ok := regMap[lower]; ok {
		a = arg{kind: ARG_REG, reg: reg}
		return
	}

	switch lower {
	case "i":
		a = arg{kind: ARG_INDEX}
		return
	case "[i]":
		a = arg{kind: ARG_INDIRECT}
		return
	case "dt":
		a = arg{kind: ARG_DELAY}
		return
	case "st":
		a = arg{kind: ARG_SOUND}
		return
	case "k":
		a = arg{kind: ARG_KEY}
		return
	case "f":
		a = arg{kind: ARG_FONT}
		return
	case "b":
		a = arg{kind: ARG_BCD}
		return
	}

	value, verr := asm.valueOf(word)
	if verr == nil {
		a = arg{kind: ARG_VALUE, value: value}
		return
	}

	if labelRe.MatchString(word) {
		a = arg{kind: ARG_LABEL, label: word}
		return
	}

	err = verr

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value16 uint16
		value16, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value16))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint16(st_int64)
	return
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	// Commas separate operands the same as spaces.
	line = strings.ReplaceAll(line, ",", " ")

	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		if len(word) == 0 {
			continue
		}

		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		// '@' labels are uniqued per invocation so one expansion can
		// jump between its own lines.
		tag := fmt.Sprintf("%v_%v_", name, lineno)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", tag)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, macro.LineNo+n)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddr gets the memory address following the last assembled opcode.
func (asm *Assembler) currentAddr() int {
	if len(asm.Opcode) == 0 {
		return PROGRAM_BASE
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + len(last.Bytes)
}

// parseWords assembles a single directive or instruction line.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	if len(words) == 0 {
		return
	}

	op := Opcode{
		LineNo: lineno,
		Addr:   asm.currentAddr(),
		Words:  slices.Clone(words),
	}

	mnemonic := strings.ToLower(words[0])
	rest := words[1:]

	switch mnemonic {
	case ".byte":
		if len(rest) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range rest {
			var value uint16
			value, err = asm.valueOf(word)
			if err != nil {
				return
			}
			if value > 0xff {
				err = ErrValueRange
				return
			}
			op.Bytes = append(op.Bytes, uint8(value))
		}

	case ".word":
		if len(rest) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range rest {
			var value uint16
			value, err = asm.valueOf(word)
			if err != nil {
				return
			}
			op.Bytes = append(op.Bytes, uint8(value>>8), uint8(value))
		}

	default:
		var code Code
		code, op.LinkLabel, err = asm.encode(mnemonic, rest)
		if err != nil {
			return
		}
		op.Bytes = []uint8{uint8(uint16(code) >> 8), uint8(code)}
	}

	if asm.Verbose {
		log.Printf("%03x: % 02x  ; %v", op.Addr, op.Bytes, strings.Join(words, " "))
	}

	asm.Opcode = append(asm.Opcode, op)

	return
}

// nnnOf encodes an address operand, deferring unresolved labels to the
// final link pass.
func nnnOf(a arg) (nnn uint16, link string, err error) {
	switch a.kind {
	case ARG_VALUE:
		if a.value > 0xfff {
			err = ErrValueRange
			return
		}
		nnn = a.value
	case ARG_LABEL:
		link = a.label
	default:
		err = ErrTargetInvalid
	}

	return
}

// kkOf encodes an immediate byte operand.
func kkOf(a arg) (kk uint8, err error) {
	if a.kind != ARG_VALUE {
		err = ErrTargetInvalid
		return
	}
	if a.value > 0xff {
		err = ErrValueRange
		return
	}
	kk = uint8(a.value)

	return
}

// encode assembles one instruction word from a mnemonic and its operands.
func (asm *Assembler) encode(mnemonic string, rest []string) (code Code, link string, err error) {
	args := make([]arg, len(rest))
	for n, word := range rest {
		args[n], err = asm.argOf(word)
		if err != nil {
			return
		}
	}

	kinds := make([]argKind, len(args))
	for n, a := range args {
		kinds[n] = a.kind
	}

	match := func(want ...argKind) bool {
		return slices.Equal(kinds, want)
	}

	switch mnemonic {
	case "cls":
		if len(args) != 0 {
			err = ErrOpcodeExtraArgs
			return
		}
		code = Code(0x00e0)

	case "ret":
		if len(args) != 0 {
			err = ErrOpcodeExtraArgs
			return
		}
		code = Code(0x00ee)

	case "jp":
		switch {
		case len(args) == 1:
			var nnn uint16
			nnn, link, err = nnnOf(args[0])
			code = MakeCodeNNN(OP_JP, nnn)
		case len(args) == 2 && kinds[0] == ARG_REG:
			if args[0].reg != 0 {
				err = ErrRegisterInvalid
				return
			}
			var nnn uint16
			nnn, link, err = nnnOf(args[1])
			code = MakeCodeNNN(OP_JPV0, nnn)
		default:
			err = ErrTargetInvalid
		}

	case "call":
		if len(args) != 1 {
			err = ErrTargetInvalid
			return
		}
		var nnn uint16
		nnn, link, err = nnnOf(args[0])
		code = MakeCodeNNN(OP_CALL, nnn)

	case "se", "sne":
		group := map[string][2]uint8{
			"se":  {OP_SEI, OP_SE},
			"sne": {OP_SNEI, OP_SNE},
		}[mnemonic]
		switch {
		case match(ARG_REG, ARG_VALUE):
			var kk uint8
			kk, err = kkOf(args[1])
			code = MakeCodeXKK(group[0], args[0].reg, kk)
		case match(ARG_REG, ARG_REG):
			code = MakeCodeXYN(group[1], args[0].reg, args[1].reg, 0)
		default:
			err = ErrTargetInvalid
		}

	case "ld":
		switch {
		case match(ARG_REG, ARG_VALUE):
			var kk uint8
			kk, err = kkOf(args[1])
			code = MakeCodeXKK(OP_LDI, args[0].reg, kk)
		case match(ARG_REG, ARG_REG):
			code = MakeCodeXYN(OP_ALU, args[0].reg, args[1].reg, ALU_LD)
		case len(args) == 2 && kinds[0] == ARG_INDEX:
			var nnn uint16
			nnn, link, err = nnnOf(args[1])
			code = MakeCodeNNN(OP_LDX, nnn)
		case match(ARG_REG, ARG_DELAY):
			code = MakeCodeXKK(OP_MISC, args[0].reg, MISC_LD_DT)
		case match(ARG_DELAY, ARG_REG):
			code = MakeCodeXKK(OP_MISC, args[1].reg, MISC_ST_DT)
		case match(ARG_SOUND, ARG_REG):
			code = MakeCodeXKK(OP_MISC, args[1].reg, MISC_ST_ST)
		case match(ARG_REG, ARG_KEY):
			code = MakeCodeXKK(OP_MISC, args[0].reg, MISC_LD_KEY)
		case match(ARG_FONT, ARG_REG):
			code = MakeCodeXKK(OP_MISC, args[1].reg, MISC_FONT)
		case match(ARG_BCD, ARG_REG):
			code = MakeCodeXKK(OP_MISC, args[1].reg, MISC_BCD)
		case match(ARG_INDIRECT, ARG_REG):
			code = MakeCodeXKK(OP_MISC, args[1].reg, MISC_SAVE)
		case match(ARG_REG, ARG_INDIRECT):
			code = MakeCodeXKK(OP_MISC, args[0].reg, MISC_LOAD)
		default:
			err = ErrTargetInvalid
		}

	case "add":
		switch {
		case match(ARG_REG, ARG_VALUE):
			var kk uint8
			kk, err = kkOf(args[1])
			code = MakeCodeXKK(OP_ADDI, args[0].reg, kk)
		case match(ARG_REG, ARG_REG):
			code = MakeCodeXYN(OP_ALU, args[0].reg, args[1].reg, ALU_ADD)
		case match(ARG_INDEX, ARG_REG):
			code = MakeCodeXKK(OP_MISC, args[1].reg, MISC_ADD_I)
		default:
			err = ErrTargetInvalid
		}

	case "or", "and", "xor", "sub", "subn":
		sub := map[string]uint8{
			"or":   ALU_OR,
			"and":  ALU_AND,
			"xor":  ALU_XOR,
			"sub":  ALU_SUB,
			"subn": ALU_SUBN,
		}[mnemonic]
		if !match(ARG_REG, ARG_REG) {
			err = ErrTargetInvalid
			return
		}
		code = MakeCodeXYN(OP_ALU, args[0].reg, args[1].reg, sub)

	case "shr", "shl":
		sub := ALU_SHR
		if mnemonic == "shl" {
			sub = ALU_SHL
		}
		switch {
		case match(ARG_REG):
			code = MakeCodeXYN(OP_ALU, args[0].reg, 0, sub)
		case match(ARG_REG, ARG_REG):
			code = MakeCodeXYN(OP_ALU, args[0].reg, args[1].reg, sub)
		default:
			err = ErrTargetInvalid
		}

	case "rnd":
		if !match(ARG_REG, ARG_VALUE) {
			err = ErrTargetInvalid
			return
		}
		var kk uint8
		kk, err = kkOf(args[1])
		code = MakeCodeXKK(OP_RND, args[0].reg, kk)

	case "drw":
		if !match(ARG_REG, ARG_REG, ARG_VALUE) {
			err = ErrTargetInvalid
			return
		}
		if args[2].value > 0xf {
			err = ErrValueRange
			return
		}
		code = MakeCodeXYN(OP_DRW, args[0].reg, args[1].reg, uint8(args[2].value))

	case "skp", "sknp":
		kk := SKP_DOWN
		if mnemonic == "sknp" {
			kk = SKP_UP
		}
		if !match(ARG_REG) {
			err = ErrTargetInvalid
			return
		}
		code = MakeCodeXKK(OP_SKP, args[0].reg, kk)

	default:
		err = ErrOpcodeInvalid
	}

	return
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		all_words := strings.Split(line, " ")

		var words []string
		for _, single := range all_words {
			if len(single) > 0 {
				words = append(words, single)
			}
		}

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}
		if addr > 0xfff {
			err = ErrValueRange
			return
		}
		word := uint16(op.Bytes[0])<<8 | uint16(op.Bytes[1])
		word |= uint16(addr) & 0xfff
		op.Bytes[0] = uint8(word >> 8)
		op.Bytes[1] = uint8(word)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}
