// Released under an MIT license. See LICENSE.

package cell

// Handles in the reserved low range. These cells are created in this order
// when a heap is initialized and the collector copies them first, in order,
// so their handles never change.
const (
	Zero H = iota

	// Special values.
	Nil
	False
	True
	Dot
	Arrow
	Undefined
	Unspecified
	ClosureHead
	Circular
	Begin
	CallCC

	// Evaluator phases. A frame's continuation tag is one of these.
	VMApply
	VMApply2
	VMBegin
	VMBeginEval
	VMBeginExpand
	VMBeginExpandEval
	VMBeginExpandMacro
	VMBeginExpandPrimitiveLoad
	VMBeginPrimitiveLoad
	VMCallCC2
	VMCallWithValues2
	VMEval
	VMEval2
	VMEvalCheckFunc
	VMEvalDefine
	VMEvalMacroExpandEval
	VMEvalMacroExpandExpand
	VMEvalPmatchCar
	VMEvalPmatchCdr
	VMEvalSetX
	VMEvlis
	VMEvlis2
	VMEvlis3
	VMIf
	VMIfExpr
	VMMacroExpand
	VMMacroExpandCar
	VMMacroExpandCdr
	VMMacroExpandDefine
	VMMacroExpandDefineMacro
	VMMacroExpandLambda
	VMMacroExpandSetX
	VMReturn

	// Well-known symbols.
	SymbolLambda
	SymbolBegin
	SymbolIf
	SymbolQuote
	SymbolDefine
	SymbolDefineMacro
	SymbolQuasiquote
	SymbolUnquote
	SymbolUnquoteSplicing
	SymbolSetX
	SymbolMacroExpand
	SymbolPortableMacroExpand
	SymbolScExpanderAlist
	SymbolCallWithValues
	SymbolCallCC
	SymbolCallCCShort
	SymbolBootModule
	SymbolCurrentModule
	SymbolPrimitiveLoad
	SymbolCar
	SymbolCdr
	SymbolNotANumber
	SymbolNotAPair
	SymbolSystemError
	SymbolThrow
	SymbolUnboundVariable
	SymbolWrongNumberOfArgs
	SymbolWrongTypeArg
	SymbolBuckets
	SymbolBuiltin
	SymbolFrame
	SymbolHashqTable
	SymbolModule
	SymbolProcedure
	SymbolRecordType
	SymbolSize
	SymbolStack
	SymbolArgv
	SymbolDatadir
	SymbolVersion
	SymbolCompiler
	SymbolArch
	SymbolInternalTimeUnits
	SymbolPmatchCar
	SymbolPmatchCdr

	// Type names, in tag order. See TypeName.
	TypeChar
	TypeBytes
	TypeClosure
	TypeContinuation
	TypeKeyword
	TypeMacro
	TypeNumber
	TypePair
	TypePort
	TypeRef
	TypeSpecial
	TypeString
	TypeStruct
	TypeSymbol
	TypeValues
	TypeVariable
	TypeVector
	TypeBrokenHeart
	TypeFunction

	SymbolTest

	// Max is the first handle after the reserved range.
	Max
)

// FirstSymbol is the first reserved handle tagged Symbol rather than Special.
const FirstSymbol = SymbolLambda

//nolint:gochecknoglobals
var names = [Max]string{
	Zero:        "",
	Nil:         "()",
	False:       "#f",
	True:        "#t",
	Dot:         ".",
	Arrow:       "=>",
	Undefined:   "*undefined*",
	Unspecified: "*unspecified*",
	ClosureHead: "*closure*",
	Circular:    "*circular*",
	Begin:       "*begin*",
	CallCC:      "*call/cc*",

	VMApply:                    "core:apply",
	VMApply2:                   "*vm:apply2*",
	VMBegin:                    "*vm:begin*",
	VMBeginEval:                "*vm:begin-eval*",
	VMBeginExpand:              "core:eval",
	VMBeginExpandEval:          "*vm:begin-expand-eval*",
	VMBeginExpandMacro:         "*vm:begin-expand-macro*",
	VMBeginExpandPrimitiveLoad: "*vm:begin-expand-primitive-load*",
	VMBeginPrimitiveLoad:       "*vm:begin-primitive-load*",
	VMCallCC2:                  "*vm:call-with-current-continuation2*",
	VMCallWithValues2:          "*vm:call-with-values2*",
	VMEval:                     "core:eval-expanded",
	VMEval2:                    "*vm:eval2*",
	VMEvalCheckFunc:            "*vm:eval-check-func*",
	VMEvalDefine:               "*vm:eval-define*",
	VMEvalMacroExpandEval:      "*vm:eval-macro-expand-eval*",
	VMEvalMacroExpandExpand:    "*vm:eval-macro-expand-expand*",
	VMEvalPmatchCar:            "*vm:eval-pmatch-car*",
	VMEvalPmatchCdr:            "*vm:eval-pmatch-cdr*",
	VMEvalSetX:                 "*vm:eval-set!*",
	VMEvlis:                    "*vm:evlis*",
	VMEvlis2:                   "*vm:evlis2*",
	VMEvlis3:                   "*vm:evlis3*",
	VMIf:                       "*vm:if*",
	VMIfExpr:                   "*vm:if-expr*",
	VMMacroExpand:              "core:macro-expand",
	VMMacroExpandCar:           "*vm:macro-expand-car*",
	VMMacroExpandCdr:           "*vm:macro-expand-cdr*",
	VMMacroExpandDefine:        "*vm:macro-expand-define*",
	VMMacroExpandDefineMacro:   "*vm:macro-expand-define-macro*",
	VMMacroExpandLambda:        "*vm:macro-expand-lambda*",
	VMMacroExpandSetX:          "*vm:macro-expand-set!*",
	VMReturn:                   "*vm:return*",

	SymbolLambda:              "lambda",
	SymbolBegin:               "begin",
	SymbolIf:                  "if",
	SymbolQuote:               "quote",
	SymbolDefine:              "define",
	SymbolDefineMacro:         "define-macro",
	SymbolQuasiquote:          "quasiquote",
	SymbolUnquote:             "unquote",
	SymbolUnquoteSplicing:     "unquote-splicing",
	SymbolSetX:                "set!",
	SymbolMacroExpand:         "macro-expand",
	SymbolPortableMacroExpand: "portable-macro-expand",
	SymbolScExpanderAlist:     "*sc-expander-alist*",
	SymbolCallWithValues:      "call-with-values",
	SymbolCallCC:              "call-with-current-continuation",
	SymbolCallCCShort:         "call/cc",
	SymbolBootModule:          "boot-module",
	SymbolCurrentModule:       "current-module",
	SymbolPrimitiveLoad:       "primitive-load",
	SymbolCar:                 "car",
	SymbolCdr:                 "cdr",
	SymbolNotANumber:          "not-a-number",
	SymbolNotAPair:            "not-a-pair",
	SymbolSystemError:         "system-error",
	SymbolThrow:               "throw",
	SymbolUnboundVariable:     "unbound-variable",
	SymbolWrongNumberOfArgs:   "wrong-number-of-args",
	SymbolWrongTypeArg:        "wrong-type-arg",
	SymbolBuckets:             "buckets",
	SymbolBuiltin:             "<builtin>",
	SymbolFrame:               "<frame>",
	SymbolHashqTable:          "<hashq-table>",
	SymbolModule:              "<module>",
	SymbolProcedure:           "procedure",
	SymbolRecordType:          "<record-type>",
	SymbolSize:                "size",
	SymbolStack:               "<stack>",
	SymbolArgv:                "%argv",
	SymbolDatadir:             "%datadir",
	SymbolVersion:             "%version",
	SymbolCompiler:            "%compiler",
	SymbolArch:                "%arch",
	SymbolInternalTimeUnits:   "internal-time-units-per-second",
	SymbolPmatchCar:           "pmatch-car",
	SymbolPmatchCdr:           "pmatch-cdr",

	TypeChar:         "<cell:char>",
	TypeBytes:        "<cell:bytes>",
	TypeClosure:      "<cell:closure>",
	TypeContinuation: "<cell:continuation>",
	TypeKeyword:      "<cell:keyword>",
	TypeMacro:        "<cell:macro>",
	TypeNumber:       "<cell:number>",
	TypePair:         "<cell:pair>",
	TypePort:         "<cell:port>",
	TypeRef:          "<cell:ref>",
	TypeSpecial:      "<cell:special>",
	TypeString:       "<cell:string>",
	TypeStruct:       "<cell:struct>",
	TypeSymbol:       "<cell:symbol>",
	TypeValues:       "<cell:values>",
	TypeVariable:     "<cell:variable>",
	TypeVector:       "<cell:vector>",
	TypeBrokenHeart:  "<cell:broken-heart>",
	TypeFunction:     "<cell:function>",

	SymbolTest: "%%test",
}

// Name returns the printed name of the reserved handle h.
func Name(h H) string {
	if h < 0 || h >= Max {
		return ""
	}

	return names[h]
}

// Reserved returns true if h is in the reserved low range.
func Reserved(h H) bool {
	return h > Zero && h < Max
}

// TypeName returns the reserved symbol naming tag t.
func TypeName(t Tag) H {
	return TypeChar + H(t)
}

// IsPhase returns true if h is one of the evaluator's continuation tags.
func IsPhase(h H) bool {
	return h >= VMApply && h <= VMReturn
}
