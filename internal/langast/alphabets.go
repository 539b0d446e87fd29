package langast

// Fixed per-kind operator alphabets for the Replace*Op mutation operators
// (spec.md §3/§4.3: "a fixed per-kind alphabet (a different one for
// compare-op)").
var (
	BinaryOpAlphabet  = []string{"+", "-", "*", "/", "%"}
	CompareOpAlphabet = []string{"==", "!=", "<", "<=", ">", ">="}
	UnaryOpAlphabet   = []string{"-", "not"}
	BoolOpAlphabet    = []string{"and", "or"}
)
