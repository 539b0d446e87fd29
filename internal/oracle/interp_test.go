package oracle

import (
	"context"
	"testing"

	"mendr/internal/langast"
)

// buggyMedianSrc mirrors spec.md §8 scenario S1: a three-argument median
// function with a buggy clause returning y where it should return x.
const buggyMedianSrc = `func median(x, y, z) {
    if (y < z) {
        if (x < y) {
            return y
        } else {
            if (x < z) {
                return y
            }
        }
    } else {
        if (x > y) {
            return y
        } else {
            if (x > z) {
                return x
            }
        }
    }
    return z
}
`

const fixedMedianSrc = `func median(x, y, z) {
    if (y < z) {
        if (x < y) {
            return y
        } else {
            if (x < z) {
                return x
            }
        }
    } else {
        if (x > y) {
            return y
        } else {
            if (x > z) {
                return x
            }
        }
    }
    return z
}
`

func medianCases() []Case {
	return []Case{
		{Name: "1,2,3", Func: "median", Args: []Value{int64(1), int64(2), int64(3)}, Want: int64(2)},
		{Name: "3,2,1", Func: "median", Args: []Value{int64(3), int64(2), int64(1)}, Want: int64(2)},
		{Name: "3,3,5", Func: "median", Args: []Value{int64(3), int64(3), int64(5)}, Want: int64(3)},
		{Name: "5,3,4", Func: "median", Args: []Value{int64(5), int64(3), int64(4)}, Want: int64(4)},
		{Name: "5,5,5", Func: "median", Args: []Value{int64(5), int64(5), int64(5)}, Want: int64(5)},
		{Name: "2,1,3", Func: "median", Args: []Value{int64(2), int64(1), int64(3)}, Want: int64(2)},
	}
}

func parseOne(t *testing.T, src string) *langast.Program {
	t.Helper()
	f, errs := langast.ParseFile("median.src", src)
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	return &langast.Program{Files: []*langast.File{f}}
}

func TestBuggyMedianFailsExactlyTheOneCase(t *testing.T) {
	it := NewInterpreter(parseOne(t, buggyMedianSrc))
	report := it.Run(context.Background(), medianCases())
	failing := report.Failing()
	if len(failing) != 1 || failing[0] != "2,1,3" {
		t.Fatalf("expected exactly the (2,1,3) case to fail, got failing=%v", failing)
	}
	if len(report.Passing()) != 5 {
		t.Fatalf("expected 5 passing cases, got %d", len(report.Passing()))
	}
}

func TestFixedMedianPassesEverything(t *testing.T) {
	it := NewInterpreter(parseOne(t, fixedMedianSrc))
	report := it.Run(context.Background(), medianCases())
	if len(report.Failing()) != 0 {
		t.Fatalf("expected all cases to pass, failing=%v", report.Failing())
	}
}

func TestCallUnknownFunctionErrors(t *testing.T) {
	it := NewInterpreter(parseOne(t, buggyMedianSrc))
	if _, err := it.Call("nonexistent", nil); err == nil {
		t.Fatalf("expected an error calling an unknown function")
	}
}

func TestWhileLoopAccumulates(t *testing.T) {
	src := `func sumTo(n) {
    total = 0
    i = 0
    while (i < n) {
        total = total + i
        i = i + 1
    }
    return total
}
`
	it := NewInterpreter(parseOne(t, src))
	got, err := it.Call("sumTo", []Value{int64(5)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got.(int64) != 10 {
		t.Fatalf("expected sumTo(5) == 10, got %v", got)
	}
}
