package parser

import (
	"testing"

	"github.com/mnott/pynalyze/internal/core/errors"
)

func FuzzParse(f *testing.F) {
	f.Add([]byte("def main():\n    print(\"hello\")\nif __name__ == \"__main__\":\n    main()\n"))
	f.Add([]byte("from . import x as y\nclass A(B):\n    @d\n    def m(self): return self.f()\n"))
	f.Add([]byte("def broken(:\n"))
	f.Add([]byte("x = [a for a in b if c]\nlambda q=1: q\n"))

	p := NewParser()
	f.Fuzz(func(t *testing.T, data []byte) {
		mod, err := p.Parse("fuzz.py", data)
		if err != nil {
			if !errors.IsCode(err, errors.CodeSyntax) && !errors.IsCode(err, errors.CodeInternal) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			if mod != nil {
				t.Fatal("a failed parse must not return a partial module")
			}
			return
		}
		if mod == nil {
			t.Fatal("nil module without error")
		}
	})
}
