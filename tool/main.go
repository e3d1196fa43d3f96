// Command adtgen turns a small sum-type description into Go declarations:
// an interface with an is_<Name> marker method plus one named type per case.
//
//	adtgen forms.adt forms_gen.go sexp
package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/alecthomas/participle"

	. "github.com/dave/jennifer/jen"
)

type TypeDecls struct {
	Declarations []*Declaration `@@*`
}

type TCase struct {
	Name string `"|" @Ident "of"`
	Kind string `(@Ident | @String | @RawString)`
}

type Declaration struct {
	Name  string   `"type" @Ident "="`
	Plain *string  `(  (@Ident | @String | @RawString)`
	Many  []*TCase ` | @@+ )`
	I     struct{} `";"`
}

func (t *TypeDecls) IsSumType(name string) bool {
	for _, decls := range t.Declarations {
		if decls.Name == name && len(decls.Many) > 0 {
			return true
		}
	}
	return false
}

func GenerateDecls(pkgname string, t *TypeDecls) string {
	f := NewFile(pkgname)
	f.HeaderComment("Code generated by adtgen. DO NOT EDIT.")

	for _, decl := range t.Declarations {
		if decl.Plain != nil {
			f.Type().Id(decl.Name).Id(*decl.Plain)
			continue
		}

		marker := "is_" + decl.Name
		f.Type().Id(decl.Name).Interface(
			Id(marker).Params(),
		)

		for _, it := range decl.Many {
			if t.IsSumType(it.Kind) {
				f.Type().Id(it.Name).Struct(Id(it.Kind))
			} else {
				f.Type().Id(it.Name).Id(it.Kind)
			}

			f.Func().Params(Id("v").Id(it.Name)).Id(marker).Params().Block()
		}
	}

	return fmt.Sprintf("%#v", f)
}

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: adtgen <in.adt> <out.go> <package>")
		os.Exit(2)
	}

	parser := participle.MustBuild(&TypeDecls{}, participle.Unquote("String", "RawString"))

	in := os.Args[1]
	out := os.Args[2]
	pkgname := os.Args[3]

	inData, err := ioutil.ReadFile(in)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ast := TypeDecls{}
	err = parser.ParseBytes(inData, &ast)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", in, err)
		os.Exit(1)
	}

	err = ioutil.WriteFile(out, []byte(GenerateDecls(pkgname, &ast)), 0644)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
