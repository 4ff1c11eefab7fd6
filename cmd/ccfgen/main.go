// Command ccfgen is optional tooling: it parses a Go source file
// declaring a schema struct whose fields are tagged `ccf:"name=...,
// doc='...',args=...,fn=..."`, and renders a registry file that wires
// each tagged entry into an rpc.Dispatcher at init time. The generated
// file registers each entry through rpc.NewCall, so registration and
// invocation still use reflection exactly as a hand-written registry does.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log"
	"os"
	"reflect"
	"strings"
	"text/template"
)

// Call is one schema-struct field's tagged metadata, the shape the
// template renders into one rpc.NewCall(...) wiring line.
type Call struct {
	Name    string
	Doc     string
	Args    []string
	FuncRef string // identifier of the implementing function, same package
}

func main() {
	inputPath := flag.String("input", "", "Go source file declaring the ccf schema struct")
	outputPath := flag.String("output", "registry_generated.go", "path to write the generated registry file")
	packageName := flag.String("package", "main", "package name for the generated file")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("ccfgen: -input is required")
	}

	calls, err := parseSchema(*inputPath)
	if err != nil {
		log.Fatal(err)
	}

	t, err := template.New("registry").Parse(registryTemplate)
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	data := struct {
		Package string
		Calls   []Call
	}{Package: *packageName, Calls: calls}
	if err := t.Execute(&buf, data); err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile(*outputPath, buf.Bytes(), 0644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("ccfgen: wrote %s (%d calls)\n", *outputPath, len(calls))
}

// parseSchema walks path's top-level struct declarations looking for
// fields carrying a `ccf:"..."` tag.
func parseSchema(path string) ([]Call, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("ccfgen: parse %q: %w", path, err)
	}

	var calls []Call
	ast.Inspect(node, func(n ast.Node) bool {
		s, ok := n.(*ast.StructType)
		if !ok {
			return true
		}
		for _, f := range s.Fields.List {
			if f.Tag == nil || len(f.Names) == 0 {
				continue
			}
			tag := reflect.StructTag(strings.Trim(f.Tag.Value, "`"))
			ccfTag, ok := tag.Lookup("ccf")
			if !ok {
				continue
			}
			call, err := parseCallTag(f.Names[0].Name, ccfTag)
			if err != nil {
				log.Printf("ccfgen: %v", err)
				continue
			}
			calls = append(calls, call)
		}
		return false
	})
	return calls, nil
}

// parseCallTag parses one `ccf:"name=...,doc='...',args=a b,fn=Ident"`
// tag body: a key=value[,key=value...] grammar with quoted values via
// single-quotes; argument names within args are separated by spaces.
func parseCallTag(fieldName, tagBody string) (Call, error) {
	call := Call{Name: fieldName, FuncRef: fieldName}
	for tagBody != "" {
		i := strings.Index(tagBody, "=")
		if i == -1 {
			return Call{}, fmt.Errorf("malformed ccf tag (missing =): %q [field %s]", tagBody, fieldName)
		}
		key := tagBody[:i]
		tagBody = tagBody[i+1:]

		var value string
		if strings.HasPrefix(tagBody, "'") {
			tagBody = tagBody[1:]
			j := strings.Index(tagBody, "'")
			if j == -1 {
				return Call{}, fmt.Errorf("malformed ccf tag (missing closing '): %q [field %s]", tagBody, fieldName)
			}
			value = tagBody[:j]
			tagBody = strings.TrimPrefix(tagBody[j+1:], ",")
		} else if j := strings.Index(tagBody, ","); j != -1 {
			value = tagBody[:j]
			tagBody = tagBody[j+1:]
		} else {
			value = tagBody
			tagBody = ""
		}

		switch key {
		case "name":
			call.Name = value
		case "doc":
			call.Doc = value
		case "fn":
			call.FuncRef = value
		case "args":
			if value != "" {
				call.Args = strings.Split(value, " ")
			}
		}
	}
	return call, nil
}

const registryTemplate = `// Code generated by ccfgen. DO NOT EDIT.

package {{.Package}}

import "github.com/commsccf/ccf/rpc"

// Dispatcher is the compile-time RPC registry generated from the tagged
// schema struct: one rpc.NewCall per tagged field, in declaration order.
var Dispatcher = rpc.NewDispatcher(
{{- range .Calls}}
	rpc.NewCall("{{.Name}}", "{{.Doc}}", []string{ {{range $i, $a := .Args}}{{if $i}}, {{end}}"{{$a}}"{{end}} }, {{.FuncRef}}),
{{- end}}
)
`
