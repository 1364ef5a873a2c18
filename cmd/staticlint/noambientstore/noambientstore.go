// Package noambientstore reports package-level variables holding a storage or
// session store handle. Such handles belong to the application context built
// in internal/app and are passed to the components that need them.
package noambientstore

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

// storeHandles lists the forbidden named types by package path.
var storeHandles = map[string]map[string]bool{
	"database/sql":                      {"DB": true, "Conn": true},
	"go.mongodb.org/mongo-driver/mongo": {"Client": true, "Database": true, "Collection": true},
	"github.com/gorilla/sessions":       {"Store": true, "CookieStore": true, "FilesystemStore": true},
}

var Analyzer = &analysis.Analyzer{
	Name: "noambientstore",
	Doc:  "prohibits package-level variables that hold database or session store handles",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		for _, decl := range file.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.VAR {
				continue
			}

			for _, spec := range genDecl.Specs {
				valueSpec, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}

				for _, name := range valueSpec.Names {
					if name.Name == "_" {
						continue
					}
					obj := pass.TypesInfo.Defs[name]
					if obj == nil {
						continue
					}
					if handle, ok := storeHandle(obj.Type()); ok {
						pass.Reportf(name.Pos(), "package-level variable %s holds a store handle (%s)", name.Name, handle)
					}
				}
			}
		}
	}

	return nil, nil
}

// storeHandle reports whether typ, or the type it points to, is a store handle.
func storeHandle(typ types.Type) (string, bool) {
	if pointer, ok := typ.(*types.Pointer); ok {
		typ = pointer.Elem()
	}

	named, ok := typ.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return "", false
	}

	pkgPath := named.Obj().Pkg().Path()
	if !storeHandles[pkgPath][named.Obj().Name()] {
		return "", false
	}

	return pkgPath + "." + named.Obj().Name(), true
}
