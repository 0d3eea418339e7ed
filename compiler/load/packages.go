package load

import (
	"context"
	"errors"
	"fmt"
	"go/token"

	"golang.org/x/tools/go/packages"
)

// Packages extracts the unit made of the packages matching patterns,
// resolved from dir by the go tool. Only packages with a role are scanned.
func Packages(ctx context.Context, dir string, patterns []string, buildFlags []string) (*Unit, error) {
	cfg := &packages.Config{
		Context:    ctx,
		Dir:        dir,
		Fset:       token.NewFileSet(),
		Mode:       packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedModule,
		BuildFlags: buildFlags,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load: packages %v: %w", patterns, err)
	}
	var errs []error
	s := NewScanner(cfg.Fset)
	name := ""
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
		if pkg.Module != nil && name == "" {
			name = pkg.Module.Path
		}
		if RoleOf(pkg.PkgPath) == RoleNone {
			continue
		}
		for _, f := range pkg.Syntax {
			s.AddFile(f, pkg.PkgPath)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("load: packages %v: %w", patterns, err)
	}
	if name == "" {
		name = dir
	}
	u := &Unit{Name: name, Classes: s.Classes()}
	u.Sort()
	return u, nil
}
