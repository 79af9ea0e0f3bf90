// Package apppkg provides Vespa application packages that can be written
// to an application root directory.
package apppkg

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

const (
	ServicesFile = "services.xml"
	HostsFile    = "hosts.xml"
	SchemasDir   = "schemas"
)

// Package is an in-memory application package.
type Package struct {
	AppName  string
	Services string            // services.xml content
	Hosts    string            // hosts.xml content, optional
	Schemas  map[string]string // schema name -> .sd content
}

// Name returns the application name.
func (p *Package) Name() string {
	return p.AppName
}

// SchemaNames returns the schema names in sorted order.
func (p *Package) SchemaNames() []string {
	names := make([]string, 0, len(p.Schemas))
	for name := range p.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToFiles writes services.xml, hosts.xml and schemas/*.sd into dir.
func (p *Package) ToFiles(dir string) error {
	if p.Services == "" {
		return fmt.Errorf("application package %q has no services.xml", p.AppName)
	}
	if err := os.MkdirAll(filepath.Join(dir, SchemasDir), 0755); err != nil {
		return fmt.Errorf("create application root: %w", err)
	}
	if err := writeFile(filepath.Join(dir, ServicesFile), p.Services); err != nil {
		return err
	}
	if p.Hosts != "" {
		if err := writeFile(filepath.Join(dir, HostsFile), p.Hosts); err != nil {
			return err
		}
	}
	for _, name := range p.SchemaNames() {
		if err := writeFile(filepath.Join(dir, SchemasDir, name+".sd"), p.Schemas[name]); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// =============================================================================
// Directory Package
// =============================================================================

// Dir is an application package already materialized on disk.
type Dir struct {
	AppName string
	Path    string
}

// Name returns the application name, defaulting to the directory name.
func (d *Dir) Name() string {
	if d.AppName != "" {
		return d.AppName
	}
	return filepath.Base(filepath.Clean(d.Path))
}

// ToFiles copies the directory tree into dir.
func (d *Dir) ToFiles(dir string) error {
	if _, err := os.Stat(filepath.Join(d.Path, ServicesFile)); err != nil {
		return fmt.Errorf("application package %s: %w", d.Path, err)
	}
	return filepath.WalkDir(d.Path, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.Path, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
