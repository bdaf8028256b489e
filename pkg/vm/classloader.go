package vm

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/module"
)

// BootLoader is the name of the bootstrap class loader.
const BootLoader = "boot"

// ErrClassNotFound is wrapped by loaders that do not know a class.
var ErrClassNotFound = errors.New("class not found")

// ClassLoader loads and defines classes by internal name.
type ClassLoader interface {
	LoadClass(name string) (*Class, error)
	Name() string
}

// classCache keeps the first definition of each class. Two goroutines may
// define the same class concurrently; the loser's copy is dropped.
type classCache struct {
	classes *xsync.MapOf[string, *Class]
}

func newClassCache() classCache {
	return classCache{classes: xsync.NewMapOf[string, *Class]()}
}

func (c classCache) load(name string) (*Class, bool) {
	return c.classes.Load(name)
}

func (c classCache) publish(k *Class) *Class {
	actual, _ := c.classes.LoadOrStore(k.Name, k)
	return actual
}

// JmodClassLoader loads classes from a JDK jmod file into java.base.
type JmodClassLoader struct {
	JmodPath string
	graph    *module.Graph
	cache    classCache

	mu        sync.Mutex
	zipReader *zip.Reader
}

// NewJmodClassLoader creates a new JmodClassLoader defining into graph's java.base.
func NewJmodClassLoader(jmodPath string, graph *module.Graph) *JmodClassLoader {
	return &JmodClassLoader{
		JmodPath: jmodPath,
		graph:    graph,
		cache:    newClassCache(),
	}
}

func (cl *JmodClassLoader) Name() string { return BootLoader }

func (cl *JmodClassLoader) ensureZipReader() (*zip.Reader, error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.zipReader != nil {
		return cl.zipReader, nil
	}
	zr, err := openJmod(cl.JmodPath)
	if err != nil {
		return nil, err
	}
	cl.zipReader = zr
	return zr, nil
}

func openJmod(path string) (*zip.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("jmod: opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("jmod: reading %s: %w", path, err)
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("jmod: %s is too short", path)
	}

	zipData := data[4:] // Skip "JM\x01\x00" header
	zr, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, fmt.Errorf("jmod: opening zip: %w", err)
	}
	return zr, nil
}

func readJmodEntry(zr *zip.Reader, target string) (*classfile.ClassFile, error) {
	for _, file := range zr.File {
		if file.Name != target {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("jmod: opening %s: %w", target, err)
		}
		defer rc.Close()

		cf, err := classfile.Parse(rc)
		if err != nil {
			return nil, fmt.Errorf("jmod: parsing %s: %w", target, err)
		}
		return cf, nil
	}
	return nil, fmt.Errorf("jmod: %s: %w", target, ErrClassNotFound)
}

// ReadJmodDescriptor reads the module descriptor of a jmod file, so that a
// module graph can be seeded with the real java.base exports.
func ReadJmodDescriptor(jmodPath string) (module.Descriptor, error) {
	zr, err := openJmod(jmodPath)
	if err != nil {
		return module.Descriptor{}, err
	}
	cf, err := readJmodEntry(zr, "classes/module-info.class")
	if err != nil {
		return module.Descriptor{}, err
	}
	if cf.Module == nil {
		return module.Descriptor{}, fmt.Errorf("jmod: %s: module-info has no Module attribute", jmodPath)
	}
	return module.DescriptorFrom(cf.Module), nil
}

func (cl *JmodClassLoader) LoadClass(name string) (*Class, error) {
	if c, ok := cl.cache.load(name); ok {
		return c, nil
	}

	zr, err := cl.ensureZipReader()
	if err != nil {
		return nil, err
	}
	cf, err := readJmodEntry(zr, "classes/"+name+".class")
	if err != nil {
		return nil, err
	}
	c, err := DefineClass(cf, cl, cl.graph.Base())
	if err != nil {
		return nil, fmt.Errorf("jmod: %w", err)
	}
	return cl.cache.publish(c), nil
}

// UserClassLoader loads user classes from the classpath, delegating to the parent first.
//
// A classpath directory holding a module-info.class is loaded as that named
// module; any other directory maps to the loader's unnamed module.
type UserClassLoader struct {
	ClassPath string
	Parent    ClassLoader
	graph     *module.Graph
	cache     classCache

	moduleOnce sync.Once
	module     *module.Module
	moduleErr  error
}

// NewUserClassLoader creates a new UserClassLoader.
func NewUserClassLoader(classPath string, parent ClassLoader, graph *module.Graph) *UserClassLoader {
	return &UserClassLoader{
		ClassPath: classPath,
		Parent:    parent,
		graph:     graph,
		cache:     newClassCache(),
	}
}

func (cl *UserClassLoader) Name() string { return "app:" + cl.ClassPath }

// Module returns the module classes of this loader are defined in.
func (cl *UserClassLoader) Module() (*module.Module, error) {
	cl.moduleOnce.Do(func() {
		path := filepath.Join(cl.ClassPath, "module-info.class")
		if _, err := os.Stat(path); err != nil {
			cl.module = cl.graph.Unnamed(cl.Name())
			return
		}
		cf, err := classfile.ParseFile(path)
		if err != nil {
			cl.moduleErr = fmt.Errorf("user: parsing module-info: %w", err)
			return
		}
		if cf.Module == nil {
			cl.moduleErr = fmt.Errorf("user: %s has no Module attribute", path)
			return
		}
		cl.module, cl.moduleErr = cl.graph.Define(module.DescriptorFrom(cf.Module), cl.Name())
	})
	return cl.module, cl.moduleErr
}

func (cl *UserClassLoader) LoadClass(name string) (*Class, error) {
	if c, ok := cl.cache.load(name); ok {
		return c, nil
	}
	if cl.Parent != nil {
		c, err := cl.Parent.LoadClass(name)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrClassNotFound) {
			return nil, fmt.Errorf("user: parent loading %s: %w", name, err)
		}
	}

	mod, err := cl.Module()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(cl.ClassPath, filepath.FromSlash(name)+".class")
	cf, err := classfile.ParseFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("user: class %s: %w", name, ErrClassNotFound)
		}
		return nil, fmt.Errorf("user: class %s: %w", name, err)
	}
	c, err := DefineClass(cf, cl, mod)
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	return cl.cache.publish(c), nil
}
