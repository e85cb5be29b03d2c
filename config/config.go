package config

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"
)

var salesPipeHomeDir string

// Main is the default config file found in the user's home directory.
var Main *File

func init() {
	Main = NewConfigFileWithDir(mustGetConfigHomeDir(), MainFileFullName)
}

const (
	MainDir            = ".salespipe"
	MainFileNamePrefix = "config"
	MainFileNameExt    = "yaml"
	MainFileFullName   = MainFileNamePrefix + "." + MainFileNameExt
	keySeparator       = "."
)

// FileNotFoundError denotes failing to find configuration file.
type FileNotFoundError struct {
	name string
}

// Error returns the formatted configuration error.
func (f FileNotFoundError) Error() string {
	return fmt.Sprintf("config file %q not found", f.name)
}

type KeyNotFoundError struct {
	configFile string
	key        string
	err        error
}

func (k KeyNotFoundError) Error() string {
	if k.err != nil {
		return fmt.Sprintf("key %q not found in config file %q: %v", k.key, k.configFile, k.err)
	}
	return fmt.Sprintf("key %q not found in config file %q", k.key, k.configFile)
}

// File is a YAML config file whose keys may be nested using dots, e.g. "connections.source".
type File struct {
	Dirname      string
	FileName     string
	FilePrefix   string
	FileExt      string
	FullPath     string
	data         map[string]interface{}
	dataIsLoaded bool
	f            *fileStore
	mu           sync.Mutex
}

func NewConfigFileWithDir(dirName string, filename string) *File {
	c := &File{Dirname: dirName, FileName: filename}
	c.FullPath = path.Join(dirName, filename)
	c.FileExt = strings.TrimLeft(path.Ext(filename), ".")
	c.FilePrefix = strings.TrimSuffix(c.FileName, "."+c.FileExt)
	c.data = make(map[string]interface{})
	c.f = newFileStore(dirName, filename)
	return c
}

// Exists returns true if the file is present on disk.
func (c *File) Exists() bool {
	return fileExists(c.FullPath)
}

// Get will fetch the key from the config File into variable, out.
// Values are decoded using mapstructure so out may be a string, a number or a struct with mapstructure tags.
// Return a KeyNotFoundError if we can't find the key.
func (c *File) Get(key string, out interface{}) error {
	if reflect.ValueOf(out).Kind() != reflect.Ptr {
		return errors.New("out must be a pointer")
	}
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	c.mu.Lock()
	d, ok := lookup(c.data, key)
	c.mu.Unlock()
	if !ok { // if the key was not found...
		return KeyNotFoundError{configFile: c.FullPath, key: key}
	}
	if err := mapstructure.Decode(d, out); err != nil {
		return KeyNotFoundError{c.FullPath, key, err}
	}
	return nil
}

// Decode unpacks the whole file into out.
// Fields of out that have no key in the file are left untouched so callers can set defaults first.
// A missing file is not an error.
func (c *File) Decode(out interface{}) error {
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(c.data); err != nil {
		return fmt.Errorf("error decoding config file %v: %w", c.FullPath, err)
	}
	return nil
}

// Set saves val at key and writes the file.
func (c *File) Set(key string, val interface{}) error {
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	val, err := normalise(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	parts := strings.Split(key, keySeparator)
	var m map[interface{}]interface{}
	if len(parts) > 1 {
		m = childMap(c.data, parts[0])
		for _, p := range parts[1 : len(parts)-1] {
			m = childMapIface(m, p)
		}
		m[parts[len(parts)-1]] = val
	} else {
		c.data[key] = val
	}
	return c.save(key)
}

// Delete removes key and writes the file.
func (c *File) Delete(key string) error {
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := lookup(c.data, key); !ok {
		return KeyNotFoundError{configFile: c.FullPath, key: key}
	}
	parts := strings.Split(key, keySeparator)
	if len(parts) == 1 {
		delete(c.data, key)
	} else {
		parent, _ := lookup(c.data, strings.Join(parts[:len(parts)-1], keySeparator))
		delete(parent.(map[interface{}]interface{}), parts[len(parts)-1])
	}
	return c.save(key)
}

// GetAllKeys returns the sorted top level keys.
func (c *File) GetAllKeys() ([]string, error) {
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	retval := make([]string, 0, len(c.data))
	for k := range c.data {
		retval = append(retval, k)
	}
	sort.Strings(retval)
	return retval, nil
}

// GetSubKeys returns the sorted keys found under key.
func (c *File) GetSubKeys(key string) ([]string, error) {
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := lookup(c.data, key)
	if !ok {
		return nil, nil
	}
	m, ok := v.(map[interface{}]interface{})
	if !ok {
		return nil, fmt.Errorf("key %q in config file %v is not a section", key, c.FullPath)
	}
	retval := make([]string, 0, len(m))
	for k := range m {
		retval = append(retval, fmt.Sprint(k))
	}
	sort.Strings(retval)
	return retval, nil
}

func (c *File) save(key string) error {
	b, err := yaml.Marshal(c.data)
	if err != nil {
		return fmt.Errorf("error marshalling data while writing key %v to config file %v: %v", key, c.FullPath, err)
	}
	return c.f.Set(b)
}

func (c *File) ensureLoaded() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dataIsLoaded {
		return nil
	}
	b, err := c.f.Get()
	if err != nil {
		if errors.As(err, &FileNotFoundError{}) { // if the file is missing we start empty...
			c.dataIsLoaded = true
			return nil
		}
		return err
	}
	data := make(map[string]interface{})
	if err = yaml.Unmarshal(b, &data); err != nil {
		return fmt.Errorf("error parsing config file %v: %w", c.FullPath, err)
	}
	c.data = data
	c.dataIsLoaded = true
	return nil
}

// normalise converts val to the generic types produced by yaml.Unmarshal so that values behave the same
// whether they were read from disk or set in this process.
func normalise(val interface{}) (interface{}, error) {
	b, err := yaml.Marshal(val)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err = yaml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// lookup walks the dotted key through nested maps.
func lookup(data map[string]interface{}, key string) (interface{}, bool) {
	parts := strings.Split(key, keySeparator)
	v, ok := data[parts[0]]
	if !ok {
		return nil, false
	}
	for _, p := range parts[1:] {
		m, isMap := v.(map[interface{}]interface{})
		if !isMap {
			return nil, false
		}
		if v, ok = m[p]; !ok {
			return nil, false
		}
	}
	return v, true
}

func childMap(data map[string]interface{}, key string) map[interface{}]interface{} {
	if m, ok := data[key].(map[interface{}]interface{}); ok {
		return m
	}
	m := make(map[interface{}]interface{})
	data[key] = m
	return m
}

func childMapIface(data map[interface{}]interface{}, key string) map[interface{}]interface{} {
	if m, ok := data[key].(map[interface{}]interface{}); ok {
		return m
	}
	m := make(map[interface{}]interface{})
	data[key] = m
	return m
}
