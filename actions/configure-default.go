package actions

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/helper"
)

// DefaultsKey is the config file section holding default flag values.
const DefaultsKey = "defaults"

// DefaultKey returns the config key that holds the default for flag.
func DefaultKey(flag string) string {
	return DefaultsKey + "." + flag
}

type DefaultAddConfig struct {
	ConfigFile *config.File `errorTxt:"config-file" mandatory:"yes"`
	Key        string       `errorTxt:"key" mandatory:"yes"`
	Value      string       `errorTxt:"value" mandatory:"yes"`
	Force      bool
	Out        io.Writer
}

type DefaultRemoveConfig struct {
	ConfigFile *config.File `errorTxt:"config-file" mandatory:"yes"`
	Key        string       `errorTxt:"key" mandatory:"yes"`
	Out        io.Writer
}

type DefaultListConfig struct {
	ConfigFile *config.File `errorTxt:"config-file" mandatory:"yes"`
	Out        io.Writer
}

func outOrStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

// RunDefaultAdd saves a default flag value to the config file.
// If cfg.Force is not set then it returns an error when the key exists.
// The config file is created if it does not exist.
func RunDefaultAdd(cfg *DefaultAddConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil { // if the basics were not supplied...
		return err
	}
	key := DefaultKey(cfg.Key)
	var val string
	err := cfg.ConfigFile.Get(key, &val)
	if err == nil && !cfg.Force { // if key exists and we're not allowed to overwrite...
		return fmt.Errorf("key %q exists, use force to update the value or remove it first", cfg.Key)
	} else if err != nil && !errors.As(err, &config.KeyNotFoundError{}) && !errors.As(err, &config.FileNotFoundError{}) {
		return err
	}
	if err = cfg.ConfigFile.Set(key, cfg.Value); err != nil {
		return fmt.Errorf("error writing config file after adding: %w", err)
	}
	fmt.Fprintf(outOrStdout(cfg.Out), "Key %q added to %q\n", cfg.Key, cfg.ConfigFile.FullPath)
	return nil
}

// RunDefaultRemove removes a default flag value from the config file.
func RunDefaultRemove(cfg *DefaultRemoveConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil { // if the basics were not supplied...
		return err
	}
	if err := cfg.ConfigFile.Delete(DefaultKey(cfg.Key)); err != nil {
		return fmt.Errorf("unable to delete key %q from config: %w", cfg.Key, err)
	}
	fmt.Fprintf(outOrStdout(cfg.Out), "Key %q removed\n", cfg.Key)
	return nil
}

// RunDefaultList prints each default flag value as flag=value.
func RunDefaultList(cfg *DefaultListConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	keys, err := cfg.ConfigFile.GetSubKeys(DefaultsKey)
	if err != nil {
		if errors.As(err, &config.KeyNotFoundError{}) || errors.As(err, &config.FileNotFoundError{}) { // if there are no defaults...
			return nil
		}
		return err
	}
	for _, k := range keys {
		var val string
		if err := cfg.ConfigFile.Get(DefaultKey(k), &val); err != nil {
			return err
		}
		fmt.Fprintf(outOrStdout(cfg.Out), "%v=%v\n", k, val)
	}
	return nil
}
