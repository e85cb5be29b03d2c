package actions

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/rdbms/shared"
)

type ConnectionConfig struct {
	ConfigFile  ConnectionGetterSetter `errorTxt:"config file" mandatory:"yes"`
	Name        string                 `errorTxt:"connection name" mandatory:"yes"` // source or warehouse
	LogicalName string
	Type        string
	ConnDetails ConnectionValidator
	Force       bool
	Out         io.Writer
}

func (cfg *ConnectionConfig) out() io.Writer {
	if cfg.Out == nil {
		return os.Stdout
	}
	return cfg.Out
}

// supportedConnectionTypes maps connection names to the database type they must use.
var supportedConnectionTypes = map[string]string{
	config.ConnectionNameSource:    constants.ConnectionTypeSqlServer,
	config.ConnectionNameWarehouse: constants.ConnectionTypeSnowflake,
}

func RunConnectionAdd(cfg *ConnectionConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if strings.Contains(cfg.Name, ".") {
		return fmt.Errorf("connection name cannot contain period characters '.'")
	}
	if want, ok := supportedConnectionTypes[cfg.Name]; ok && want != cfg.Type {
		return fmt.Errorf("connection %q must be of type %v, got %q", cfg.Name, want, cfg.Type)
	}
	if cfg.ConnDetails == nil {
		return fmt.Errorf("supply details for connection %q", cfg.Name)
	}
	if _, err := cfg.ConnDetails.Parse(); err != nil {
		return errors.Wrap(err, "unable to create connection")
	}
	connection := shared.ConnectionDetails{
		LogicalName: cfg.LogicalName,
		Type:        cfg.Type,
		Data:        cfg.ConnDetails.GetMap(nil),
	}
	if connection.LogicalName == "" {
		connection.LogicalName = cfg.Name
	}
	// Check for an existing saved connection.
	if _, err := cfg.ConfigFile.LoadConnection(cfg.Name); err == nil && !cfg.Force {
		return fmt.Errorf("connection exists, use force to update the connection or remove it first")
	}
	if err := cfg.ConfigFile.SetConnection(cfg.Name, connection); err != nil {
		return fmt.Errorf("error writing config file after adding connection: %w", err)
	}
	fmt.Fprintf(cfg.out(), "Connection %q added\n", cfg.Name)
	return nil
}

func RunConnectionRemove(cfg *ConnectionConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if err := cfg.ConfigFile.DeleteConnection(cfg.Name); err != nil {
		return fmt.Errorf("unable to delete connection %q from config: %w", cfg.Name, err)
	}
	fmt.Fprintf(cfg.out(), "Connection %q removed\n", cfg.Name)
	return nil
}

// RunConnectionList prints each saved connection with passwords redacted.
func RunConnectionList(cfg *ConnectionConfig) error {
	if cfg.ConfigFile == nil {
		return fmt.Errorf("no config file supplied")
	}
	names, err := cfg.ConfigFile.ListConnections()
	if err != nil {
		return err
	}
	for _, n := range names {
		d, err := cfg.ConfigFile.LoadConnection(n)
		if err != nil {
			return err
		}
		fmt.Fprintf(cfg.out(), "%v:\n%v\n", n, d)
	}
	return nil
}
