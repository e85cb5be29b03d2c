package config

import (
	"fmt"

	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/rdbms/shared"
)

const connectionsKey = "connections"

func connectionKey(connectionName string) string {
	return connectionsKey + keySeparator + connectionName
}

// LoadConnection fetches the connection saved under connections.<connectionName>.
// An error is returned if the connection is missing or has no type.
func (c *File) LoadConnection(connectionName string) (shared.ConnectionDetails, error) {
	d := shared.ConnectionDetails{}
	if err := c.Get(connectionKey(connectionName), &d); err != nil { // if there was an error fetching the connection from config...
		return d, err
	}
	if d.Type == "" {
		return d, fmt.Errorf("unknown type for connection %q", connectionName)
	}
	if d.LogicalName == "" {
		d.LogicalName = connectionName
	}
	return d, nil
}

// SetConnection saves d under connections.<connectionName>.
func (c *File) SetConnection(connectionName string, d shared.ConnectionDetails) error {
	if d.LogicalName == "" {
		d.LogicalName = connectionName
	}
	if err := helper.ValidateStructIsPopulated(d); err != nil {
		return err
	}
	return c.Set(connectionKey(connectionName), d)
}

// DeleteConnection removes connections.<connectionName>.
func (c *File) DeleteConnection(connectionName string) error {
	return c.Delete(connectionKey(connectionName))
}

// ListConnections returns the sorted names of all saved connections.
func (c *File) ListConnections() ([]string, error) {
	return c.GetSubKeys(connectionsKey)
}
