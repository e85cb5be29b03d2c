package actions

import (
	"github.com/relloyd/salespipe/rdbms/shared"
)

type ConnectionLoader interface {
	LoadConnection(connectionName string) (shared.ConnectionDetails, error)
}

type ConnectionGetterSetter interface {
	ConnectionLoader
	SetConnection(connectionName string, d shared.ConnectionDetails) error
	DeleteConnection(connectionName string) error
	ListConnections() ([]string, error)
}

type ConnectionValidator interface {
	Parse() (string, error)
	GetMap(m map[string]string) map[string]string
}
