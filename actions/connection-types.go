package actions

import (
	"fmt"

	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/rdbms"
	"github.com/relloyd/salespipe/rdbms/shared"
)

// SnowflakeDsnDetails validates a snowflake:// DSN using the Snowflake driver's parser.
type SnowflakeDsnDetails struct {
	Dsn string
}

func (d SnowflakeDsnDetails) Parse() (string, error) {
	if _, err := rdbms.SnowflakeParseDSN(d.Dsn); err != nil {
		return "", err
	}
	return constants.ConnectionTypeSnowflake, nil
}

func (d SnowflakeDsnDetails) GetMap(m map[string]string) map[string]string {
	return shared.DsnConnectionDetails{Dsn: d.Dsn}.GetMap(m)
}

// NewConnectionValidator returns the validator for DSNs of the given connection type.
func NewConnectionValidator(connectionType string, dsn string) (ConnectionValidator, error) {
	switch connectionType {
	case constants.ConnectionTypeSnowflake:
		return SnowflakeDsnDetails{Dsn: dsn}, nil
	case constants.ConnectionTypeSqlServer:
		return shared.DsnConnectionDetails{Dsn: dsn}, nil
	}
	return nil, fmt.Errorf("unsupported connection type %q", connectionType)
}
