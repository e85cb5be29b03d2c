package tabledefinition

import (
	"fmt"
	"strings"
)

// Mapper converts source database type names to ColumnType.
type Mapper interface {
	Map(databaseTypeName string) (ColumnType, bool)
}

type dataTypeLink struct {
	SourceDataType string
	ColumnType     ColumnType
}

type dataTypeMap map[string]ColumnType

func newDataTypeMapper(types []dataTypeLink) dataTypeMap {
	dtm := make(dataTypeMap, len(types))
	for _, row := range types { // for each data type link...
		dtm[row.SourceDataType] = row.ColumnType
	}
	return dtm
}

// Map returns false for types we don't know, so callers can skip type checks for them.
func (d dataTypeMap) Map(databaseTypeName string) (ColumnType, bool) {
	t, ok := d[strings.ToLower(strings.TrimSpace(databaseTypeName))]
	return t, ok
}

// SqlServerDataTypeMapping maps the go-mssqldb DatabaseTypeName values to staged column types.
var SqlServerDataTypeMapping = []dataTypeLink{
	{"bigint", ColumnTypeInteger},
	{"int", ColumnTypeInteger},
	{"smallint", ColumnTypeInteger},
	{"tinyint", ColumnTypeInteger},
	{"decimal", ColumnTypeFloat},
	{"numeric", ColumnTypeFloat},
	{"money", ColumnTypeFloat},
	{"smallmoney", ColumnTypeFloat},
	{"float", ColumnTypeFloat},
	{"real", ColumnTypeFloat},
	{"char", ColumnTypeString},
	{"nchar", ColumnTypeString},
	{"varchar", ColumnTypeString},
	{"nvarchar", ColumnTypeString},
	{"text", ColumnTypeString},
	{"ntext", ColumnTypeString},
	{"date", ColumnTypeTimestamp},
	{"datetime", ColumnTypeTimestamp},
	{"datetime2", ColumnTypeTimestamp},
	{"smalldatetime", ColumnTypeTimestamp},
	{"datetimeoffset", ColumnTypeTimestamp},
}

func NewSqlServerDataTypeMapper() Mapper {
	return newDataTypeMapper(SqlServerDataTypeMapping)
}

// snowflakeColumnTypes is the warehouse type used for each staged column type.
// TIMESTAMP_NTZ matches the zone-less timestamps written to the CSV files.
var snowflakeColumnTypes = map[ColumnType]string{
	ColumnTypeInteger:   "number(38,0)",
	ColumnTypeFloat:     "float",
	ColumnTypeString:    "varchar",
	ColumnTypeTimestamp: "timestamp_ntz",
}

// SnowflakeDataType returns the Snowflake column type for c.
func SnowflakeDataType(c ColumnType) (string, error) {
	t, ok := snowflakeColumnTypes[c]
	if !ok {
		return "", fmt.Errorf("no Snowflake data type for column type %q", c)
	}
	return t, nil
}

// ConvertTableSpecToSnowflake returns the column definition list for t, e.g. "SalesOrderID number(38,0), ...".
func ConvertTableSpecToSnowflake(t TableSpec) (string, error) {
	cols := make([]string, len(t.Schema))
	for idx, c := range t.Schema {
		dt, err := SnowflakeDataType(c.Type)
		if err != nil {
			return "", fmt.Errorf("table %v column %v: %w", t.Name, c.Name, err)
		}
		cols[idx] = fmt.Sprintf("%v %v", c.Name, dt)
	}
	return strings.Join(cols, ", "), nil
}
