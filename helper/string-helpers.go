package helper

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/relloyd/salespipe/constants"
)

// GetCsvStringFromInterface will convert a value scanned from database/sql into a CSV field.
// Times are written in UTC using constants.TimeFormatCsvTimestamp.
// NULL becomes the empty string.
func GetCsvStringFromInterface(input interface{}) (retval string, err error) {
	switch v := input.(type) {
	case int, int16, int32, int64, int8, uint8, uint16, uint32, uint64:
		retval = fmt.Sprintf("%d", v)
	case string:
		retval = v
	case float32:
		retval = strconv.FormatFloat(float64(v), 'f', -1, 32) // use 'f' to convert float to string without an exponent i.e. preserve all decimal points.
	case float64:
		retval = strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		retval = v.UTC().Format(constants.TimeFormatCsvTimestamp)
	case []uint8: // decimals from go-mssqldb arrive as bytes.
		retval = string(v)
	case bool:
		retval = strconv.FormatBool(v)
	case nil:
		retval = ""
	default:
		err = fmt.Errorf("unhandled type while fetching string from interface: type = %v; value = %v", reflect.TypeOf(input), input)
	}
	return
}

// GetTrueFalseStringAsBool trims spaces from s and checks if it can regexp (case insensitive) match "true".
// It returns true if there's a match else false.
func GetTrueFalseStringAsBool(s string) bool {
	re := regexp.MustCompile("(?i)^(true|yes|1)$")
	return re.MatchString(strings.TrimSpace(s))
}

// StringsToCsv joins s with commas.
func StringsToCsv(s []string) string {
	return strings.Join(s, ",")
}

// ToLowerTrim lower-cases s after trimming spaces.
func ToLowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
