package ir

import "strings"

// DataType is the semantic type of a column or expression.
type DataType int

const (
	TypeUnknown DataType = iota
	TypeTinyInt
	TypeSmallInt
	TypeInt
	TypeBigInt
	TypeDouble
	TypeText
	TypeBool
	TypeTimestamp
	TypeUUID
	TypeBlob
)

var dataTypeNames = map[DataType]string{
	TypeUnknown:   "unknown",
	TypeTinyInt:   "tinyint",
	TypeSmallInt:  "smallint",
	TypeInt:       "int",
	TypeBigInt:    "bigint",
	TypeDouble:    "double",
	TypeText:      "text",
	TypeBool:      "boolean",
	TypeTimestamp: "timestamp",
	TypeUUID:      "uuid",
	TypeBlob:      "blob",
}

// aliases accepted by ParseDataType in addition to the canonical names.
var dataTypeAliases = map[string]DataType{
	"varchar": TypeText,
	"bool":    TypeBool,
	"integer": TypeInt,
	"counter": TypeBigInt,
}

func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseDataType resolves a CQL type name, case-insensitively.
func ParseDataType(name string) (DataType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range dataTypeNames {
		if t != TypeUnknown && n == name {
			return t, true
		}
	}
	if t, ok := dataTypeAliases[name]; ok {
		return t, true
	}
	return TypeUnknown, false
}

// IsInteger reports whether t is one of the integer types.
func (t DataType) IsInteger() bool {
	switch t {
	case TypeTinyInt, TypeSmallInt, TypeInt, TypeBigInt:
		return true
	}
	return false
}

// IsNumeric reports whether t is an integer or floating type.
func (t DataType) IsNumeric() bool {
	return t.IsInteger() || t == TypeDouble
}

// ConvertibleTo reports whether a value of type t may be assigned to or
// compared with a column of type target. Unknown converts to anything.
func (t DataType) ConvertibleTo(target DataType) bool {
	if t == TypeUnknown || target == TypeUnknown || t == target {
		return true
	}
	if t.IsNumeric() && target.IsNumeric() {
		return true
	}
	// Text literals are accepted for uuid, timestamp and blob columns.
	if t == TypeText {
		switch target {
		case TypeUUID, TypeTimestamp, TypeBlob:
			return true
		}
	}
	return false
}
