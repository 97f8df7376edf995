package utils

import (
	"reflect"
	"strings"
)

// UpdatesFromPtrDTO turns a partial-update DTO into a column map for
// Resource.Update. Only non-nil pointer fields are taken; the key is the json
// name. renames maps a json name to a column, and "-" drops the field so the
// controller can convert it itself.
func UpdatesFromPtrDTO(dto any, renames map[string]string) map[string]any {
	updates := make(map[string]any)
	v := reflect.Indirect(reflect.ValueOf(dto))
	if v.Kind() != reflect.Struct {
		return updates
	}
	for _, sf := range reflect.VisibleFields(v.Type()) {
		if !sf.IsExported() || sf.Type.Kind() != reflect.Ptr {
			continue
		}
		fv := v.FieldByIndex(sf.Index)
		if fv.IsNil() {
			continue
		}
		column, ok := columnFor(sf, renames)
		if !ok {
			continue
		}
		updates[column] = fv.Elem().Interface()
	}
	return updates
}

func columnFor(sf reflect.StructField, renames map[string]string) (string, bool) {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return "", false
	}
	switch alt := renames[name]; alt {
	case "":
		return name, true
	case "-":
		return "", false
	default:
		return alt, true
	}
}
