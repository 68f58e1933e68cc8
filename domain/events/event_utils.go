package events

import "reflect"

// ExtractTableID reads the TableID field of an event, if it has one.
func ExtractTableID(event Event) string {
	val := reflect.ValueOf(event)

	// If it's a pointer, get the underlying element
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() == reflect.Struct {
		tableID := val.FieldByName("TableID")
		if tableID.IsValid() && tableID.Kind() == reflect.String {
			return tableID.String()
		}
	}

	return ""
}

// Public drops private events.
func Public(evs []Event) []Event {
	out := make([]Event, 0, len(evs))
	for _, e := range evs {
		if !IsPrivate(e) {
			out = append(out, e)
		}
	}
	return out
}
