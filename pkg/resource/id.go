package resource

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ClusterScope stands in for the namespace of objects which don't
// live in one.
const ClusterScope = "<cluster>"

// ID uniquely identifies a resource in the external system.
type ID struct {
	Namespace, Kind, Name string
}

// MakeID constructs an ID from constituent components.
func MakeID(namespace, kind, name string) ID {
	if namespace == "" {
		namespace = ClusterScope
	}
	return ID{Namespace: namespace, Kind: strings.ToLower(kind), Name: name}
}

// New <namespace>:<kind>/<name> format
func (id ID) String() string {
	return fmt.Sprintf("%s:%s/%s", id.Namespace, id.Kind, id.Name)
}

// MarshalJSON encodes an ID as a JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}
