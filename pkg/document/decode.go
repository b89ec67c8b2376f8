package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// FromInterface builds a Value from decoded data, as produced by
// encoding/json, gopkg.in/yaml.v2 or hand-written literals.
func FromInterface(in interface{}) (Value, error) {
	switch t := in.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t)
	case int:
		return Number(json.Number(strconv.FormatInt(int64(t), 10)))
	case int8:
		return Number(json.Number(strconv.FormatInt(int64(t), 10)))
	case int16:
		return Number(json.Number(strconv.FormatInt(int64(t), 10)))
	case int32:
		return Number(json.Number(strconv.FormatInt(int64(t), 10)))
	case int64:
		return Number(json.Number(strconv.FormatInt(t, 10)))
	case uint:
		return Number(json.Number(strconv.FormatUint(uint64(t), 10)))
	case uint8:
		return Number(json.Number(strconv.FormatUint(uint64(t), 10)))
	case uint16:
		return Number(json.Number(strconv.FormatUint(uint64(t), 10)))
	case uint32:
		return Number(json.Number(strconv.FormatUint(uint64(t), 10)))
	case uint64:
		return Number(json.Number(strconv.FormatUint(t, 10)))
	case float32:
		return floatValue(float64(t))
	case float64:
		return floatValue(t)
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, errors.Wrapf(err, "[%d]", i)
			}
			items[i] = v
		}
		return NewSequence(items...), nil
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = String(item)
		}
		return NewSequence(items...), nil
	case map[string]interface{}:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, errors.Wrapf(err, "[%s]", k)
			}
			fields[k] = v
		}
		return NewMapping(fields), nil
	case map[string]string:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			fields[k] = String(item)
		}
		return NewMapping(fields), nil
	case map[interface{}]interface{}:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprint(k)
			}
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, errors.Wrapf(err, "[%s]", key)
			}
			fields[key] = v
		}
		return NewMapping(fields), nil
	}
	return Value{}, fmt.Errorf("unsupported value of type %T", in)
}

// MustFromInterface is FromInterface for literals known to be valid,
// panicking otherwise.
func MustFromInterface(in interface{}) Value {
	v, err := FromInterface(in)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseJSON decodes a single JSON document. Numbers keep their
// precision.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return Value{}, errors.Wrap(err, "decoding JSON")
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, errors.New("decoding JSON: unexpected data after document")
	}
	return FromInterface(raw)
}

// ParseYAML decodes a single YAML (or JSON) document. An empty input
// is a null document.
func ParseYAML(data []byte) (Value, error) {
	j, err := yaml.YAMLToJSON(data)
	if err != nil {
		return Value{}, errors.Wrap(err, "decoding YAML")
	}
	return ParseJSON(j)
}

// YAML renders the value as YAML.
func (v Value) YAML() ([]byte, error) {
	j, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return yaml.JSONToYAML(j)
}

func floatValue(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("unsupported number %v", f)
	}
	return Number(json.Number(strconv.FormatFloat(f, 'g', -1, 64)))
}

func canonicalNumber(n json.Number) (json.Number, error) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return json.Number(strconv.FormatInt(i, 10)), nil
	}
	if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return json.Number(strconv.FormatUint(u, 10)), nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return "", fmt.Errorf("invalid number %q", string(n))
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return json.Number(strconv.FormatInt(int64(f), 10)), nil
	}
	return json.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
}
