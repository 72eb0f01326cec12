package repositories

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Values are stored as protobuf encoded structpb.Struct records.
// Times are kept as RFC3339 strings since structpb numbers are float64.

func encode(fields map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build record: %w", err)
	}
	return proto.Marshal(s)
}

func decode(data []byte) (record, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return record{fields: s.GetFields()}, nil
}

type record struct {
	fields map[string]*structpb.Value
}

func (r record) str(key string) string {
	return r.fields[key].GetStringValue()
}

func (r record) boolean(key string) bool {
	return r.fields[key].GetBoolValue()
}

func (r record) time(key string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.str(key))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func (r record) strings(key string) []string {
	values := r.fields[key].GetListValue().GetValues()
	return lo.Map(values, func(v *structpb.Value, _ int) string { return v.GetStringValue() })
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toAnySlice(values []string) []any {
	return lo.Map(values, func(v string, _ int) any { return v })
}
