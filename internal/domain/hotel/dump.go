package hotel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var errNoHotelID = errors.New("dump record has no usable hotel id")

// FromDumpRecord converts one raw dump line into an Info payload shaped like
// a live hotel-info response, filling required fields with safe defaults so
// cached dump entries and cached live entries are interchangeable.
func FromDumpRecord(line []byte, language string) (*Info, error) {
	var record map[string]any
	if err := json.Unmarshal(line, &record); err != nil {
		return nil, fmt.Errorf("decode dump record: %w", err)
	}

	hotelID := stringField(record, "id")
	if hotelID == "" {
		hotelID = stringField(record, "slug")
	}
	if hotelID == "" {
		if hid := numberField(record, "hid"); hid != 0 {
			hotelID = strconv.FormatInt(int64(hid), 10)
		}
	}
	if hotelID == "" {
		return nil, errNoHotelID
	}

	region, _ := record["region"].(map[string]any)
	if region == nil {
		region = map[string]any{}
	}
	regionName := stringField(region, "name")
	if regionName == "" {
		regionName = stringField(record, "city")
	}
	countryCode := stringField(region, "country_code")
	if countryCode == "" {
		countryCode = stringField(record, "country_code")
	}
	regionType := stringField(region, "type")
	if regionType == "" {
		regionType = "City"
	}

	data := map[string]any{
		"address":            stringField(record, "address"),
		"amenity_groups":     amenityGroups(record),
		"check_in_time":      stringOr(record, "check_in_time", "15:00:00"),
		"check_out_time":     stringOr(record, "check_out_time", "11:00:00"),
		"description_struct": listField(record, "description_struct"),
		"email":              record["email"],
		"id":                 hotelID,
		"images":             listField(record, "images"),
		"kind":               stringOr(record, "kind", "hotel"),
		"latitude":           numberField(record, "latitude"),
		"longitude":          numberField(record, "longitude"),
		"name":               stringField(record, "name"),
		"metapolicy_struct":  metapolicyStruct(record),
		"phone":              record["phone"],
		"policy_struct":      listField(record, "policy_struct"),
		"postal_code":        record["postal_code"],
		"region": map[string]any{
			"country_code": countryCode,
			"iata":         region["iata"],
			"id":           int64(numberField(region, "id")),
			"name":         regionName,
			"type":         regionType,
		},
		"room_groups":  roomGroups(record),
		"star_rating":  int64(numberField(record, "star_rating")),
		"serp_filters": listField(record, "serp_filters"),
		"is_closed":    boolField(record, "is_closed"),
	}

	payload, err := json.Marshal(map[string]any{
		"status": "ok",
		"error":  nil,
		"debug":  nil,
		"data":   data,
	})
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	return &Info{HotelID: hotelID, Language: language, Payload: payload}, nil
}

func amenityGroups(record map[string]any) []any {
	groups := listField(record, "amenity_groups")
	// Some dump rows carry a single object instead of a list.
	if len(groups) == 0 {
		if single, ok := record["amenity_groups"].(map[string]any); ok {
			groups = []any{single}
		}
	}
	out := make([]any, 0, len(groups))
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		amenities := group["amenities"]
		if amenities == nil {
			amenities = []any{}
		}
		out = append(out, map[string]any{
			"amenities":  amenities,
			"group_name": group["group_name"],
		})
	}
	return out
}

func roomGroups(record map[string]any) []any {
	groups := listField(record, "room_groups")
	out := make([]any, 0, len(groups))
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		rgExt := group["rg_ext"]
		if rgExt == nil {
			rgExt = map[string]any{}
		}
		out = append(out, map[string]any{
			"images":         valueOrEmptyList(group["images"]),
			"name":           stringField(group, "name"),
			"room_amenities": valueOrEmptyList(group["room_amenities"]),
			"room_group_id":  group["room_group_id"],
			"rg_ext":         rgExt,
		})
	}
	return out
}

func metapolicyStruct(record map[string]any) any {
	if m, ok := record["metapolicy_struct"].(map[string]any); ok {
		return m
	}
	return map[string]any{
		"internet":           []any{},
		"add_fee":            []any{},
		"check_in_check_out": nil,
		"children":           []any{},
		"children_meal":      []any{},
		"cradle":             nil,
		"deposit":            []any{},
		"extra_bed":          []any{},
		"meal":               []any{},
		"no_show":            nil,
		"parking":            []any{},
		"pets":               []any{},
		"shuttle":            []any{},
		"visa":               nil,
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func stringOr(m map[string]any, key, fallback string) string {
	if s := stringField(m, key); s != "" {
		return s
	}
	return fallback
}

func numberField(m map[string]any, key string) float64 {
	f, _ := m[key].(float64)
	return f
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func listField(m map[string]any, key string) []any {
	l, _ := m[key].([]any)
	if l == nil {
		return []any{}
	}
	return l
}

func valueOrEmptyList(v any) any {
	if v == nil {
		return []any{}
	}
	return v
}
