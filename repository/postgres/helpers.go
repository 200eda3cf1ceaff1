package postgres

import "encoding/json"

func marshalJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func unmarshalBadges(data []byte) map[string]bool {
	if len(data) == 0 {
		return map[string]bool{}
	}
	out := map[string]bool{}
	_ = json.Unmarshal(data, &out)
	return out
}

func unmarshalContributions(data []byte) map[string]int64 {
	if len(data) == 0 {
		return map[string]int64{}
	}
	out := map[string]int64{}
	_ = json.Unmarshal(data, &out)
	return out
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
