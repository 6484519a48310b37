package mf2

// TrimNulls returns a copy of the item with empty strings, empty values and
// vacant nested items pruned away. Returns nil when nothing remains.
// Trimming an already-trimmed item is a no-op.
func TrimNulls(item *Item) *Item {
	if item == nil {
		return nil
	}

	out := &Item{
		Value: item.Value,
		HTML:  item.HTML,
		Alt:   item.Alt,
	}
	for _, t := range item.Type {
		if t != "" {
			out.Type = append(out.Type, t)
		}
	}
	for name, vals := range item.Properties {
		kept := trimValues(vals)
		if len(kept) > 0 {
			if out.Properties == nil {
				out.Properties = make(map[string][]interface{})
			}
			out.Properties[name] = kept
		}
	}
	for _, c := range item.Children {
		if t := TrimNulls(c); t != nil {
			out.Children = append(out.Children, t)
		}
	}

	if len(out.Type) == 0 && len(out.Properties) == 0 && len(out.Children) == 0 &&
		out.Value == "" && out.HTML == "" && out.Alt == "" {
		return nil
	}
	return out
}

func trimValues(vals []interface{}) []interface{} {
	var kept []interface{}
	for _, v := range vals {
		switch v := v.(type) {
		case string:
			if v != "" {
				kept = append(kept, v)
			}
		case *Item:
			if t := TrimNulls(v); t != nil {
				kept = append(kept, t)
			}
		case nil:
			// dropped
		default:
			kept = append(kept, v)
		}
	}
	return kept
}
