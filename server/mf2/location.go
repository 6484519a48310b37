package mf2

// LocationOf extracts latitude and longitude strings per the mf2 location
// algorithm: explicit latitude/longitude properties first, then geo and
// location sub-items, recursively. found reports whether the item carries
// any location concept at all, even without usable coordinates.
func LocationOf(item *Item) (lat, lng string, found bool) {
	if item == nil {
		return "", "", false
	}

	lat = Text(item.First("latitude"))
	lng = Text(item.First("longitude"))
	if lat != "" && lng != "" {
		return lat, lng, true
	}

	for _, prop := range []string{"geo", "location"} {
		for _, v := range item.Prop(prop) {
			found = true
			sub, ok := v.(*Item)
			if !ok {
				continue
			}
			if la, ln, _ := LocationOf(sub); la != "" && ln != "" {
				return la, ln, true
			}
		}
	}
	return lat, lng, found
}
