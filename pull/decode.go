package pull

// decodeNode turns one raw row (or nested map value) returned by the
// store into the caller-facing result map: raw/virtual/cypher values pass
// through (nested many/one values recurse through their own sub-Shape),
// hidden dependency-only fields are dropped, and derived values are
// computed last, from the full set of sibling values including hidden
// ones.
func (s *Shape) decodeNode(row map[string]any) (map[string]any, error) {
	if row == nil {
		return nil, nil
	}

	values := make(map[string]any, len(s.fields))
	out := make(map[string]any, len(s.fields))

	for _, f := range s.fields {
		switch f.kind {
		case fieldRaw, fieldCypher:
			v := row[f.name]
			values[f.name] = v
			if !f.hidden {
				out[f.name] = v
			}

		case fieldMany:
			list := []any{}
			if raw, ok := row[f.name].([]any); ok {
				for _, item := range raw {
					m, _ := item.(map[string]any)
					decoded, err := f.sub.decodeNode(m)
					if err != nil {
						return nil, err
					}
					list = append(list, decoded)
				}
			}
			values[f.name] = list
			if !f.hidden {
				out[f.name] = list
			}

		case fieldOne:
			m, _ := row[f.name].(map[string]any)
			decoded, err := f.sub.decodeNode(m)
			if err != nil {
				return nil, err
			}
			values[f.name] = decoded
			if !f.hidden {
				out[f.name] = decoded
			}
		}
	}

	for _, f := range s.fields {
		if f.kind != fieldDerived {
			continue
		}
		v, err := f.compute(values)
		if err != nil {
			return nil, err
		}
		out[f.name] = v
	}

	return out, nil
}
