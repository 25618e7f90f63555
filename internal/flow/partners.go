package flow

import "youareloved-web/internal/model"

// MergePartners folds a fetched server list into the local one. An empty
// fetch never removes anything. A non-empty fetch becomes the new base and
// local partners it does not know about are kept after it, in order.
func MergePartners(local, fetched []model.Partner) []model.Partner {
	if len(fetched) == 0 {
		out := make([]model.Partner, len(local))
		copy(out, local)
		return out
	}

	out := make([]model.Partner, 0, len(fetched)+len(local))
	seen := make(map[string]struct{}, len(fetched))
	for _, p := range fetched {
		out = append(out, p)
		seen[p.Key()] = struct{}{}
	}
	for _, p := range local {
		if _, ok := seen[p.Key()]; ok {
			continue
		}
		out = append(out, p)
	}
	return out
}
