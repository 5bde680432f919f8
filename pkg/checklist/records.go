package checklist

// FindHighestID selects the current sub-record: a single record passes through
// unchanged, a list yields the element with the greatest numeric id. Anything
// else, including an empty list, yields an empty Record so lookups on the
// result read as absent instead of failing.
func FindHighestID(v Value) Record {
	switch v.kind {
	case KindRecord:
		return v.record
	case KindRecordList:
		var (
			best   Record
			bestID float64
			found  bool
		)
		for _, rec := range v.list {
			id, ok := rec.ID()
			if !ok {
				if best == nil {
					best = rec
				}
				continue
			}
			if !found || id > bestID {
				best, bestID, found = rec, id, true
			}
		}
		if best == nil {
			return Record{}
		}
		return best
	default:
		return Record{}
	}
}
